// Package features turns a raw URL into the ordered list of weighted signals
// that the risk scorer sums up.
package features

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// ErrInvalidURL is returned when a string cannot be interpreted as an absolute URL.
var ErrInvalidURL = errors.New("invalid URL format")

// Schemes that always carry an authority component. A URL using one of them
// without a host is malformed.
var hierarchicalSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"ws":    true,
	"wss":   true,
}

var ipv4Pattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

// ParsedURL holds the pieces of a URL the rules look at.
type ParsedURL struct {
	Raw    string
	Scheme string
	// Host is the lower-cased hostname, without port or brackets.
	Host string
	Path string
	// Length is the length of Raw in characters.
	Length int
	// Domain is the registrable domain (eTLD+1) of Host, empty for IP
	// literals and hosts the public suffix list does not know.
	Domain string
}

// Parse parses raw into a ParsedURL. It fails with ErrInvalidURL for relative
// references, strings without a scheme, and web URLs without a host.
func Parse(raw string) (*ParsedURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return nil, ErrInvalidURL
	}

	host := strings.ToLower(u.Hostname())
	if hierarchicalSchemes[u.Scheme] && host == "" {
		return nil, ErrInvalidURL
	}

	path := u.Path
	if path == "" && u.Opaque != "" {
		path = u.Opaque
	}

	p := &ParsedURL{
		Raw:    raw,
		Scheme: u.Scheme,
		Host:   host,
		Path:   path,
		Length: utf8.RuneCountInString(raw),
	}

	if host != "" && !IsIPv4(host) && strings.Contains(host, ".") {
		if d, err := publicsuffix.Domain(host); err == nil {
			p.Domain = d
		}
	}
	return p, nil
}

// IsIPv4 reports whether host is a dotted-quad literal. Octet ranges are not
// checked: 999.1.1.1 still looks like an attempt to hide behind an address.
func IsIPv4(host string) bool {
	return ipv4Pattern.MatchString(host)
}
