// Package similarity detects hostnames that are lexically close to, but not
// the same as, well-known brand domains.
package similarity

import (
	"strings"

	"github.com/sw33tLie/phishguard/pkg/features"
)

const (
	// MaxDistance is the largest edit distance still considered a typosquat.
	MaxDistance = 2
	// Weight is added to the score when a typosquat is found.
	Weight = 0.30

	featureName = "typosquatting"
)

// DefaultProtectedDomains lists the brand domains checked for typosquatting.
var DefaultProtectedDomains = []string{
	"google.com", "facebook.com", "amazon.com", "microsoft.com",
	"apple.com", "netflix.com", "spotify.com", "instagram.com",
	"twitter.com", "linkedin.com", "paypal.com", "ebay.com",
	"youtube.com", "wikipedia.org", "github.com", "stackoverflow.com",
}

// Levenshtein returns the minimum number of single-rune insertions, deletions
// and substitutions needed to turn a into b.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if ra[i-1] == rb[j-1] {
				d[i][j] = d[i-1][j-1]
				continue
			}
			d[i][j] = 1 + min(d[i-1][j-1], d[i][j-1], d[i-1][j])
		}
	}
	return d[m][n]
}

// Match is a protected domain a hostname was found to imitate.
type Match struct {
	Domain   string
	Distance int
}

// Matcher compares hostnames against a fixed list of protected domains.
type Matcher struct {
	domains []string
}

// NewMatcher returns a matcher for domains. Entries are trimmed and
// lower-cased; with no domains it uses DefaultProtectedDomains.
func NewMatcher(domains ...string) *Matcher {
	if len(domains) == 0 {
		domains = DefaultProtectedDomains
	}
	m := &Matcher{domains: make([]string, 0, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			m.domains = append(m.domains, d)
		}
	}
	return m
}

// Domains returns the protected domains in match order.
func (m *Matcher) Domains() []string {
	return append([]string(nil), m.domains...)
}

// Find returns the first protected domain within MaxDistance of host. An
// exact match is the real site and never counts.
func (m *Matcher) Find(host string) (Match, bool) {
	host = strings.ToLower(host)
	for _, d := range m.domains {
		if host == d {
			continue
		}
		if dist := Levenshtein(host, d); dist <= MaxDistance {
			return Match{Domain: d, Distance: dist}, true
		}
	}
	return Match{}, false
}

// Feature evaluates host and reports the result as a scoring feature.
func (m *Matcher) Feature(host string) features.Feature {
	f := features.Feature{Name: featureName, Weight: Weight}
	if match, ok := m.Find(host); ok {
		f.Matched = true
		f.Reason = "Possible typosquatting of " + match.Domain
	}
	return f
}
