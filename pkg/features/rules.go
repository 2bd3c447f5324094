package features

import (
	"regexp"
	"strings"
)

// Rule is one row of the heuristic table: a condition, the weight it carries
// and the reason reported when it holds. Eval receives every candidate the
// rule knows about and marks which ones matched, so the resulting feature set
// also records the signals that did not fire.
type Rule struct {
	Name   string
	Weight float64
	Eval   func(u *ParsedURL) []Outcome
}

// Outcome is the evaluation of one candidate signal of a rule.
type Outcome struct {
	Name    string
	Reason  string
	Matched bool
}

// SuspiciousTLDs are low-trust top-level domains frequently used for throwaway
// phishing hosts.
var SuspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".cc", ".click", ".download", ".online", ".site"}

// PathKeywords are words phishing pages like to put in their paths.
var PathKeywords = []string{"login", "secure", "account", "verify", "update", "confirm", "support", "admin"}

const (
	maxURLLength  = 100
	maxSubdomains = 3
)

var anomalousHostChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// DefaultRules returns the standard rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		single("suspicious_tld", 0.30, "Suspicious TLD detected", func(u *ParsedURL) bool {
			for _, tld := range SuspiciousTLDs {
				if strings.HasSuffix(u.Host, tld) {
					return true
				}
			}
			return false
		}),
		single("ip_host", 0.20, "IP address instead of domain name", func(u *ParsedURL) bool {
			return IsIPv4(u.Host)
		}),
		single("long_url", 0.10, "Unusually long URL", func(u *ParsedURL) bool {
			return u.Length > maxURLLength
		}),
		single("excessive_subdomains", 0.15, "Excessive subdomains", func(u *ParsedURL) bool {
			return len(strings.Split(u.Host, "."))-2 > maxSubdomains
		}),
		single("host_characters", 0.10, "Suspicious characters in domain", func(u *ParsedURL) bool {
			return anomalousHostChars.MatchString(u.Host)
		}),
		single("no_https", 0.10, "Not using HTTPS", func(u *ParsedURL) bool {
			return u.Scheme != "https"
		}),
		KeywordRule("path_keyword", 0.05, PathKeywords),
	}
}

// KeywordRule builds a rule that adds weight once for every keyword found in
// the lower-cased path.
func KeywordRule(name string, weight float64, keywords []string) Rule {
	return Rule{
		Name:   name,
		Weight: weight,
		Eval: func(u *ParsedURL) []Outcome {
			path := strings.ToLower(u.Path)
			out := make([]Outcome, 0, len(keywords))
			for _, kw := range keywords {
				out = append(out, Outcome{
					Name:    name + ":" + kw,
					Reason:  "Suspicious keyword in URL: " + kw,
					Matched: strings.Contains(path, kw),
				})
			}
			return out
		},
	}
}

func single(name string, weight float64, reason string, cond func(u *ParsedURL) bool) Rule {
	return Rule{
		Name:   name,
		Weight: weight,
		Eval: func(u *ParsedURL) []Outcome {
			return []Outcome{{Name: name, Reason: reason, Matched: cond(u)}}
		},
	}
}
