// Package scoring combines URL features into a bounded, explainable risk score.
package scoring

import (
	"math"

	"github.com/sw33tLie/phishguard/pkg/features"
	"github.com/sw33tLie/phishguard/pkg/similarity"
)

// Source tells where an assessment came from.
type Source string

const (
	Local  Source = "Local"
	Remote Source = "Remote"
)

// Assessment is the immutable result handed to every caller. Reasons keep the
// order in which the signals were evaluated.
type Assessment struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
	Source  Source   `json:"source"`
}

const (
	// InvalidURLScore is reported for input that is not a usable URL.
	InvalidURLScore  = 0.8
	InvalidURLReason = "Invalid URL format"
)

// InvalidURL is the fixed assessment for malformed input.
func InvalidURL() Assessment {
	return Assessment{Score: InvalidURLScore, Reasons: []string{InvalidURLReason}, Source: Local}
}

// Evaluation is an assessment together with everything that produced it.
type Evaluation struct {
	URL        *features.ParsedURL `json:"url,omitempty"`
	Features   features.FeatureSet `json:"features"`
	Assessment Assessment          `json:"assessment"`
}

// Scorer is a pure function from URL to Assessment. It keeps no state
// between calls and is safe for concurrent use.
type Scorer struct {
	extractor *features.Extractor
	matcher   *similarity.Matcher
}

// NewScorer builds a scorer. A nil extractor uses the default rule table; a
// nil matcher gives the lite variant without typosquatting detection.
func NewScorer(extractor *features.Extractor, matcher *similarity.Matcher) *Scorer {
	if extractor == nil {
		extractor = features.NewExtractor()
	}
	return &Scorer{extractor: extractor, matcher: matcher}
}

// Full returns the default scorer with typosquatting detection enabled.
func Full() *Scorer {
	return NewScorer(nil, similarity.NewMatcher())
}

// Lite returns the default scorer without the similarity check.
func Lite() *Scorer {
	return NewScorer(nil, nil)
}

// Evaluate extracts all features of raw and scores them. The error is
// features.ErrInvalidURL for malformed input; the returned evaluation then
// still carries the fixed invalid-URL assessment.
func (s *Scorer) Evaluate(raw string) (Evaluation, error) {
	u, fs, err := s.extractor.Extract(raw)
	if err != nil {
		return Evaluation{Assessment: InvalidURL()}, err
	}
	if s.matcher != nil {
		fs = append(fs, s.matcher.Feature(u.Host))
	}
	return Evaluation{URL: u, Features: fs, Assessment: Combine(fs)}, nil
}

// Score returns the local assessment for raw. It never fails.
func (s *Scorer) Score(raw string) Assessment {
	ev, _ := s.Evaluate(raw)
	return ev.Assessment
}

// Combine sums the weights of the matched features, clamps the total to 1 and
// lists their reasons in order.
func Combine(fs features.FeatureSet) Assessment {
	var (
		total   float64
		reasons = []string{}
	)
	for _, f := range fs {
		if !f.Matched {
			continue
		}
		total += f.Weight
		reasons = append(reasons, f.Reason)
	}
	return Assessment{Score: Clamp(total), Reasons: reasons, Source: Local}
}

// Clamp bounds a score to [0,1] and rounds away float noise so that equal
// feature sets always compare equal against the thresholds.
func Clamp(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return math.Round(score*1e6) / 1e6
}

// RiskClass buckets a score the way warnings are presented to users.
func RiskClass(score float64) string {
	switch {
	case score >= 0.7:
		return "high"
	case score >= 0.4:
		return "medium"
	default:
		return "low"
	}
}
