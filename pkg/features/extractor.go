package features

// Feature is one evaluated signal: its name, the weight it contributes when
// matched, and the human-readable reason reported for it.
type Feature struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Matched bool    `json:"matched"`
	Reason  string  `json:"reason"`
}

// FeatureSet is the ordered result of running a rule table over a URL.
type FeatureSet []Feature

// Matched returns only the features that fired, in evaluation order.
func (fs FeatureSet) Matched() FeatureSet {
	out := make(FeatureSet, 0, len(fs))
	for _, f := range fs {
		if f.Matched {
			out = append(out, f)
		}
	}
	return out
}

// Extractor runs a fixed rule table over URLs.
type Extractor struct {
	rules []Rule
}

// NewExtractor creates an extractor for the given rules. With no rules it
// uses DefaultRules.
func NewExtractor(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules}
}

// Extract parses raw and evaluates every rule against it.
func (e *Extractor) Extract(raw string) (*ParsedURL, FeatureSet, error) {
	u, err := Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	return u, e.ExtractParsed(u), nil
}

// ExtractParsed evaluates the rule table against an already parsed URL.
func (e *Extractor) ExtractParsed(u *ParsedURL) FeatureSet {
	var fs FeatureSet
	for _, r := range e.rules {
		for _, o := range r.Eval(u) {
			fs = append(fs, Feature{
				Name:    o.Name,
				Weight:  r.Weight,
				Matched: o.Matched,
				Reason:  o.Reason,
			})
		}
	}
	return fs
}
