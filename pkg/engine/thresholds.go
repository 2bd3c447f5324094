package engine

import "fmt"

// Thresholds are the decision boundaries applied after scoring.
type Thresholds struct {
	// Block is the local score above which a URL is blocked.
	Block float64 `json:"block"`
	// RemoteBlock is the remote score above which a URL counts as phishing
	// when the service gives no explicit verdict.
	RemoteBlock float64 `json:"remoteBlock"`
	// Link is the score above which a link or form target is flagged.
	Link float64 `json:"link"`
	// Legitimate is the score below which a URL is remembered as safe.
	Legitimate float64 `json:"legitimate"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Block: 0.8, RemoteBlock: 0.7, Link: 0.6, Legitimate: 0.2}
}

// withDefaults fills every zero field from DefaultThresholds.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	for _, f := range []struct{ v, def *float64 }{
		{&t.Block, &d.Block},
		{&t.RemoteBlock, &d.RemoteBlock},
		{&t.Link, &d.Link},
		{&t.Legitimate, &d.Legitimate},
	} {
		if *f.v == 0 {
			*f.v = *f.def
		}
	}
	return t
}

func (t Thresholds) Validate() error {
	for _, th := range []struct {
		name string
		v    float64
	}{
		{"block", t.Block},
		{"remote_block", t.RemoteBlock},
		{"link", t.Link},
		{"legitimate", t.Legitimate},
	} {
		if th.v < 0 || th.v > 1 {
			return fmt.Errorf("threshold %s must be within [0,1], got %v", th.name, th.v)
		}
	}
	if t.Legitimate >= t.Block {
		return fmt.Errorf("legitimate threshold (%v) must be below the block threshold (%v)", t.Legitimate, t.Block)
	}
	return nil
}
