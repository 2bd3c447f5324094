package storage

import (
	"context"
	"time"

	"github.com/sw33tLie/phishguard/pkg/cache"
	"github.com/sw33tLie/phishguard/pkg/remote"
)

// Record names, also the JSON keys of a State.
const (
	RecordPhishing   = "knownPhishingUrls"
	RecordLegitimate = "knownLegitimateUrls"
	RecordBlocked    = "blockedUrls"
	RecordAPIConfig  = "apiConfig"
)

// State is everything that survives a restart. A nil APIConfig means the
// record was never written.
type State struct {
	Phishing   []string       `json:"knownPhishingUrls"`
	Legitimate []string       `json:"knownLegitimateUrls"`
	Blocked    []string       `json:"blockedUrls"`
	APIConfig  *remote.Config `json:"apiConfig,omitempty"`
}

// StateOf combines a cache snapshot and the remote configuration.
func StateOf(snap cache.Snapshot, cfg remote.Config) State {
	return State{
		Phishing:   snap.Phishing,
		Legitimate: snap.Legitimate,
		Blocked:    snap.Blocked,
		APIConfig:  &cfg,
	}
}

// Snapshot returns the URL sets of s.
func (s State) Snapshot() cache.Snapshot {
	return cache.Snapshot{Phishing: s.Phishing, Legitimate: s.Legitimate, Blocked: s.Blocked}
}

// Event records that a URL entered one of the sets.
type Event struct {
	OccurredAt time.Time `json:"occurredAt"`
	URL        string    `json:"url"`
	Set        string    `json:"set"`    // phishing | legitimate | blocked
	Source     string    `json:"source"` // seed | analysis | report
}

// Store is the load/save contract of the engine. Save replaces the whole
// state and appends events in one step.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State, events []Event) error
	Close() error
}
