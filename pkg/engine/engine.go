// Package engine owns the classification state and decides, per URL, whether
// to block, warn or pass.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/sw33tLie/phishguard/internal/utils"
	"github.com/sw33tLie/phishguard/pkg/cache"
	"github.com/sw33tLie/phishguard/pkg/remote"
	"github.com/sw33tLie/phishguard/pkg/scoring"
	"github.com/sw33tLie/phishguard/pkg/storage"
)

var (
	ErrRestricted    = errors.New("restricted URL scheme")
	ErrUnknownAction = errors.New("Unknown action")
	ErrMissingURL    = errors.New("url is required")
	ErrClosed        = errors.New("engine is closed")
)

// ProbeURL is classified by TestConnection.
const ProbeURL = "https://www.google.com"

// Event sources.
const (
	sourceSeed     = "seed"
	sourceAnalysis = "analysis"
	sourceReport   = "report"
)

// Options configures an Engine. Every field is optional.
type Options struct {
	Store      storage.Store   // nil = in-memory only
	Scorer     *scoring.Scorer // nil = full scorer
	Client     *remote.Client
	Notifier   Notifier // nil = log through Log
	Thresholds Thresholds
	Seeds      []string // nil = DefaultSeeds; empty = none

	// Remote is used until a configuration has been persisted.
	Remote remote.Config

	Log logrus.FieldLogger // nil = utils.Log
}

// Engine holds the classification cache and the remote configuration. All
// methods are safe for concurrent use.
type Engine struct {
	store      storage.Store
	scorer     *scoring.Scorer
	client     *remote.Client
	notifier   Notifier
	thresholds Thresholds
	seeds      []string
	log        logrus.FieldLogger

	cache *cache.Cache

	cfgMu sync.RWMutex
	cfg   remote.Config

	// persistMu makes snapshot+save one step, so a later save always
	// includes earlier adds.
	persistMu sync.Mutex

	group singleflight.Group

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New builds an engine. Call Start before serving requests. The engine uses
// a copy of Options.Client whose phishing threshold is Thresholds.RemoteBlock.
func New(opts Options) (*Engine, error) {
	log := opts.Log
	if log == nil {
		log = utils.Log
	}

	th := opts.Thresholds.withDefaults()
	if err := th.Validate(); err != nil {
		return nil, err
	}

	cfg := opts.Remote
	if cfg.Timeout == 0 {
		cfg.Timeout = remote.DefaultTimeout
	}

	e := &Engine{
		store:      opts.Store,
		scorer:     opts.Scorer,
		client:     opts.Client,
		notifier:   opts.Notifier,
		thresholds: th,
		seeds:      opts.Seeds,
		log:        log,
		cache:      cache.New(),
		cfg:        cfg,
	}
	if e.store == nil {
		e.store = storage.NewMemoryStore(storage.State{})
	}
	if e.scorer == nil {
		e.scorer = scoring.Full()
	}
	if e.client == nil {
		e.client = remote.NewClient(nil, nil)
	}
	client := *e.client
	client.PhishingThreshold = th.RemoteBlock
	e.client = &client
	if e.notifier == nil {
		e.notifier = LogNotifier{Log: log}
	}
	if e.seeds == nil {
		e.seeds = DefaultSeeds
	}
	return e, nil
}

// Start loads the persisted state, adds the seed URLs and writes the result
// back.
func (e *Engine) Start(ctx context.Context) error {
	st, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	e.cache.Restore(st.Snapshot())
	if st.APIConfig != nil {
		e.cfgMu.Lock()
		e.cfg = *st.APIConfig
		e.cfgMu.Unlock()
	}

	var events []storage.Event
	for _, u := range e.seeds {
		if e.cache.Add(u, cache.Phishing) {
			events = append(events, newEvent(u, cache.Phishing, sourceSeed))
		}
	}

	counts := e.cache.Counts()
	e.log.WithFields(logrus.Fields{
		"phishing":   counts.Phishing,
		"legitimate": counts.Legitimate,
		"blocked":    counts.Blocked,
		"remote":     e.Config().Active(),
	}).Info("Classification cache loaded")

	if err := e.persist(ctx, events); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close waits for submitted requests and closes the store.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	return e.store.Close()
}

// Config returns the current remote configuration.
func (e *Engine) Config() remote.Config {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

// UpdateConfig merges p into the remote configuration and persists it. The
// new configuration is in effect even when persisting fails.
func (e *Engine) UpdateConfig(ctx context.Context, p remote.ConfigPatch) (remote.Config, error) {
	e.cfgMu.Lock()
	e.cfg = e.cfg.Apply(p)
	cfg := e.cfg
	e.cfgMu.Unlock()

	e.log.WithField("config", cfg.Redacted()).Info("Remote configuration updated")
	if err := e.persist(ctx, nil); err != nil {
		return cfg, fmt.Errorf("save config: %w", err)
	}
	return cfg, nil
}

// Stats are the set sizes plus whether the remote classifier is enabled.
type Stats struct {
	cache.Counts
	APIEnabled bool `json:"apiEnabled"`
}

func (e *Engine) Stats() Stats {
	return Stats{Counts: e.cache.Counts(), APIEnabled: e.Config().Enabled}
}

// Label returns the cached classification of url.
func (e *Engine) Label(url string) cache.Label {
	return e.cache.Label(url)
}

// Snapshot returns a copy of the classification sets.
func (e *Engine) Snapshot() cache.Snapshot {
	return e.cache.Snapshot()
}

// Score runs the local scorer only. It never touches the cache.
func (e *Engine) Score(rawURL string) scoring.Assessment {
	return e.scorer.Score(rawURL)
}

// AnalyzeRemote asks the remote classifier about rawURL with the current
// configuration. It returns remote.ErrDisabled when the classifier is off.
func (e *Engine) AnalyzeRemote(ctx context.Context, rawURL string) (remote.Result, error) {
	return e.client.Classify(ctx, rawURL, e.Config())
}

// TestConnection classifies ProbeURL remotely.
func (e *Engine) TestConnection(ctx context.Context) (remote.Result, error) {
	return e.AnalyzeRemote(ctx, ProbeURL)
}

// ReportPhishing force-adds url to the phishing set.
func (e *Engine) ReportPhishing(ctx context.Context, url string) error {
	return e.report(ctx, url, cache.Phishing)
}

// ReportFalsePositive force-adds url to the legitimate set. A URL that is
// also in the phishing set keeps its Phishing label.
func (e *Engine) ReportFalsePositive(ctx context.Context, url string) error {
	return e.report(ctx, url, cache.Legitimate)
}

func (e *Engine) report(ctx context.Context, url string, set cache.Set) error {
	if url == "" {
		return ErrMissingURL
	}
	var events []storage.Event
	if e.cache.Add(url, set) {
		events = append(events, newEvent(url, set, sourceReport))
	}
	e.log.WithFields(logrus.Fields{"url": url, "set": set}).Info("URL reported")
	if err := e.persist(ctx, events); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (e *Engine) persist(ctx context.Context, events []storage.Event) error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	return e.store.Save(ctx, storage.StateOf(e.cache.Snapshot(), e.Config()), events)
}

func (e *Engine) persistLogged(ctx context.Context, log logrus.FieldLogger, events []storage.Event) {
	if err := e.persist(ctx, events); err != nil {
		log.WithError(err).Error("Could not persist classification cache")
	}
}

func newEvent(url string, set cache.Set, source string) storage.Event {
	return storage.Event{URL: url, Set: set.String(), Source: source}
}
