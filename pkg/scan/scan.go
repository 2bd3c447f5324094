// Package scan runs the analysis pipeline over many URLs at once.
package scan

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/sw33tLie/phishguard/pkg/engine"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Analyzer is the part of the engine a scan needs.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (engine.Outcome, error)
}

// Config holds everything Run needs.
type Config struct {
	Analyzer    Analyzer
	Concurrency int    // defaults to 5 if <= 0
	Log         Logger // optional; nil = no logging

	// OnResult is called once per URL from worker goroutines, in completion
	// order. Enables the CLI to stream results. Nil = no callback.
	OnResult func(Result)
}

// Result is the outcome for one input URL. Err is set for URLs that were
// not analyzed, e.g. engine.ErrRestricted.
type Result struct {
	Index   int
	URL     string
	Outcome engine.Outcome
	Err     error
}

// Summary holds every result in input order plus per-verdict totals.
type Summary struct {
	Results []Result
	Blocked int
	Warned  int
	Passed  int
	Skipped int
}

// Run analyzes urls with at most cfg.Concurrency analyses in flight. A
// failing URL does not stop the scan; only ctx cancellation does.
func Run(ctx context.Context, cfg Config, urls []string) (*Summary, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("scan: no analyzer configured")
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	results := make([]Result, len(urls))
	if len(urls) == 0 {
		return &Summary{Results: results}, nil
	}
	log.Infof("Scanning %d URLs with %d workers", len(urls), concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, u := range urls {
		i, u := i, u
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := cfg.Analyzer.Analyze(gctx, u)
			res := Result{Index: i, URL: u, Outcome: out, Err: err}
			if err != nil {
				log.Debugf("Skipping %s: %v", u, err)
			}
			// Each worker owns its slot.
			results[i] = res
			if cfg.OnResult != nil {
				cfg.OnResult(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := &Summary{Results: results}
	for _, r := range results {
		switch {
		case r.Err != nil:
			sum.Skipped++
		case r.Outcome.Verdict == engine.Block:
			sum.Blocked++
		case r.Outcome.Verdict == engine.Warn:
			sum.Warned++
		default:
			sum.Passed++
		}
	}
	if sum.Blocked > 0 {
		log.Warnf("%d of %d URLs blocked", sum.Blocked, len(urls))
	}
	return sum, nil
}
