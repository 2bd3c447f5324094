package scan

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sw33tLie/phishguard/pkg/engine"
)

type fakeAnalyzer struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, rawURL string) (engine.Outcome, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return engine.Outcome{}, ctx.Err()
		}
	}
	if engine.IsRestricted(rawURL) {
		return engine.Outcome{}, engine.ErrRestricted
	}
	v := engine.Pass
	switch {
	case strings.HasSuffix(rawURL, ".tk"):
		v = engine.Block
	case strings.HasPrefix(rawURL, "http://"):
		v = engine.Warn
	}
	return engine.Outcome{URL: rawURL, Verdict: v}, nil
}

func TestRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	urls := []string{
		"http://paypal-security.tk",
		"https://www.google.com",
		"http://example.com",
		"about:blank",
		"https://github.com",
	}

	var mu sync.Mutex
	var seen []string
	sum, err := Run(context.Background(), Config{
		Analyzer:    &fakeAnalyzer{},
		Concurrency: 2,
		OnResult: func(r Result) {
			mu.Lock()
			seen = append(seen, r.URL)
			mu.Unlock()
		},
	}, urls)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Blocked)
	assert.Equal(t, 1, sum.Warned)
	assert.Equal(t, 2, sum.Passed)
	assert.Equal(t, 1, sum.Skipped)
	for i, r := range sum.Results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, urls[i], r.URL)
	}
	assert.ErrorIs(t, sum.Results[3].Err, engine.ErrRestricted)
	assert.ElementsMatch(t, urls, seen)
}

func TestRunBoundsConcurrency(t *testing.T) {
	a := &fakeAnalyzer{delay: 10 * time.Millisecond}
	urls := make([]string, 20)
	for i := range urls {
		urls[i] = "https://example.com"
	}

	_, err := Run(context.Background(), Config{Analyzer: a, Concurrency: 3}, urls)
	require.NoError(t, err)
	assert.LessOrEqual(t, int(a.peak.Load()), 3)
}

func TestRunCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Config{Analyzer: &fakeAnalyzer{delay: time.Second}}, []string{"https://a.example", "https://b.example"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmpty(t *testing.T) {
	sum, err := Run(context.Background(), Config{Analyzer: &fakeAnalyzer{}}, nil)
	require.NoError(t, err)
	assert.Empty(t, sum.Results)

	_, err = Run(context.Background(), Config{}, []string{"x"})
	assert.Error(t, err)
}
