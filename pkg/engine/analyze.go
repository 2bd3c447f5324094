package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sw33tLie/phishguard/pkg/cache"
	"github.com/sw33tLie/phishguard/pkg/features"
	"github.com/sw33tLie/phishguard/pkg/remote"
	"github.com/sw33tLie/phishguard/pkg/scoring"
	"github.com/sw33tLie/phishguard/pkg/storage"
)

// Verdict is the action taken for a URL.
type Verdict string

const (
	Block Verdict = "block"
	Warn  Verdict = "warn"
	Pass  Verdict = "pass"
)

const (
	ReasonKnownPhishing = "Known phishing URL"
	reasonHighRisk      = "High risk detected: "
)

var restrictedPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"moz-extension://",
	"edge://",
	"about:",
	"data:",
	"file://",
	"javascript:",
	"blob:",
}

// IsRestricted reports whether url uses a browser-internal or opaque scheme
// that is never analyzed.
func IsRestricted(url string) bool {
	for _, p := range restrictedPrefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}

// Outcome is the result of one analysis. Assessment is nil when the decision
// came from the cache.
type Outcome struct {
	ID          string              `json:"id"`
	URL         string              `json:"url"`
	Verdict     Verdict             `json:"verdict"`
	Reason      string              `json:"reason,omitempty"`
	Assessment  *scoring.Assessment `json:"assessment,omitempty"`
	FromCache   bool                `json:"fromCache"`
	RemoteError string              `json:"remoteError,omitempty"`
}

// Analyze classifies rawURL: known URLs are answered from the cache, then
// the remote classifier is tried when configured, then the local scorer.
// Remote failures never surface; the only error is ErrRestricted.
//
// Concurrent calls for the same URL share one classification. Each caller's
// Notifier.Display is still invoked.
func (e *Engine) Analyze(ctx context.Context, rawURL string) (Outcome, error) {
	if IsRestricted(rawURL) {
		e.log.WithField("url", rawURL).Debug("Skipping analysis for restricted URL")
		return Outcome{}, ErrRestricted
	}

	v, _, shared := e.group.Do(rawURL, func() (interface{}, error) {
		// The remote call is bounded by its own timeout, and the decision
		// must be recorded even if the leading caller goes away.
		return e.analyze(context.WithoutCancel(ctx), rawURL), nil
	})
	out := v.(Outcome)
	if shared {
		e.log.WithFields(logrus.Fields{"analysis_id": out.ID, "url": rawURL}).Debug("Joined in-flight analysis")
	}

	if out.Assessment != nil {
		e.notifier.Display(out.URL, *out.Assessment)
	}
	return out, nil
}

func (e *Engine) analyze(ctx context.Context, rawURL string) Outcome {
	out := Outcome{ID: uuid.NewString(), URL: rawURL}
	log := e.log.WithFields(logrus.Fields{"analysis_id": out.ID, "url": rawURL})
	if u, err := features.Parse(rawURL); err == nil && u.Domain != "" {
		log = log.WithField("domain", u.Domain)
	}

	if e.cache.Contains(rawURL, cache.Phishing) {
		out.Verdict = Block
		out.Reason = ReasonKnownPhishing
		out.FromCache = true
		e.block(ctx, log, rawURL, out.Reason, nil)
		return out
	}
	if e.cache.Contains(rawURL, cache.Legitimate) {
		out.Verdict = Pass
		out.FromCache = true
		log.Debug("Known legitimate URL")
		return out
	}

	var (
		a        scoring.Assessment
		phishing bool
		scored   bool
	)
	if cfg := e.Config(); cfg.Active() {
		res, err := e.client.Classify(ctx, rawURL, cfg)
		if err != nil {
			out.RemoteError = remote.Kind(err)
			log.WithError(err).WithField("kind", out.RemoteError).Warn("Remote analysis failed, falling back to local analysis")
		} else {
			// The service's verdict is overridden by a high score.
			a, scored = res.Assessment(), true
			phishing = res.IsPhishing || res.RiskScore > e.thresholds.RemoteBlock
		}
	}
	if !scored {
		a = e.scorer.Score(rawURL)
		phishing = a.Score > e.thresholds.Block
	}
	out.Assessment = &a

	log = log.WithFields(logrus.Fields{"score": a.Score, "source": a.Source})

	var events []storage.Event
	switch {
	case phishing:
		out.Verdict = Block
		out.Reason = reasonHighRisk + strings.Join(a.Reasons, ", ")
		if e.cache.Add(rawURL, cache.Phishing) {
			events = append(events, newEvent(rawURL, cache.Phishing, sourceAnalysis))
		}
		e.block(ctx, log, rawURL, out.Reason, events)
		return out
	case a.Score < e.thresholds.Legitimate:
		out.Verdict = Pass
		// A URL reported or blocked meanwhile must not become legitimate.
		if e.cache.AddUnless(rawURL, cache.Legitimate, cache.Phishing) {
			events = append(events, newEvent(rawURL, cache.Legitimate, sourceAnalysis))
		}
	default:
		out.Verdict = Warn
	}

	e.persistLogged(ctx, log, events)
	log.WithField("verdict", out.Verdict).Debug("Analysis complete")
	return out
}

func (e *Engine) block(ctx context.Context, log logrus.FieldLogger, url, reason string, events []storage.Event) {
	if e.cache.Add(url, cache.Blocked) {
		events = append(events, newEvent(url, cache.Blocked, sourceAnalysis))
	}
	e.persistLogged(ctx, log, events)
	log.WithField("reason", reason).Info("Blocking URL")
	e.notifier.Block(url, reason)
}

// LinkCheck is the verdict for a link or form target. Warn means the user
// should confirm before following it.
type LinkCheck struct {
	URL        string             `json:"url"`
	Verdict    Verdict            `json:"verdict"`
	Assessment scoring.Assessment `json:"assessment"`
}

// CheckLink scores rawURL locally against the link threshold. It does not
// touch the cache.
func (e *Engine) CheckLink(rawURL string) (LinkCheck, error) {
	if IsRestricted(rawURL) {
		return LinkCheck{}, ErrRestricted
	}
	a := e.scorer.Score(rawURL)
	lc := LinkCheck{URL: rawURL, Verdict: Pass, Assessment: a}
	if a.Score > e.thresholds.Link {
		lc.Verdict = Warn
	}
	return lc, nil
}
