package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/sw33tLie/phishguard/internal/utils"
	"github.com/sw33tLie/phishguard/pkg/scoring"
)

const (
	// DefaultPhishingThreshold decides isPhishing when the service omits it.
	DefaultPhishingThreshold = 0.7

	placeholderReason = "API analysis result"
	maxResponseBytes  = 1 << 20
	userAgent         = "phishguard"
)

// Result is the normalized answer of the remote classifier.
type Result struct {
	IsPhishing bool     `json:"isPhishing"`
	RiskScore  float64  `json:"riskScore"`
	Reasons    []string `json:"reasons"`
}

// Assessment converts r to a scoring assessment.
func (r Result) Assessment() scoring.Assessment {
	return scoring.Assessment{Score: r.RiskScore, Reasons: r.Reasons, Source: scoring.Remote}
}

type request struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// Client issues one classification request per call. It never retries.
type Client struct {
	http *retryablehttp.Client
	now  func() time.Time

	// PhishingThreshold is the score above which a response without an
	// explicit verdict counts as phishing.
	PhishingThreshold float64
}

// NewClient creates a client. A nil httpClient uses a pooled default; a nil
// logger logs to utils.Log.
func NewClient(httpClient *http.Client, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = utils.Log
	}
	rc := retryablehttp.NewClient()
	if httpClient != nil {
		rc.HTTPClient = httpClient
	}
	rc.RetryMax = 0
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		return false, nil
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{logger}

	return &Client{
		http:              rc,
		now:               time.Now,
		PhishingThreshold: DefaultPhishingThreshold,
	}
}

// Classify sends rawURL to the configured endpoint and waits at most
// cfg.Timeout for the answer. When the deadline expires the request is
// cancelled and ErrTimeout is returned.
func (c *Client) Classify(ctx context.Context, rawURL string, cfg Config) (Result, error) {
	if !cfg.Active() {
		return Result{}, ErrDisabled
	}

	timeout := cfg.EffectiveTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(request{URL: rawURL, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return Result{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, c.wrap(ctx, err, timeout)
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, c.wrap(ctx, err, timeout)
	}
	return c.parse(data)
}

func (c *Client) wrap(ctx context.Context, err error, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// parse reads the loosely specified response. Every field is optional:
// riskScore falls back to confidence, then to 0; reasons fall back to a
// placeholder; isPhishing falls back to the score threshold.
func (c *Client) parse(data []byte) (Result, error) {
	if !gjson.ValidBytes(data) {
		return Result{}, ErrDecode
	}
	doc := gjson.ParseBytes(data)

	score := doc.Get("riskScore").Float()
	if score == 0 {
		score = doc.Get("confidence").Float()
	}
	score = scoring.Clamp(score)

	var reasons []string
	doc.Get("reasons").ForEach(func(_, v gjson.Result) bool {
		if s := v.String(); s != "" {
			reasons = append(reasons, s)
		}
		return true
	})
	if len(reasons) == 0 {
		reasons = []string{placeholderReason}
	}

	phishing := score > c.PhishingThreshold
	if v := doc.Get("isPhishing"); v.Exists() {
		phishing = v.Bool()
	}

	return Result{
		IsPhishing: phishing,
		RiskScore:  score,
		Reasons:    reasons,
	}, nil
}
