package engine

import (
	"context"

	"github.com/sw33tLie/phishguard/pkg/remote"
	"github.com/sw33tLie/phishguard/pkg/scoring"
)

// Action names a protocol request.
type Action string

const (
	ActionAnalyzeURL          Action = "analyzeUrl"
	ActionAnalyzeURLWithAPI   Action = "analyzeUrlWithAPI"
	ActionUpdateAPIConfig     Action = "updateApiConfig"
	ActionGetAPIConfig        Action = "getApiConfig"
	ActionTestAPIConnection   Action = "testApiConnection"
	ActionReportPhishing      Action = "reportPhishing"
	ActionReportFalsePositive Action = "reportFalsePositive"
	ActionGetStats            Action = "getStats"
	ActionCheckLink           Action = "checkLink"
)

// Request is one message from a front-end.
type Request struct {
	Action Action              `json:"action"`
	URL    string              `json:"url,omitempty"`
	Config *remote.ConfigPatch `json:"config,omitempty"`
}

// Response carries the fields relevant to the request's action only.
type Response struct {
	RiskScore *scoring.Assessment `json:"riskScore,omitempty"`
	Success   *bool               `json:"success,omitempty"`
	Result    *remote.Result      `json:"result,omitempty"`
	Config    *remote.Config      `json:"config,omitempty"`
	Stats     *Stats              `json:"stats,omitempty"`
	Verdict   Verdict             `json:"verdict,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Dispatch handles req synchronously. Failures are reported inside the
// response.
func (e *Engine) Dispatch(ctx context.Context, req Request) Response {
	switch req.Action {
	case ActionAnalyzeURL:
		a := e.Score(req.URL)
		return Response{RiskScore: &a}

	case ActionAnalyzeURLWithAPI:
		return resultResponse(e.AnalyzeRemote(ctx, req.URL))

	case ActionUpdateAPIConfig:
		var p remote.ConfigPatch
		if req.Config != nil {
			p = *req.Config
		}
		_, err := e.UpdateConfig(ctx, p)
		return statusResponse(err)

	case ActionGetAPIConfig:
		cfg := e.Config()
		return Response{Config: &cfg}

	case ActionTestAPIConnection:
		return resultResponse(e.TestConnection(ctx))

	case ActionReportPhishing:
		return statusResponse(e.ReportPhishing(ctx, req.URL))

	case ActionReportFalsePositive:
		return statusResponse(e.ReportFalsePositive(ctx, req.URL))

	case ActionGetStats:
		s := e.Stats()
		return Response{Stats: &s}

	case ActionCheckLink:
		lc, err := e.CheckLink(req.URL)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{RiskScore: &lc.Assessment, Verdict: lc.Verdict}
	}
	return Response{Error: ErrUnknownAction.Error()}
}

// Submit handles req in the background. The channel receives exactly one
// response and is then closed.
func (e *Engine) Submit(ctx context.Context, req Request) <-chan Response {
	ch := make(chan Response, 1)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		ch <- Response{Error: ErrClosed.Error()}
		close(ch)
		return ch
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		ch <- e.Dispatch(ctx, req)
		close(ch)
	}()
	return ch
}

func statusResponse(err error) Response {
	ok := err == nil
	r := Response{Success: &ok}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func resultResponse(res remote.Result, err error) Response {
	if err != nil {
		return statusResponse(err)
	}
	ok := true
	return Response{Success: &ok, Result: &res}
}
