package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/sw33tLie/phishguard/pkg/engine"
	"github.com/sw33tLie/phishguard/pkg/remote"
)

const maxBodyBytes = 64 << 10

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Action == engine.ActionUpdateAPIConfig && req.Config != nil {
		p := *req.Config
		// A masked key echoed back from getApiConfig keeps the stored one.
		if p.APIKey != nil && *p.APIKey == remote.RedactedKey {
			p.APIKey = nil
		}
		if err := checkPatch(s.Engine.Config().Apply(p)); err != nil {
			s.Log.WithError(err).Warn("Rejected remote configuration update")
			ok := false
			writeJSON(w, http.StatusOK, engine.Response{Success: &ok, Error: err.Error()})
			return
		}
		req.Config = &p
	}

	// Protocol errors such as an unknown action are part of the response.
	resp := s.Engine.Dispatch(r.Context(), req)
	if resp.Config != nil {
		cfg := resp.Config.Redacted()
		resp.Config = &cfg
	}
	writeJSON(w, http.StatusOK, resp)
}

// checkPatch validates a configuration received over HTTP. Endpoints on
// link-local or unspecified addresses, such as cloud metadata services, are
// refused.
func checkPatch(cfg remote.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Endpoint == "" {
		return nil
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return err
	}
	ip := net.ParseIP(u.Hostname())
	if ip != nil && (ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()) {
		return fmt.Errorf("remote endpoint %q is not allowed", cfg.Endpoint)
	}
	return nil
}

type AnalyzeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, engine.Response{Error: engine.ErrMissingURL.Error()})
		return
	}

	out, err := s.Engine.Analyze(r.Context(), req.URL)
	if errors.Is(err, engine.ErrRestricted) {
		writeJSON(w, http.StatusUnprocessableEntity, engine.Response{Error: err.Error()})
		return
	}
	if err != nil {
		s.Log.WithError(err).Error("Analysis failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Stats())
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
