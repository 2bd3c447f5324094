package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/phishguard/pkg/engine"
	"github.com/sw33tLie/phishguard/pkg/scoring"
)

type nopNotifier struct{}

func (nopNotifier) Block(string, string)                {}
func (nopNotifier) Display(string, scoring.Assessment) {}

func newTestServer(t *testing.T, user, pass string) *httptest.Server {
	t.Helper()
	srv, _ := newTestServerWithEngine(t, user, pass)
	return srv
}

func newTestServerWithEngine(t *testing.T, user, pass string) (*httptest.Server, *engine.Engine) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	e, err := engine.New(engine.Options{Notifier: nopNotifier{}, Log: log})
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { e.Close() })

	s := New(e, user, pass)
	s.Log = log
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, e
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestMessage(t *testing.T) {
	srv := newTestServer(t, "", "")

	resp, body := post(t, srv.URL+"/api/message", `{"action":"getStats"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"stats":{"phishingUrls":10,"legitimateUrls":0,"blockedUrls":0,"apiEnabled":false}}`, body)

	resp, body = post(t, srv.URL+"/api/message", `{"action":"nope"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unknown action"}`, body)

	resp, _ = post(t, srv.URL+"/api/message", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t, "", "")

	resp, body := post(t, srv.URL+"/api/analyze", `{"url":"http://paypal-security.tk"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out engine.Outcome
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, engine.Block, out.Verdict)
	assert.Equal(t, engine.ReasonKnownPhishing, out.Reason)

	resp, _ = post(t, srv.URL+"/api/analyze", `{"url":"chrome://settings"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/api/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, "", "")

	post(t, srv.URL+"/api/analyze", `{"url":"http://paypal-security.tk"}`)

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var stats engine.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Blocked)
	assert.Equal(t, 10, stats.Phishing)
}

func TestBasicAuth(t *testing.T) {
	srv := newTestServer(t, "admin", "hunter2")

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/stats", nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.SetBasicAuth("admin", "hunter2")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, "", "")
	resp, err := http.Get(srv.URL + "/api/message")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMessageMasksAPIKey(t *testing.T) {
	srv, e := newTestServerWithEngine(t, "", "")

	_, body := post(t, srv.URL+"/api/message",
		`{"action":"updateApiConfig","config":{"enabled":true,"endpoint":"https://api.example.com","apiKey":"sk-secret"}}`)
	assert.JSONEq(t, `{"success":true}`, body)

	_, body = post(t, srv.URL+"/api/message", `{"action":"getApiConfig"}`)
	assert.NotContains(t, body, "sk-secret")
	assert.JSONEq(t, `{"config":{"enabled":true,"endpoint":"https://api.example.com","apiKey":"********","timeout":5000}}`, body)

	// Sending the masked key back leaves the stored key alone.
	_, body = post(t, srv.URL+"/api/message", `{"action":"updateApiConfig","config":{"apiKey":"********","timeout":2000}}`)
	assert.JSONEq(t, `{"success":true}`, body)
	assert.Equal(t, "sk-secret", e.Config().APIKey)
	assert.Equal(t, 2*time.Second, e.Config().Timeout)
}

func TestMessageRejectsUnsafeEndpoint(t *testing.T) {
	srv, e := newTestServerWithEngine(t, "", "")

	for _, endpoint := range []string{
		"http://169.254.169.254/latest",
		"http://0.0.0.0:9000/",
		"ftp://api.example.com",
		"not a url",
	} {
		_, body := post(t, srv.URL+"/api/message",
			`{"action":"updateApiConfig","config":{"enabled":true,"endpoint":"`+endpoint+`"}}`)
		var resp engine.Response
		require.NoError(t, json.Unmarshal([]byte(body), &resp))
		require.NotNil(t, resp.Success, endpoint)
		assert.False(t, *resp.Success, endpoint)
		assert.NotEmpty(t, resp.Error, endpoint)
	}
	assert.Empty(t, e.Config().Endpoint)
	assert.False(t, e.Config().Enabled)
}

func TestStartRefusesPublicAddressWithoutAuth(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := &Server{Log: log}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Start(ctx, ":0")
	assert.True(t, errors.Is(err, ErrNoCredentials), "got %v", err)

	err = s.Start(ctx, "0.0.0.0:0")
	assert.True(t, errors.Is(err, ErrNoCredentials), "got %v", err)
}

func TestIsLoopback(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1:8080": true,
		"localhost:8080": true,
		"[::1]:8080":     true,
		":8080":          false,
		"0.0.0.0:8080":   false,
		"10.0.0.5:8080":  false,
		"example.com:80": false,
		"127.0.0.1":      false,
	}
	for addr, want := range tests {
		assert.Equal(t, want, isLoopback(addr), addr)
	}
}
