package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sw33tLie/phishguard/internal/utils"
	"github.com/sw33tLie/phishguard/pkg/engine"
)

// ErrNoCredentials is returned by Start for a non-loopback address when no
// basic auth credentials are set.
var ErrNoCredentials = errors.New("refusing to serve on a non-loopback address without server.username/server.password")

type Server struct {
	Engine   *engine.Engine
	Username string
	Password string
	Log      logrus.FieldLogger
}

func New(e *engine.Engine, user, pass string) *Server {
	return &Server{
		Engine:   e,
		Username: user,
		Password: pass,
		Log:      utils.Log,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/message", s.basicAuth(s.handleMessage))
	mux.HandleFunc("POST /api/analyze", s.basicAuth(s.handleAnalyze))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))

	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	if !s.authEnabled() && !isLoopback(addr) {
		return fmt.Errorf("%w: %s", ErrNoCredentials, addr)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authEnabled() {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !equal(user, s.Username) || !equal(pass, s.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) authEnabled() bool {
	return s.Username != "" || s.Password != ""
}

// isLoopback reports whether addr only accepts local connections. An empty
// host listens on every interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
