// Package server exposes the kiosk over HTTP: a WebSocket session endpoint
// driving the ordering conversation, Prometheus metrics, and liveness and
// readiness probes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/giggslabs/foodchain/internal/app"
)

const (
	// shutdownTimeout bounds graceful shutdown once the run context is
	// cancelled.
	shutdownTimeout = 10 * time.Second

	// checkTimeout bounds a single readiness check.
	checkTimeout = 5 * time.Second
)

// Checker is a named readiness check. Check returns nil when the dependency
// is healthy; it must respect context cancellation.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config carries the server's dependencies.
type Config struct {
	// ListenAddr is the TCP address to listen on (e.g., ":8080").
	ListenAddr string

	// Kiosk handles the ordering conversations.
	Kiosk *app.Kiosk

	// Checkers are evaluated by /readyz, in order.
	Checkers []Checker

	Logger *slog.Logger
}

// Server is the kiosk's HTTP front end.
type Server struct {
	addr     string
	kiosk    *app.Kiosk
	checkers []Checker
	log      *slog.Logger
}

// New builds a Server from cfg.
func New(cfg Config) (*Server, error) {
	if cfg.Kiosk == nil {
		return nil, errors.New("server: kiosk is required")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		addr:     cfg.ListenAddr,
		kiosk:    cfg.Kiosk,
		checkers: cfg.Checkers,
		log:      cfg.Logger,
	}, nil
}

// Handler returns the server's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /readyz", s.readyz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /session", s.session)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		// The session endpoint holds connections open for the whole
		// conversation; only bound the handshake reads.
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// healthz is a liveness probe; a process that can serve HTTP is alive.
func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports 200 only when every registered checker passes.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.checkers))
	status := http.StatusOK
	body := map[string]any{"status": "ok"}

	for _, c := range s.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			body["status"] = "fail"
			status = http.StatusServiceUnavailable
		} else {
			checks[c.Name] = "ok"
		}
	}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	writeJSON(w, status, body)
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
