// Package api serves the read-only status endpoints for dashboards and
// explorers. All handlers are thin views over the engine's status feed;
// nothing here can mutate the lattice.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nvandessel/phasebridge/internal/engine"
	"github.com/nvandessel/phasebridge/internal/monitor"
	"github.com/nvandessel/phasebridge/internal/ratelimit"
)

// Server exposes engine status over HTTP with per-client rate limits.
type Server struct {
	feed     *engine.Feed
	timing   *monitor.TimingMonitor
	limiters ratelimit.RouteLimiters
	logger   *slog.Logger
}

// NewServer creates a server reading from feed. The timing monitor is
// optional; without it the system health endpoint reports empty stats.
func NewServer(feed *engine.Feed, timing *monitor.TimingMonitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		feed:     feed,
		timing:   timing,
		limiters: ratelimit.NewRouteLimiters(),
		logger:   logger,
	}
}

// Handler returns the route table with rate limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.limited("/api/status", s.handleStatus))
	mux.HandleFunc("GET /api/evolution", s.limited("/api/evolution", s.handleEvolution))
	mux.HandleFunc("GET /api/phase_history", s.limited("/api/phase_history", s.handlePhaseHistory))
	mux.HandleFunc("GET /api/system_health", s.limited("/api/system_health", s.handleSystemHealth))
	return mux
}

// Serve runs the HTTP server on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("status API listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) limited(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ratelimit.CheckLimit(s.limiters, route, clientKey(r)); err != nil {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.Status())
}

func (s *Server) handleEvolution(w http.ResponseWriter, r *http.Request) {
	st := s.feed.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"evolution_count":  st.EvolutionCount,
		"consensus_status": st.ConsensusStatus,
		"phase_variance":   st.PhaseVariance,
	})
}

func (s *Server) handlePhaseHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.History())
}

func (s *Server) handleSystemHealth(w http.ResponseWriter, r *http.Request) {
	stats := monitor.TimingStats{}
	if s.timing != nil {
		stats = s.timing.Stats()
	}

	health := "nominal"
	if stats.Samples > 0 && (stats.Jitter > 0.01 || stats.Margin < 0.2) {
		health = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"timing_stats":     stats,
		"evolution_health": health,
		"last_update_ns":   s.feed.Status().LastUpdate,
	})
}

// clientKey extracts the rate-limit key for a request: the client IP
// without the ephemeral port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to encode response", "error", err)
	}
}
