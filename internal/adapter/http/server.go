package http

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/lightning-alert-service/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AlertSource provides the current alert sequence for the read surface.
type AlertSource interface {
	Records() []domain.AlertRecord
}

// Server exposes health, readiness, and metrics endpoints plus the read-only
// alert and operational-log accessors the UI layer consumes.
type Server struct {
	httpServer *http.Server
	alerts     AlertSource
	logPath    string
	logger     *slog.Logger
}

// NewServer creates the HTTP server. logPath may be empty when
// logging-to-file is disabled; /api/log then returns 404.
func NewServer(addr string, ready ReadinessChecker, alerts AlertSource, logPath string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		alerts:  alerts,
		logPath: logPath,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	mux.HandleFunc("GET /api/log", s.handleLog)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleAlerts serves the full stored alert sequence in append order.
func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	records := s.alerts.Records()
	if records == nil {
		records = []domain.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleLog serves the operational log file when logging-to-file is enabled.
func (s *Server) handleLog(w http.ResponseWriter, _ *http.Request) {
	if s.logPath == "" {
		http.Error(w, "log file not configured", http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(s.logPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "log file not found", http.StatusNotFound)
			return
		}
		s.logger.Error("read log file", "path", s.logPath, "error", err)
		http.Error(w, "failed to read log file", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // best-effort log dump
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
