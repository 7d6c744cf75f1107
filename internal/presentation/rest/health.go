package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const serviceName = "credit-engine"

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// HealthHandler serves liveness, readiness and metrics over HTTP.
type HealthHandler struct {
	logger  *slog.Logger
	checks  map[string]Check
	metrics http.Handler
	timeout time.Duration
}

// NewHealthHandler creates a health check HTTP handler. checks are run by
// the readiness probe; metrics may be nil.
func NewHealthHandler(logger *slog.Logger, checks map[string]Check, metrics http.Handler) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		checks:  checks,
		metrics: metrics,
		timeout: 2 * time.Second,
	}
}

// RegisterRoutes attaches health-check routes to the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.liveness)
	mux.HandleFunc("GET /readyz", h.readiness)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	failures := make(map[string]string)
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unavailable",
			"service": serviceName,
			"checks":  failures,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"service": serviceName,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}
