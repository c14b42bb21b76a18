package handlers

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds the database ping of a readiness check.
const readinessTimeout = 5 * time.Second

// HealthChecker reports whether a backing dependency is reachable.
// store.Client implements it.
type HealthChecker interface {
	Healthcheck(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness check: Is the server process running?
//   - Readiness check: Can the server reach its database?
type HealthHandler struct {
	checker HealthChecker
	service string
}

// NewHealthHandler creates a new health handler.
//
// checker may be nil, in which case readiness always reports unhealthy.
func NewHealthHandler(checker HealthChecker, service string) *HealthHandler {
	return &HealthHandler{checker: checker, service: service}
}

// Liveness handles GET /health. It succeeds as long as the server responds.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": h.service,
	}))
}

// Readiness handles GET /health/ready.
//
// Returns 200 OK when the database answers a ping within 5 seconds, 503
// Service Unavailable otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("database not configured"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	start := time.Now()
	if err := h.checker.Healthcheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service":  h.service,
		"database": "reachable",
		"latency":  time.Since(start).String(),
	}))
}
