package api

import (
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/scaffold/internal/logger"
	"github.com/marmos91/scaffold/internal/telemetry"
	"github.com/marmos91/scaffold/pkg/api/handlers"
	"github.com/marmos91/scaffold/pkg/api/middleware"
)

// newRouter creates the chi router with all middleware and built-in routes.
//
// Middleware stack, outermost first:
//   - Real IP extraction
//   - Tracing spans (when telemetry is enabled)
//   - Request ID and request-scoped log context
//   - Security headers
//   - Request logging
//   - Request metrics (when configured)
//   - Panic recovery, classified as an internal failure
//   - Body size limit
//   - Request timeout
func newRouter(s *Server) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	if telemetry.IsEnabled() {
		r.Use(middleware.Tracing(s.config.ServiceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.RequestLogger)
	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}
	r.Use(recoverer)
	r.Use(limitBody(s.config.BodyLimit))
	r.Use(chimw.Timeout(s.config.RequestTimeout))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	health := handlers.NewHealthHandler(s.health, s.config.ServiceName)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// recoverer turns a handler panic into a 500 envelope.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.DebugCtx(r.Context(), "Recovered handler panic", "stack", string(debug.Stack()))
			HandleError(w, r, &panicError{value: rec})
		}()

		next.ServeHTTP(w, r)
	})
}

// limitBody caps request bodies at n bytes; reading past it fails with
// *http.MaxBytesError.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
