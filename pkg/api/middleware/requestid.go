package middleware

import (
	"context"
	"net"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/scaffold/internal/logger"
	"github.com/marmos91/scaffold/internal/telemetry"
	"github.com/marmos91/scaffold/pkg/ids"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// maxRequestIDLength bounds ids accepted from clients.
const maxRequestIDLength = 128

// RequestID assigns every request an id and a request-scoped log context.
//
// An inbound X-Request-Id is reused; otherwise a new ULID is generated. The
// id is echoed in the response header, stored where chi's GetReqID finds it
// and attached to every ...Ctx log line. Trace and span ids are picked up
// from the active span, so Tracing must run before this middleware.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = ids.ULID()
		}
		w.Header().Set(RequestIDHeader, id)

		lc := logger.NewLogContext(id, r.Method, r.URL.Path, clientIP(r))
		if traceID := telemetry.TraceID(r.Context()); traceID != "" {
			lc = lc.WithTrace(traceID, telemetry.SpanID(r.Context()))
		}

		ctx := context.WithValue(r.Context(), chimw.RequestIDKey, id)
		ctx = logger.WithContext(ctx, lc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// clientIP strips the port from RemoteAddr. After chi's RealIP, RemoteAddr
// may already be a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
