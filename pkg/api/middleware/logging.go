package middleware

import (
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/scaffold/internal/logger"
)

// quietPrefixes are health and scrape paths logged at debug level only.
var quietPrefixes = []string{"/health", "/metrics"}

// RequestLogger logs every completed request with its status, size, duration
// and headers. Sensitive headers are redacted by the logger.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lc := logger.FromContext(ctx)

		logger.DebugCtx(ctx, "API request started",
			"remote_addr", r.RemoteAddr,
			logger.Headers(logger.KeyHeaders, r.Header),
		)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		level := logger.LevelInfo
		if isQuiet(r.URL.Path) {
			level = logger.LevelDebug
		}

		var durationMs float64
		if lc != nil {
			durationMs = lc.DurationMs()
		}

		logger.LogCtx(ctx, level, "API request completed",
			logger.Status(status),
			logger.Bytes(ww.BytesWritten()),
			logger.DurationMs(durationMs),
			logger.Headers("response_headers", ww.Header()),
		)
	})
}

func isQuiet(path string) bool {
	for _, prefix := range quietPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
