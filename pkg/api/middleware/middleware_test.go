package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/scaffold/internal/logger"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	var lc *logger.LogContext
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		lc = logger.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/items?x=1", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Len(t, seen, 26)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	require.NotNil(t, lc)
	assert.Equal(t, seen, lc.RequestID)
	assert.Equal(t, http.MethodGet, lc.Method)
	assert.Equal(t, "/items", lc.Path)
	assert.Equal(t, "10.0.0.7", lc.ClientIP)
	assert.Empty(t, lc.TraceID)
}

func TestRequestIDReusesInbound(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, string(bytes.Repeat([]byte("a"), maxRequestIDLength+1)))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 26, "oversized ids are replaced")
}

func TestRequestIDsAreUnique(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		id := w.Header().Get(RequestIDHeader)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, level, "json", false)
	t.Cleanup(func() {
		logger.InitWithWriter(&bytes.Buffer{}, "info", "json", false)
	})
	return &buf
}

func TestRequestLoggerRedactsHeaders(t *testing.T) {
	buf := captureLogs(t, "debug")

	h := RequestID(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "cookie-secret"})
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/items", nil)
	req.Header.Set("Authorization", "Bearer token-secret")
	req.Header.Set("Cookie", "session=cookie-secret")
	req.Header.Set(RequestIDHeader, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"msg":"API request completed"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"status":202`)
	assert.Contains(t, out, `"bytes":2`)
	assert.Contains(t, out, logger.Redacted)
	assert.NotContains(t, out, "token-secret")
	assert.NotContains(t, out, "cookie-secret")
}

func TestRequestLoggerQuietPaths(t *testing.T) {
	buf := captureLogs(t, "info")

	h := RequestID(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Empty(t, buf.String(), "health requests are logged at debug")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthcheck-report", nil))
	assert.Contains(t, buf.String(), `"status":200`)
}

type recordedRequest struct {
	method, route string
	status        int
}

type fakeHTTPMetrics struct {
	mu       sync.Mutex
	inFlight int
	requests []recordedRequest
}

func (f *fakeHTTPMetrics) RecordRequestStart(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight++
}

func (f *fakeHTTPMetrics) RecordRequestEnd(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
}

func (f *fakeHTTPMetrics) RecordRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{method, route, status})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := &fakeHTTPMetrics{}

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/99", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other", nil))

	assert.Equal(t, 0, m.inFlight)
	assert.Equal(t, []recordedRequest{
		{http.MethodGet, "/items/{id}", http.StatusTeapot},
		{http.MethodGet, unmatchedRoute, http.StatusNotFound},
	}, m.requests)
}

func TestMetricsNilIsPassThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := Metrics(nil)(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecureHeaders(t *testing.T) {
	h := SecureHeaders()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "same-origin", w.Header().Get("Cross-Origin-Opener-Policy"))
	assert.Equal(t, "off", w.Header().Get("X-DNS-Prefetch-Control"))
	assert.Equal(t, "max-age=15552000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}
