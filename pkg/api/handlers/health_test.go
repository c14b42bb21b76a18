package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	err      error
	deadline bool
}

func (f *fakeChecker) Healthcheck(ctx context.Context) error {
	_, f.deadline = ctx.Deadline()
	return f.err
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil, "scaffold")
	w := httptest.NewRecorder()

	handler.Liveness(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.False(t, resp.Timestamp.IsZero())

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "expected Data to be a map, got %T", resp.Data)
	assert.Equal(t, "scaffold", data["service"])
}

func TestReadiness_NoChecker_Returns503(t *testing.T) {
	handler := NewHealthHandler(nil, "scaffold")
	w := httptest.NewRecorder()

	handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "database not configured", resp.Error)
}

func TestReadiness_DatabaseDown_Returns503(t *testing.T) {
	checker := &fakeChecker{err: errors.New("connection refused")}
	handler := NewHealthHandler(checker, "scaffold")
	w := httptest.NewRecorder()

	handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "connection refused", resp.Error)
	assert.True(t, checker.deadline, "ping must run under a deadline")
}

func TestReadiness_DatabaseUp_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(&fakeChecker{}, "scaffold")
	w := httptest.NewRecorder()

	handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "healthy", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "reachable", data["database"])
	assert.NotEmpty(t, data["latency"])
}
