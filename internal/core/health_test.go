package core

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

func performHealthCheck(t *testing.T, s *Server) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHandleHealthNoProbes(t *testing.T) {
	s := newTestServer(t)

	rec, resp := performHealthCheck(t, s)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp.Status)
}

func TestHandleHealthAllHealthy(t *testing.T) {
	s := newTestServer(t)
	s.HealthProbes = []HealthProbe{
		NewProbe("model_bundle", func(ctx context.Context) error { return nil }),
		NewProbe("route_data", func(ctx context.Context) error { return nil }),
	}

	rec, resp := performHealthCheck(t, s)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["model_bundle"].Status)
	assert.Equal(t, "healthy", resp.Components["route_data"].Status)
}

func TestHandleHealthFailingProbe(t *testing.T) {
	s := newTestServer(t)
	s.HealthProbes = []HealthProbe{
		NewProbe("model_bundle", func(ctx context.Context) error { return nil }),
		NewProbe("route_data", func(ctx context.Context) error { return errors.New("sqlite: database is locked") }),
	}

	rec, resp := performHealthCheck(t, s)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["model_bundle"].Status)
	assert.Equal(t, "unhealthy", resp.Components["route_data"].Status)
	assert.Contains(t, resp.Components["route_data"].Message, "locked")
}

func TestHandleHealthPanickingProbe(t *testing.T) {
	s := newTestServer(t)
	s.HealthProbes = []HealthProbe{
		NewProbe("model_bundle", func(ctx context.Context) error { panic("nil bundle") }),
	}

	rec, resp := performHealthCheck(t, s)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, resp.Components["model_bundle"].Message, "panicked")
}
