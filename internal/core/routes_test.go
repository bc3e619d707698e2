package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMountRoutesServesHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.V1RouteRegistrars = []V1RouteRegistrar{
		func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				JSON(w, r, http.StatusOK, APIResponse{Data: "pong"})
			})
		},
	}
	s.MountRoutes()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/ping")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/health")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The earlier request through the chain must be visible in the
	// Prometheus exposition.
	resp, err = http.Get(srv.URL + "/metrics")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestServerRequiresConfigAndLogger(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestMetricsRecordsRequests(t *testing.T) {
	m := NewMetrics("gritcast-test")
	m.RecordRequest(http.MethodGet, "/v1/routes", "200", 0)
	m.RecordPrediction("yes")
	m.RecordWeatherFetch("open_meteo", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "gritting_predictions_total")
	assert.Contains(t, body, "weather_fetches_total")
}
