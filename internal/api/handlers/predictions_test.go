package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gritcast/internal/core"
	"gritcast/internal/types"
)

// --- Mocks ---

type mockPredictor struct {
	predictFn func(routeID string, weather types.WeatherObservation) (types.PredictionResult, error)
	lastObs   types.WeatherObservation
}

func (m *mockPredictor) Predict(routeID string, weather types.WeatherObservation) (types.PredictionResult, error) {
	m.lastObs = weather
	if m.predictFn != nil {
		return m.predictFn(routeID, weather)
	}
	return types.PredictionResult{
		RouteID:     routeID,
		RouteName:   "Town Centre Loop",
		Decision:    types.DecisionGrit,
		Confidence:  0.91,
		IceRisk:     types.RiskHigh,
		SnowRisk:    types.RiskMedium,
		GeneratedAt: time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC),
	}, nil
}

type mockWeather struct {
	obs     types.WeatherObservation
	source  types.WeatherSource
	err     error
	calls   int
	lastLat float64
	lastLon float64
}

func (m *mockWeather) Fetch(_ context.Context, lat, lon float64) (types.WeatherObservation, types.WeatherSource, error) {
	m.calls++
	m.lastLat, m.lastLon = lat, lon
	return m.obs, m.source, m.err
}

type mockRouteLookup map[string]types.Route

func (m mockRouteLookup) Lookup(routeID string) (types.Route, bool) {
	rt, ok := m[routeID]
	return rt, ok
}

type mockMetrics struct {
	predictions []string
	fetches     []string
}

func (m *mockMetrics) RecordPrediction(decision string) {
	m.predictions = append(m.predictions, decision)
}

func (m *mockMetrics) RecordWeatherFetch(source, outcome string) {
	m.fetches = append(m.fetches, source+":"+outcome)
}

// --- Fixtures ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func coldObservation() types.WeatherObservation {
	return types.WeatherObservation{
		TemperatureC:         -4.5,
		FeelsLikeC:           -9.0,
		HumidityPct:          85,
		WindSpeedKmh:         25,
		PrecipitationType:    "snow",
		PrecipitationProbPct: 90,
		RoadSurfaceTempC:     -5.5,
		ForecastMinTempC:     -7.0,
	}
}

func predictBody(t *testing.T) []byte {
	t.Helper()
	obs := coldObservation()
	body, err := json.Marshal(map[string]any{
		"route_id": "R001",
		"weather":  obs,
	})
	require.NoError(t, err)
	return body
}

func newPredictionRouter(h *PredictionHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return r
}

func defaultRoutes() mockRouteLookup {
	return mockRouteLookup{
		"R001": {ID: "R001", Name: "Town Centre Loop", Priority: 1, LengthKm: 5.2, Latitude: 53.48, Longitude: -2.24},
		"R003": {ID: "R003", Name: "Rural Lane", Priority: 2, LengthKm: 3.0},
	}
}

// --- POST /v1/predictions ---

func TestHandlePredict(t *testing.T) {
	pred := &mockPredictor{}
	metrics := &mockMetrics{}
	h := NewPredictionHandler(pred, nil, defaultRoutes(), core.NewValidator(), metrics, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", bytes.NewReader(predictBody(t)))
	newPredictionRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data types.PredictionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "R001", resp.Data.RouteID)
	assert.Equal(t, types.DecisionGrit, resp.Data.Decision)

	assert.Equal(t, coldObservation(), pred.lastObs)
	assert.Equal(t, []string{"yes"}, metrics.predictions)
}

func TestHandlePredictMissingWeatherField(t *testing.T) {
	h := NewPredictionHandler(&mockPredictor{}, nil, defaultRoutes(), core.NewValidator(), nil, testLogger())

	body := []byte(`{"route_id":"R001","weather":{"temperature_c":-4.5}}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(types.ErrCodeValidationMissingField))
	assert.Contains(t, rec.Body.String(), "road_surface_temp_c")
}

func TestHandlePredictUnknownField(t *testing.T) {
	h := NewPredictionHandler(&mockPredictor{}, nil, defaultRoutes(), core.NewValidator(), nil, testLogger())

	body := []byte(`{"route_id":"R001","bogus":true}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_invalid_json")
}

func TestHandlePredictImplausibleWeather(t *testing.T) {
	h := NewPredictionHandler(&mockPredictor{}, nil, defaultRoutes(), core.NewValidator(), nil, testLogger())

	obs := coldObservation()
	obs.TemperatureC = 99
	body, err := json.Marshal(map[string]any{"route_id": "R001", "weather": obs})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(types.ErrCodeValidationInvalidWeather))
}

func TestHandlePredictUnknownRoute(t *testing.T) {
	pred := &mockPredictor{
		predictFn: func(routeID string, _ types.WeatherObservation) (types.PredictionResult, error) {
			return types.PredictionResult{}, types.ErrRouteNotFound(routeID)
		},
	}
	h := NewPredictionHandler(pred, nil, defaultRoutes(), core.NewValidator(), nil, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", bytes.NewReader(predictBody(t)))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), string(types.ErrCodeNotFoundRoute))
}

func TestHandlePredictModelsNotLoaded(t *testing.T) {
	pred := &mockPredictor{
		predictFn: func(string, types.WeatherObservation) (types.PredictionResult, error) {
			return types.PredictionResult{}, types.ErrModelsNotFound(nil)
		},
	}
	h := NewPredictionHandler(pred, nil, defaultRoutes(), core.NewValidator(), nil, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", bytes.NewReader(predictBody(t)))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// --- POST /v1/predictions/auto-weather ---

func TestHandlePredictAutoWeather(t *testing.T) {
	weather := &mockWeather{obs: coldObservation(), source: types.SourceOpenMeteo}
	pred := &mockPredictor{}
	metrics := &mockMetrics{}
	h := NewPredictionHandler(pred, weather, defaultRoutes(), core.NewValidator(), metrics, testLogger())

	body := []byte(`{"route_id":"R001"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions/auto-weather", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Weather was fetched at the route's stored coordinates.
	assert.Equal(t, 53.48, weather.lastLat)
	assert.Equal(t, -2.24, weather.lastLon)

	var resp struct {
		Data AutoWeatherResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.SourceOpenMeteo, resp.Data.WeatherSource)
	assert.Equal(t, coldObservation(), resp.Data.Weather)
	assert.Equal(t, "R001", resp.Data.Prediction.RouteID)

	assert.Equal(t, []string{"open_meteo:ok"}, metrics.fetches)
	assert.Equal(t, []string{"yes"}, metrics.predictions)
}

func TestHandlePredictAutoWeatherCoordinateOverride(t *testing.T) {
	weather := &mockWeather{obs: coldObservation(), source: types.SourceOpenMeteo}
	h := NewPredictionHandler(&mockPredictor{}, weather, defaultRoutes(), core.NewValidator(), nil, testLogger())

	body := []byte(`{"route_id":"R001","latitude":51.5,"longitude":-0.12}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions/auto-weather", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 51.5, weather.lastLat)
	assert.Equal(t, -0.12, weather.lastLon)
}

func TestHandlePredictAutoWeatherRouteWithoutCoordinates(t *testing.T) {
	weather := &mockWeather{obs: coldObservation(), source: types.SourceOpenMeteo}
	h := NewPredictionHandler(&mockPredictor{}, weather, defaultRoutes(), core.NewValidator(), nil, testLogger())

	// No stored coordinates and no override: nothing to fetch weather at.
	body := []byte(`{"route_id":"R003"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions/auto-weather", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(types.ErrCodeValidationInvalidRoute))
	assert.Zero(t, weather.calls)

	// A single override is not enough either.
	body = []byte(`{"route_id":"R003","latitude":53.40}`)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/predictions/auto-weather", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, weather.calls)

	// Supplying both coordinates lets the prediction proceed.
	body = []byte(`{"route_id":"R003","latitude":53.40,"longitude":-2.55}`)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/predictions/auto-weather", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 53.40, weather.lastLat)
	assert.Equal(t, -2.55, weather.lastLon)
}

func TestHandlePredictAutoWeatherInvalidCoordinates(t *testing.T) {
	h := NewPredictionHandler(&mockPredictor{}, &mockWeather{}, defaultRoutes(), core.NewValidator(), nil, testLogger())

	body := []byte(`{"route_id":"R001","latitude":95.0}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions/auto-weather", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(types.ErrCodeValidationInvalidLat))
}

func TestHandlePredictAutoWeatherUnknownRoute(t *testing.T) {
	h := NewPredictionHandler(&mockPredictor{}, &mockWeather{}, defaultRoutes(), core.NewValidator(), nil, testLogger())

	body := []byte(`{"route_id":"R999"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions/auto-weather", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePredictAutoWeatherUpstreamFailure(t *testing.T) {
	weather := &mockWeather{err: types.NewAppError(types.ErrCodeUpstreamWeather, "provider down", nil)}
	metrics := &mockMetrics{}
	h := NewPredictionHandler(&mockPredictor{}, weather, defaultRoutes(), core.NewValidator(), metrics, testLogger())

	body := []byte(`{"route_id":"R001"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions/auto-weather", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []string{"none:error"}, metrics.fetches)
	assert.Empty(t, metrics.predictions)
}

func TestHandlePredictAutoWeatherNoProviderConfigured(t *testing.T) {
	h := NewPredictionHandler(&mockPredictor{}, nil, defaultRoutes(), core.NewValidator(), nil, testLogger())

	body := []byte(`{"route_id":"R001"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predictions/auto-weather", bytes.NewReader(body))
	newPredictionRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), string(types.ErrCodeUpstreamUnavailable))
}
