// Package handlers contains the HTTP handler implementations for the
// gritting decision API. Each handler declares the service contracts it needs
// as local interfaces, following the handler injection pattern: concrete
// implementations are wired in by the application entry point, and tests
// substitute mocks.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gritcast/internal/core"
	"gritcast/internal/types"
)

// GritPredictor runs the two-stage inference for one route and observation.
// Implemented by model.LazyPredictor.
type GritPredictor interface {
	Predict(routeID string, weather types.WeatherObservation) (types.PredictionResult, error)
}

// WeatherFetcher retrieves a validated live observation for a coordinate
// pair. Implemented by weather.Service.
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (types.WeatherObservation, types.WeatherSource, error)
}

// RouteLookup resolves route ids to their stored metadata. Implemented by the
// routedata sources.
type RouteLookup interface {
	Lookup(routeID string) (types.Route, bool)
}

// PredictionMetrics records prediction telemetry. Implemented by
// core.Metrics; nil disables recording.
type PredictionMetrics interface {
	RecordPrediction(decision string)
	RecordWeatherFetch(source, outcome string)
}

// PredictionHandler maps HTTP requests to the predictor and weather service.
type PredictionHandler struct {
	predictor GritPredictor
	weather   WeatherFetcher
	routes    RouteLookup
	validator *core.Validator
	metrics   PredictionMetrics
	logger    *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler with the provided
// dependencies. weather may be nil when no upstream providers are configured;
// the auto-weather endpoint then returns an upstream error.
func NewPredictionHandler(
	predictor GritPredictor,
	weather WeatherFetcher,
	routes RouteLookup,
	validator *core.Validator,
	metrics PredictionMetrics,
	logger *slog.Logger,
) *PredictionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictionHandler{
		predictor: predictor,
		weather:   weather,
		routes:    routes,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
	}
}

// RegisterRoutes mounts the prediction endpoints onto the mux.
func (h *PredictionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/predictions", h.HandlePredict)
	r.Post("/predictions/auto-weather", h.HandlePredictAutoWeather)
}

// WeatherInput is the caller-supplied weather observation. All fields are
// pointers so that absent fields are distinguishable from legitimate zero
// values (0 degrees is common input in this domain).
type WeatherInput struct {
	TemperatureC         *float64 `json:"temperature_c" validate:"required"`
	FeelsLikeC           *float64 `json:"feels_like_c" validate:"required"`
	HumidityPct          *float64 `json:"humidity_pct" validate:"required"`
	WindSpeedKmh         *float64 `json:"wind_speed_kmh" validate:"required"`
	PrecipitationType    *string  `json:"precipitation_type" validate:"required"`
	PrecipitationProbPct *float64 `json:"precipitation_prob_pct" validate:"required"`
	RoadSurfaceTempC     *float64 `json:"road_surface_temp_c" validate:"required"`
	ForecastMinTempC     *float64 `json:"forecast_min_temp_c" validate:"required"`
}

// observation converts the validated input to the domain type.
func (in *WeatherInput) observation() types.WeatherObservation {
	return types.WeatherObservation{
		TemperatureC:         *in.TemperatureC,
		FeelsLikeC:           *in.FeelsLikeC,
		HumidityPct:          *in.HumidityPct,
		WindSpeedKmh:         *in.WindSpeedKmh,
		PrecipitationType:    *in.PrecipitationType,
		PrecipitationProbPct: *in.PrecipitationProbPct,
		RoadSurfaceTempC:     *in.RoadSurfaceTempC,
		ForecastMinTempC:     *in.ForecastMinTempC,
	}
}

// PredictRequest is the request body for POST /v1/predictions.
type PredictRequest struct {
	RouteID string        `json:"route_id" validate:"required"`
	Weather *WeatherInput `json:"weather" validate:"required"`
}

// HandlePredict handles POST /v1/predictions: a prediction for a single route
// using a caller-supplied weather observation.
func (h *PredictionHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if appErr := h.validator.ValidateStruct(req); appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	obs := req.Weather.observation()
	if appErr := types.ValidateObservation(obs); appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	result, err := h.predictor.Predict(req.RouteID, obs)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	h.recordPrediction(result)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// AutoWeatherRequest is the request body for POST /v1/predictions/auto-weather.
// Coordinates are optional; when omitted, the route's stored coordinates are
// used. Routes stored without coordinates require both to be supplied.
type AutoWeatherRequest struct {
	RouteID   string   `json:"route_id" validate:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// AutoWeatherResponse wraps the prediction together with the live weather it
// was computed from and the provider that supplied it.
type AutoWeatherResponse struct {
	Prediction    types.PredictionResult   `json:"prediction"`
	Weather       types.WeatherObservation `json:"weather"`
	WeatherSource types.WeatherSource      `json:"weather_source"`
}

// HandlePredictAutoWeather handles POST /v1/predictions/auto-weather: fetch
// live weather for the route's location (or explicit coordinates), then
// predict.
func (h *PredictionHandler) HandlePredictAutoWeather(w http.ResponseWriter, r *http.Request) {
	var req AutoWeatherRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if appErr := h.validator.ValidateStruct(req); appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	route, ok := h.routes.Lookup(req.RouteID)
	if !ok {
		core.Error(w, r, types.ErrRouteNotFound(req.RouteID))
		return
	}

	// A route stored without coordinates cannot place a weather fetch, so
	// the caller must supply both.
	if !route.HasCoordinates() && (req.Latitude == nil || req.Longitude == nil) {
		core.Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidRoute,
			fmt.Sprintf("route %q has no stored coordinates; supply latitude and longitude", req.RouteID),
			nil,
			map[string]any{"route_id": req.RouteID},
		))
		return
	}

	lat, lon := route.Latitude, route.Longitude
	if req.Latitude != nil {
		lat = *req.Latitude
	}
	if req.Longitude != nil {
		lon = *req.Longitude
	}
	if appErr := types.ValidateCoordinates(lat, lon); appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	if h.weather == nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			"no weather provider is configured",
			nil,
		))
		return
	}

	obs, source, err := h.weather.Fetch(r.Context(), lat, lon)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordWeatherFetch("none", "error")
		}
		core.Error(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordWeatherFetch(string(source), "ok")
	}

	result, err := h.predictor.Predict(req.RouteID, obs)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	h.recordPrediction(result)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: AutoWeatherResponse{
		Prediction:    result,
		Weather:       obs,
		WeatherSource: source,
	}})
}

func (h *PredictionHandler) recordPrediction(result types.PredictionResult) {
	if h.metrics != nil {
		h.metrics.RecordPrediction(string(result.Decision))
	}
	h.logger.Info("prediction generated",
		"route_id", result.RouteID,
		"decision", string(result.Decision),
		"confidence", result.Confidence,
		"ice_risk", string(result.IceRisk),
		"snow_risk", string(result.SnowRisk),
	)
}
