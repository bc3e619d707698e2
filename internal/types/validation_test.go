package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plausibleObservation() WeatherObservation {
	return WeatherObservation{
		TemperatureC:         -2.0,
		FeelsLikeC:           -6.5,
		HumidityPct:          80,
		WindSpeedKmh:         15,
		PrecipitationType:    "sleet",
		PrecipitationProbPct: 70,
		RoadSurfaceTempC:     -1.5,
		ForecastMinTempC:     -4.0,
	}
}

func TestValidateObservationAcceptsPlausibleInput(t *testing.T) {
	assert.Nil(t, ValidateObservation(plausibleObservation()))
}

func TestValidateObservationRejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WeatherObservation)
		field  string
	}{
		{"temperature too high", func(o *WeatherObservation) { o.TemperatureC = 99 }, "temperature_c"},
		{"temperature NaN", func(o *WeatherObservation) { o.TemperatureC = math.NaN() }, "temperature_c"},
		{"feels like too low", func(o *WeatherObservation) { o.FeelsLikeC = -80 }, "feels_like_c"},
		{"road surface infinite", func(o *WeatherObservation) { o.RoadSurfaceTempC = math.Inf(1) }, "road_surface_temp_c"},
		{"forecast min too low", func(o *WeatherObservation) { o.ForecastMinTempC = -60 }, "forecast_min_temp_c"},
		{"humidity over 100", func(o *WeatherObservation) { o.HumidityPct = 150 }, "humidity_pct"},
		{"precipitation probability negative", func(o *WeatherObservation) { o.PrecipitationProbPct = -1 }, "precipitation_prob_pct"},
		{"wind speed negative", func(o *WeatherObservation) { o.WindSpeedKmh = -5 }, "wind_speed_kmh"},
		{"wind speed NaN", func(o *WeatherObservation) { o.WindSpeedKmh = math.NaN() }, "wind_speed_kmh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := plausibleObservation()
			tt.mutate(&obs)

			appErr := ValidateObservation(obs)
			require.NotNil(t, appErr)
			assert.Equal(t, ErrCodeValidationInvalidWeather, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestValidateObservationReportsFirstFieldDeterministically(t *testing.T) {
	// With several fields invalid at once, the reported field must not
	// depend on iteration order.
	obs := plausibleObservation()
	obs.FeelsLikeC = 99
	obs.ForecastMinTempC = -99
	obs.HumidityPct = 150

	for i := 0; i < 50; i++ {
		appErr := ValidateObservation(obs)
		require.NotNil(t, appErr)
		assert.Equal(t, "feels_like_c", appErr.Details["field"])
	}
}

func TestValidateCoordinates(t *testing.T) {
	assert.Nil(t, ValidateCoordinates(53.48, -2.24))
	assert.Nil(t, ValidateCoordinates(-90, 180))

	appErr := ValidateCoordinates(95, 0)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrCodeValidationInvalidLat, appErr.Code)

	appErr = ValidateCoordinates(0, -181)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrCodeValidationInvalidLon, appErr.Code)

	appErr = ValidateCoordinates(math.NaN(), 0)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrCodeValidationInvalidLat, appErr.Code)
}
