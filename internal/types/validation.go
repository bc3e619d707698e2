package types

import (
	"fmt"
	"math"
)

// Plausibility bounds for weather inputs. Values outside these ranges are
// almost certainly sensor faults or unit mix-ups and are rejected before
// they reach the models.
const (
	MinPlausibleTempC = -50.0
	MaxPlausibleTempC = 50.0
)

// ValidateObservation checks a WeatherObservation for physical plausibility.
// All numeric fields must be finite; temperatures must fall within
// [-50, 50] degrees C, humidity and precipitation probability within
// [0, 100] percent, and wind speed must be non-negative.
// Returns a validation AppError naming the offending field, or nil.
func ValidateObservation(obs WeatherObservation) *AppError {
	// Fields are checked in declaration order so the first violation reported
	// is stable when several fields are invalid at once.
	temps := []struct {
		field string
		value float64
	}{
		{"temperature_c", obs.TemperatureC},
		{"feels_like_c", obs.FeelsLikeC},
		{"road_surface_temp_c", obs.RoadSurfaceTempC},
		{"forecast_min_temp_c", obs.ForecastMinTempC},
	}
	for _, c := range temps {
		if !isFinite(c.value) {
			return invalidWeatherField(c.field, c.value, "must be a finite number")
		}
		if c.value < MinPlausibleTempC || c.value > MaxPlausibleTempC {
			return invalidWeatherField(c.field, c.value, fmt.Sprintf("must be between %.0f and %.0f", MinPlausibleTempC, MaxPlausibleTempC))
		}
	}

	percents := []struct {
		field string
		value float64
	}{
		{"humidity_pct", obs.HumidityPct},
		{"precipitation_prob_pct", obs.PrecipitationProbPct},
	}
	for _, c := range percents {
		if !isFinite(c.value) {
			return invalidWeatherField(c.field, c.value, "must be a finite number")
		}
		if c.value < 0 || c.value > 100 {
			return invalidWeatherField(c.field, c.value, "must be between 0 and 100")
		}
	}

	if !isFinite(obs.WindSpeedKmh) {
		return invalidWeatherField("wind_speed_kmh", obs.WindSpeedKmh, "must be a finite number")
	}
	if obs.WindSpeedKmh < 0 {
		return invalidWeatherField("wind_speed_kmh", obs.WindSpeedKmh, "must be non-negative")
	}

	return nil
}

// ValidateCoordinates checks that a latitude/longitude pair is within range.
func ValidateCoordinates(lat, lon float64) *AppError {
	if !isFinite(lat) || lat < -90 || lat > 90 {
		return NewAppErrorWithDetails(
			ErrCodeValidationInvalidLat,
			"latitude must be between -90 and 90",
			nil,
			map[string]any{"latitude": lat},
		)
	}
	if !isFinite(lon) || lon < -180 || lon > 180 {
		return NewAppErrorWithDetails(
			ErrCodeValidationInvalidLon,
			"longitude must be between -180 and 180",
			nil,
			map[string]any{"longitude": lon},
		)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func invalidWeatherField(field string, value float64, constraint string) *AppError {
	// The value is carried as a string so that NaN/Inf inputs remain
	// JSON-serializable in the error details.
	return NewAppErrorWithDetails(
		ErrCodeValidationInvalidWeather,
		fmt.Sprintf("%s %s", field, constraint),
		nil,
		map[string]any{"field": field, "value": fmt.Sprintf("%g", value)},
	)
}
