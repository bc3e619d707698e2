package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gritcast/internal/types"
)

// mapLookup is a test RouteLookup backed by a plain map.
type mapLookup map[string]types.Route

func (m mapLookup) Lookup(routeID string) (types.Route, bool) {
	r, ok := m[routeID]
	return r, ok
}

func testRoute() types.Route {
	return types.Route{
		ID:       "R001",
		Name:     "Town Centre Loop",
		Priority: 1,
		RoadType: "urban",
		LengthKm: 5.2,
	}
}

func severeWeather() types.WeatherObservation {
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

func TestLabelEncoderAssignsSortedCodes(t *testing.T) {
	enc := NewLabelEncoder([]string{"snow", "rain", "none", "sleet", "rain"})

	assert.Equal(t, []string{"none", "rain", "sleet", "snow"}, enc.Classes)

	for want, class := range []string{"none", "rain", "sleet", "snow"} {
		code, err := enc.Transform(class)
		require.NoError(t, err)
		assert.Equal(t, float64(want), code)
	}
}

func TestLabelEncoderRejectsUnseenCategory(t *testing.T) {
	enc := NewLabelEncoder([]string{"none", "rain"})

	_, err := enc.Transform("snow")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalModelSkew, appErr.Code)
}

func TestBuilderRouteNotFound(t *testing.T) {
	b := NewBuilder(mapLookup{"R001": testRoute()})

	_, err := b.Build("R999", severeWeather())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundRoute, appErr.Code)
}

func TestBuilderDerivesRisksAndBooleans(t *testing.T) {
	b := NewBuilder(mapLookup{"R001": testRoute()})

	rec, err := b.Build("R001", severeWeather())
	require.NoError(t, err)

	assert.Equal(t, types.PrecipSnow, rec.Precip)
	assert.Equal(t, types.RiskHigh, rec.IceRisk)
	assert.Equal(t, types.RiskHigh, rec.SnowRisk)
	assert.True(t, rec.TempBelowZero)
	assert.True(t, rec.SurfaceTempBelowZero)
	assert.True(t, rec.HighPrecipProb)
}

func TestBuilderSanitizesRawPrecipitation(t *testing.T) {
	b := NewBuilder(mapLookup{"R001": testRoute()})

	w := severeWeather()
	w.PrecipitationType = "Heavy Snow Showers"

	rec, err := b.Build("R001", w)
	require.NoError(t, err)
	assert.Equal(t, types.PrecipSnow, rec.Precip)
}

func TestVectorMatchesColumnOrder(t *testing.T) {
	enc := NewLabelEncoder([]string{"none", "rain", "sleet", "snow"})

	rec := Derive(testRoute(), severeWeather())
	vec, err := rec.Vector(enc)
	require.NoError(t, err)

	values := vec.Values()
	require.Len(t, values, NumFeatures)

	// Spot-check positions against the canonical column list.
	byColumn := make(map[string]float64, NumFeatures)
	for i, col := range Columns {
		byColumn[col] = values[i]
	}

	assert.Equal(t, 1.0, byColumn["priority"])
	assert.Equal(t, -4.5, byColumn["temperature_c"])
	assert.Equal(t, 3.0, byColumn["precipitation_type_encoded"]) // snow
	assert.Equal(t, 2.0, byColumn["ice_risk_encoded"])
	assert.Equal(t, 2.0, byColumn["snow_risk_encoded"])
	assert.Equal(t, 5.2, byColumn["route_length_km"])
	assert.Equal(t, 1.0, byColumn["temp_below_zero"])
	assert.Equal(t, 1.0, byColumn["surface_temp_below_zero"])
	assert.Equal(t, 1.0, byColumn["high_precip_prob"])
}

func TestVerifyColumns(t *testing.T) {
	assert.NoError(t, VerifyColumns(ColumnList()))

	// Reordered list must be rejected.
	swapped := ColumnList()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	err := VerifyColumns(swapped)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalModelSkew, appErr.Code)

	// Truncated list must be rejected.
	assert.Error(t, VerifyColumns(ColumnList()[:10]))
}
