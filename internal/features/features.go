// Package features builds the canonical model input for one (route, weather)
// pair. The feature column order is a versioned contract between training and
// inference: the FeatureVector struct fixes the 15 canonical fields at compile
// time, and bundles persist the column list so skew between a saved model and
// the compiled order is detected at load time instead of producing misaligned
// inference.
package features

import (
	"fmt"

	"gritcast/internal/risk"
	"gritcast/internal/types"
)

// NumFeatures is the width of the model input.
const NumFeatures = 15

// Columns is the canonical feature column order. It must match the field
// order of FeatureVector.Values exactly.
var Columns = [NumFeatures]string{
	"priority",
	"temperature_c",
	"feels_like_c",
	"humidity_pct",
	"wind_speed_kmh",
	"precipitation_type_encoded",
	"precipitation_prob_pct",
	"road_surface_temp_c",
	"forecast_min_temp_c",
	"ice_risk_encoded",
	"snow_risk_encoded",
	"route_length_km",
	"temp_below_zero",
	"surface_temp_below_zero",
	"high_precip_prob",
}

// ColumnList returns the canonical column order as a fresh slice, suitable
// for persisting into a bundle.
func ColumnList() []string {
	cols := make([]string, NumFeatures)
	copy(cols[:], Columns[:])
	return cols
}

// VerifyColumns checks a persisted column list against the compiled order.
// A mismatch means the bundle was trained against a different feature
// contract and must not be used for inference.
func VerifyColumns(cols []string) error {
	if len(cols) != NumFeatures {
		return types.NewAppErrorWithDetails(
			types.ErrCodeInternalModelSkew,
			fmt.Sprintf("bundle has %d feature columns, expected %d", len(cols), NumFeatures),
			nil,
			map[string]any{"bundle_columns": cols},
		)
	}
	for i, col := range cols {
		if col != Columns[i] {
			return types.NewAppErrorWithDetails(
				types.ErrCodeInternalModelSkew,
				fmt.Sprintf("feature column %d is %q in the bundle but %q in this build", i, col, Columns[i]),
				nil,
				map[string]any{"bundle_columns": cols},
			)
		}
	}
	return nil
}

// FeatureVector is the numeric model input, one field per canonical column.
// Field order here and in Values is the compile-time image of Columns.
type FeatureVector struct {
	Priority             float64
	TemperatureC         float64
	FeelsLikeC           float64
	HumidityPct          float64
	WindSpeedKmh         float64
	PrecipTypeEncoded    float64
	PrecipProbPct        float64
	RoadSurfaceTempC     float64
	ForecastMinTempC     float64
	IceRiskEncoded       float64
	SnowRiskEncoded      float64
	RouteLengthKm        float64
	TempBelowZero        float64
	SurfaceTempBelowZero float64
	HighPrecipProb       float64
}

// Values returns the vector in canonical column order.
func (v FeatureVector) Values() []float64 {
	return []float64{
		v.Priority,
		v.TemperatureC,
		v.FeelsLikeC,
		v.HumidityPct,
		v.WindSpeedKmh,
		v.PrecipTypeEncoded,
		v.PrecipProbPct,
		v.RoadSurfaceTempC,
		v.ForecastMinTempC,
		v.IceRiskEncoded,
		v.SnowRiskEncoded,
		v.RouteLengthKm,
		v.TempBelowZero,
		v.SurfaceTempBelowZero,
		v.HighPrecipProb,
	}
}

// FeatureRecord is the pre-encoding join of route attributes, weather, risk
// levels, and the three derived booleans. It exists transiently between
// feature building and encoding.
type FeatureRecord struct {
	Route   types.Route
	Weather types.WeatherObservation

	Precip   types.PrecipType
	IceRisk  types.RiskLevel
	SnowRisk types.RiskLevel

	TempBelowZero        bool
	SurfaceTempBelowZero bool
	HighPrecipProb       bool
}

// Vector encodes the record into the numeric feature vector using the given
// frozen precipitation encoder.
func (r FeatureRecord) Vector(enc *LabelEncoder) (FeatureVector, error) {
	precipCode, err := enc.Transform(string(r.Precip))
	if err != nil {
		return FeatureVector{}, err
	}

	return FeatureVector{
		Priority:             float64(r.Route.Priority),
		TemperatureC:         r.Weather.TemperatureC,
		FeelsLikeC:           r.Weather.FeelsLikeC,
		HumidityPct:          r.Weather.HumidityPct,
		WindSpeedKmh:         r.Weather.WindSpeedKmh,
		PrecipTypeEncoded:    precipCode,
		PrecipProbPct:        r.Weather.PrecipitationProbPct,
		RoadSurfaceTempC:     r.Weather.RoadSurfaceTempC,
		ForecastMinTempC:     r.Weather.ForecastMinTempC,
		IceRiskEncoded:       r.IceRisk.Encode(),
		SnowRiskEncoded:      r.SnowRisk.Encode(),
		RouteLengthKm:        r.Route.LengthKm,
		TempBelowZero:        boolFeature(r.TempBelowZero),
		SurfaceTempBelowZero: boolFeature(r.SurfaceTempBelowZero),
		HighPrecipProb:       boolFeature(r.HighPrecipProb),
	}, nil
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// RouteLookup resolves a route id to its attributes. Implemented by the
// routedata sources and by the route snapshot frozen into a bundle.
type RouteLookup interface {
	Lookup(routeID string) (types.Route, bool)
}

// Builder assembles FeatureRecords from a route lookup and live weather.
type Builder struct {
	routes RouteLookup
}

// NewBuilder returns a Builder backed by the given route lookup.
func NewBuilder(routes RouteLookup) *Builder {
	return &Builder{routes: routes}
}

// Build produces the FeatureRecord for one (route, weather) pair. The raw
// precipitation string is sanitized here, so downstream encoding always sees
// a canonical category. Fails with a route-not-found error when the id is
// absent from the lookup.
func (b *Builder) Build(routeID string, w types.WeatherObservation) (FeatureRecord, error) {
	route, ok := b.routes.Lookup(routeID)
	if !ok {
		return FeatureRecord{}, types.ErrRouteNotFound(routeID)
	}

	return Derive(route, w), nil
}

// Derive computes the risk levels and derived booleans for a route already in
// hand. Used by Build and by the trainer, which joins routes itself.
func Derive(route types.Route, w types.WeatherObservation) FeatureRecord {
	precip := risk.SanitizePrecip(w.PrecipitationType)

	return FeatureRecord{
		Route:                route,
		Weather:              w,
		Precip:               precip,
		IceRisk:              risk.IceRisk(w.RoadSurfaceTempC, w.TemperatureC, w.PrecipitationProbPct),
		SnowRisk:             risk.SnowRisk(w.TemperatureC, precip, w.PrecipitationProbPct),
		TempBelowZero:        w.TemperatureC < 0,
		SurfaceTempBelowZero: w.RoadSurfaceTempC < 0,
		HighPrecipProb:       w.PrecipitationProbPct > 60,
	}
}
