package types

import "time"

// Route is a gritting route as known to the planning system. Routes are
// loaded from the relational source (or CSV fallback) and snapshotted into
// the model bundle at training time so inference does not depend on the
// original source being reachable.
type Route struct {
	ID        string  `json:"route_id"`
	Name      string  `json:"route_name"`
	Priority  int     `json:"priority"`  // 1 = highest
	RoadType  string  `json:"road_type"`
	LengthKm  float64 `json:"length_km"` // > 0
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HasCoordinates reports whether the route carries a stored location.
// Sources load missing coordinates as (0, 0), and no gritting route sits
// at that point, so the zero pair means absent.
func (r Route) HasCoordinates() bool {
	return r.Latitude != 0 || r.Longitude != 0
}

// WeatherObservation is the weather input to a prediction: current conditions
// plus the short-range forecast quantities the risk rules depend on.
// PrecipitationType carries the raw provider string; it is sanitized to a
// canonical PrecipType before encoding.
type WeatherObservation struct {
	TemperatureC         float64 `json:"temperature_c"`
	FeelsLikeC           float64 `json:"feels_like_c"`
	HumidityPct          float64 `json:"humidity_pct"`
	WindSpeedKmh         float64 `json:"wind_speed_kmh"`
	PrecipitationType    string  `json:"precipitation_type"`
	PrecipitationProbPct float64 `json:"precipitation_prob_pct"`
	RoadSurfaceTempC     float64 `json:"road_surface_temp_c"`
	ForecastMinTempC     float64 `json:"forecast_min_temp_c"`
}

// PredictionResult is the full decision-support output for one route under
// one weather observation.
type PredictionResult struct {
	RouteID          string       `json:"route_id"`
	RouteName        string       `json:"route_name"`
	Decision         GritDecision `json:"gritting_required"`
	Confidence       float64      `json:"confidence"` // probability of the chosen class, 3 decimals
	SaltAmountKg     int          `json:"salt_amount_kg"`
	SpreadRateGM2    int          `json:"spread_rate_g_per_m2"`
	EstimatedMinutes int          `json:"estimated_duration_min"`
	IceRisk          RiskLevel    `json:"ice_risk"`
	SnowRisk         RiskLevel    `json:"snow_risk"`
	Recommendation   string       `json:"recommendation"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// TrainingRow is one historical gritting record: the weather observed, the
// route it applied to, whether the crews gritted, and how much salt was used.
type TrainingRow struct {
	RouteID      string
	Weather      WeatherObservation
	Gritted      bool
	SaltAmountKg float64
}

// HistoryRecord is a historical gritting event as returned by the history
// listing endpoint.
type HistoryRecord struct {
	Timestamp         string       `json:"timestamp"`
	RouteID           string       `json:"route_id"`
	RouteName         string       `json:"route_name"`
	TemperatureC      float64      `json:"temperature_c"`
	PrecipitationType string       `json:"precipitation_type"`
	IceRisk           RiskLevel    `json:"ice_risk"`
	SnowRisk          RiskLevel    `json:"snow_risk"`
	Decision          GritDecision `json:"gritting_decision"`
	SaltAmountKg      float64      `json:"salt_amount_kg"`
}
