package types

// RiskLevel is the ordinal severity assigned to ice and snow risk.
// The encoded integer values feed the model feature vector and must never
// be reordered: low=0, medium=1, high=2.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Encode returns the fixed ordinal encoding of the risk level.
func (r RiskLevel) Encode() float64 {
	switch r {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 0
	}
}

// Valid reports whether r is one of the three known levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// PrecipType is a canonical precipitation category. Raw observation strings
// are reduced to one of these four values before they reach the models.
type PrecipType string

const (
	PrecipNone  PrecipType = "none"
	PrecipRain  PrecipType = "rain"
	PrecipSleet PrecipType = "sleet"
	PrecipSnow  PrecipType = "snow"
)

// Valid reports whether p is one of the four canonical categories.
func (p PrecipType) Valid() bool {
	switch p {
	case PrecipNone, PrecipRain, PrecipSleet, PrecipSnow:
		return true
	}
	return false
}

// GritDecision is the binary outcome of a prediction.
type GritDecision string

const (
	DecisionGrit   GritDecision = "yes"
	DecisionNoGrit GritDecision = "no"
)

// WeatherSource identifies which upstream provider produced an observation.
type WeatherSource string

const (
	SourceOpenMeteo      WeatherSource = "open_meteo"
	SourceOpenWeatherMap WeatherSource = "openweathermap"
	SourceCaller         WeatherSource = "caller"
)
