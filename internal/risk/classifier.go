// Package risk holds the pure decision rules that turn raw weather readings
// into categorical ice and snow risk levels, plus the sanitizer that reduces
// free-form precipitation strings to the model's fixed vocabulary.
package risk

import "gritcast/internal/types"

// IceRisk classifies icing risk from road surface temperature, air
// temperature, and precipitation probability. Rules are evaluated top to
// bottom and the first match wins; all comparisons on probability are strict.
func IceRisk(roadSurfaceTempC, airTempC, precipProbPct float64) types.RiskLevel {
	switch {
	case roadSurfaceTempC <= -2 && precipProbPct > 60:
		return types.RiskHigh
	case roadSurfaceTempC <= 0 && precipProbPct > 40:
		return types.RiskHigh
	case roadSurfaceTempC <= 1 && precipProbPct > 50:
		return types.RiskMedium
	case airTempC <= 0:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// SnowRisk classifies snowfall risk from the sanitized precipitation type and
// precipitation probability. The air temperature parameter is accepted for
// signature symmetry with IceRisk but is unused by the current rules.
func SnowRisk(airTempC float64, precipType types.PrecipType, precipProbPct float64) types.RiskLevel {
	_ = airTempC
	switch {
	case precipType == types.PrecipSnow && precipProbPct > 70:
		return types.RiskHigh
	case precipType == types.PrecipSleet && precipProbPct > 60:
		return types.RiskMedium
	case precipType == types.PrecipSnow && precipProbPct > 40:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}
