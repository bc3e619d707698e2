package model

import (
	"strings"

	"gritcast/internal/features"
	"gritcast/internal/types"
)

// noGritRecommendation is the fixed output when no gritting is needed.
const noGritRecommendation = "No gritting required - conditions safe"

// Recommendation renders the operator-facing summary line for a decision.
//
// For a "yes" decision the applicable reasons are collected in a fixed order
// (high ice risk, high snow risk, very low road temperature, high
// precipitation probability) and prefixed with the route's priority class.
// When none of the reasons apply the gritting is flagged as preventive.
func Recommendation(decision types.GritDecision, rec features.FeatureRecord) string {
	if decision != types.DecisionGrit {
		return noGritRecommendation
	}

	var reasons []string
	if rec.IceRisk == types.RiskHigh {
		reasons = append(reasons, "high ice risk")
	}
	if rec.SnowRisk == types.RiskHigh {
		reasons = append(reasons, "high snow risk")
	}
	if rec.Weather.RoadSurfaceTempC < -3 {
		reasons = append(reasons, "very low road temperature")
	}
	if rec.Weather.PrecipitationProbPct > 80 {
		reasons = append(reasons, "high precipitation probability")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "preventive gritting recommended")
	}

	prefix := "Medium priority"
	if rec.Route.Priority == 1 {
		prefix = "High priority"
	}

	return prefix + " - " + strings.Join(reasons, ", ")
}
