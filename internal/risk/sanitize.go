package risk

import (
	"strings"

	"gritcast/internal/types"
)

// Substring groups checked by SanitizePrecip, in priority order. A raw value
// matching more than one group resolves to the earliest group listed here.
var precipSubstrings = []struct {
	category types.PrecipType
	needles  []string
}{
	{types.PrecipSnow, []string{"snow", "blizzard", "flurr"}},
	{types.PrecipSleet, []string{"sleet", "ice", "hail", "freez"}},
	{types.PrecipRain, []string{"rain", "drizzle", "shower", "storm"}},
}

// SanitizePrecip reduces an arbitrary upstream precipitation string to one of
// the four canonical categories. The trained encoder can only encode the
// vocabulary it was fit on, so every raw value must resolve to a known
// category before feature encoding. Unknown or empty values map to none.
//
// SanitizePrecip is idempotent: applying it to its own output is a no-op,
// because every canonical category is an exact match for itself.
func SanitizePrecip(raw string) types.PrecipType {
	if raw == "" {
		return types.PrecipNone
	}

	lower := strings.ToLower(strings.TrimSpace(raw))
	if t := types.PrecipType(lower); t.Valid() {
		return t
	}

	for _, group := range precipSubstrings {
		for _, needle := range group.needles {
			if strings.Contains(lower, needle) {
				return group.category
			}
		}
	}

	return types.PrecipNone
}
