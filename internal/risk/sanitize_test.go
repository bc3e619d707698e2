package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gritcast/internal/types"
)

func TestSanitizePrecip(t *testing.T) {
	tests := []struct {
		raw  string
		want types.PrecipType
	}{
		{"", types.PrecipNone},
		{"none", types.PrecipNone},
		{"rain", types.PrecipRain},
		{"sleet", types.PrecipSleet},
		{"snow", types.PrecipSnow},
		{"Snow", types.PrecipSnow},
		{"SNOW SHOWERS", types.PrecipSnow},
		{"light snow", types.PrecipSnow},
		{"blizzard conditions", types.PrecipSnow},
		{"snow flurries", types.PrecipSnow},
		{"freezing rain", types.PrecipSleet}, // sleet beats rain
		{"ice pellets", types.PrecipSleet},
		{"hail", types.PrecipSleet},
		{"light drizzle", types.PrecipRain},
		{"rain showers", types.PrecipRain},
		{"thunderstorm", types.PrecipRain},
		{"clear", types.PrecipNone},
		{"fog", types.PrecipNone},
		{"  sleet  ", types.PrecipSleet},
		{"sunny with a chance of meatballs", types.PrecipNone},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizePrecip(tt.raw))
		})
	}
}

// Snow wins over sleet wins over rain when several substrings appear in the
// same raw value.
func TestSanitizePrecipPriority(t *testing.T) {
	assert.Equal(t, types.PrecipSnow, SanitizePrecip("rain turning to snow"))
	assert.Equal(t, types.PrecipSnow, SanitizePrecip("snow and freezing rain"))
	assert.Equal(t, types.PrecipSleet, SanitizePrecip("freezing rain"))
}

func TestSanitizePrecipIdempotent(t *testing.T) {
	inputs := []string{
		"", "none", "light snow", "freezing rain", "thunderstorm",
		"clear", "BLIZZARD", "hail storm", "anything else",
	}
	for _, raw := range inputs {
		once := SanitizePrecip(raw)
		twice := SanitizePrecip(string(once))
		assert.Equal(t, once, twice, "sanitize(%q) not idempotent", raw)
	}
}
