package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gritcast/internal/types"
)

// DefaultOpenWeatherURL is the production OpenWeatherMap current-weather
// endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// defaultPrecipProbPct stands in when the provider omits precipitation
// probability. The current-weather endpoint never includes it (only the
// forecast endpoint does), so the fallback path always uses this value.
const defaultPrecipProbPct = 50.0

// OpenWeatherMap is the legacy fallback provider, used only when an API key
// is configured and the primary provider fails.
type OpenWeatherMap struct {
	baseURL string
	apiKey  types.SecretString
	rc      *resilientClient
}

// NewOpenWeatherMap builds the fallback provider client.
func NewOpenWeatherMap(baseURL string, apiKey types.SecretString, httpClient *http.Client) *OpenWeatherMap {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OpenWeatherMap{
		baseURL: baseURL,
		apiKey:  apiKey,
		rc:      newResilientClient("openweathermap", httpClient, DefaultRetryPolicy()),
	}
}

// Name implements Provider.
func (o *OpenWeatherMap) Name() types.WeatherSource { return types.SourceOpenWeatherMap }

// openWeatherResponse mirrors the subset of the OpenWeatherMap payload we
// consume (metric units requested).
type openWeatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s in metric mode
	} `json:"wind"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// Fetch retrieves the observation for a coordinate pair. Wind speed is
// converted from m/s to km/h; road surface temperature uses the same
// air-minus-1.5 estimate as the primary provider.
func (o *OpenWeatherMap) Fetch(ctx context.Context, lat, lon float64) (types.WeatherObservation, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%g", lat))
	q.Set("lon", fmt.Sprintf("%g", lon))
	q.Set("appid", o.apiKey.Unmask())
	q.Set("units", "metric")

	var payload openWeatherResponse
	if err := o.rc.getJSON(ctx, o.baseURL+"?"+q.Encode(), &payload); err != nil {
		return types.WeatherObservation{}, err
	}

	condition := ""
	if len(payload.Weather) > 0 {
		condition = payload.Weather[0].Main
	}

	return types.WeatherObservation{
		TemperatureC:         payload.Main.Temp,
		FeelsLikeC:           payload.Main.FeelsLike,
		HumidityPct:          payload.Main.Humidity,
		WindSpeedKmh:         payload.Wind.Speed * 3.6,
		PrecipitationType:    string(mapCondition(condition)),
		PrecipitationProbPct: defaultPrecipProbPct,
		RoadSurfaceTempC:     payload.Main.Temp - roadSurfaceTempOffsetC,
		ForecastMinTempC:     payload.Main.TempMin,
	}, nil
}

// mapCondition reduces an OpenWeatherMap condition group to a precipitation
// category. Unknown conditions map to none.
func mapCondition(condition string) types.PrecipType {
	switch condition {
	case "Rain", "Drizzle":
		return types.PrecipRain
	case "Snow":
		return types.PrecipSnow
	case "Sleet":
		return types.PrecipSleet
	default: // Clear, Clouds, Mist, Fog, ...
		return types.PrecipNone
	}
}
