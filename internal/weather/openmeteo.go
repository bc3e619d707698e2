package weather

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"gritcast/internal/types"
)

// DefaultOpenMeteoURL is the production Open-Meteo forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// roadSurfaceTempOffsetC estimates road surface temperature from air
// temperature: tarmac radiates heat faster than the air above it.
const roadSurfaceTempOffsetC = 1.5

// OpenMeteo fetches current conditions and the 24h hourly forecast from the
// Open-Meteo API. No API key is required.
type OpenMeteo struct {
	baseURL string
	rc      *resilientClient
}

// NewOpenMeteo builds the primary provider client. baseURL is overridable for
// tests; pass DefaultOpenMeteoURL in production wiring.
func NewOpenMeteo(baseURL string, httpClient *http.Client) *OpenMeteo {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OpenMeteo{
		baseURL: baseURL,
		rc:      newResilientClient("open-meteo", httpClient, DefaultRetryPolicy()),
	}
}

// Name implements Provider.
func (o *OpenMeteo) Name() types.WeatherSource { return types.SourceOpenMeteo }

// openMeteoResponse mirrors the subset of the Open-Meteo payload we consume.
// Hourly arrays use pointers because the API returns null for hours it
// cannot forecast.
type openMeteoResponse struct {
	Current struct {
		Temperature2m       float64 `json:"temperature_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		RelativeHumidity2m  float64 `json:"relative_humidity_2m"`
		WindSpeed10m        float64 `json:"wind_speed_10m"`
		WeatherCode         int     `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		Temperature2m            []*float64 `json:"temperature_2m"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
	} `json:"hourly"`
}

// Fetch retrieves the observation for a coordinate pair.
//
// Derived quantities follow the operational conventions: road surface
// temperature is air temperature minus 1.5 degrees, precipitation probability
// is the first non-null value of the next three forecast hours, and the
// forecast minimum is the lowest of the 24 hourly temperatures (falling back
// to the current temperature when the hourly series is empty).
func (o *OpenMeteo) Fetch(ctx context.Context, lat, lon float64) (types.WeatherObservation, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%g", lat))
	q.Set("longitude", fmt.Sprintf("%g", lon))
	q.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,precipitation,weather_code")
	q.Set("hourly", "temperature_2m,precipitation_probability")
	q.Set("forecast_days", "1")
	q.Set("timezone", "auto")

	var payload openMeteoResponse
	if err := o.rc.getJSON(ctx, o.baseURL+"?"+q.Encode(), &payload); err != nil {
		return types.WeatherObservation{}, err
	}

	obs := types.WeatherObservation{
		TemperatureC:      payload.Current.Temperature2m,
		FeelsLikeC:        payload.Current.ApparentTemperature,
		HumidityPct:       payload.Current.RelativeHumidity2m,
		WindSpeedKmh:      payload.Current.WindSpeed10m,
		PrecipitationType: string(mapWMOCode(payload.Current.WeatherCode)),
		RoadSurfaceTempC:  payload.Current.Temperature2m - roadSurfaceTempOffsetC,
		ForecastMinTempC:  payload.Current.Temperature2m,
	}

	// First non-null probability within the next three hours.
	probs := payload.Hourly.PrecipitationProbability
	if len(probs) > 3 {
		probs = probs[:3]
	}
	for _, p := range probs {
		if p != nil {
			obs.PrecipitationProbPct = *p
			break
		}
	}

	// Minimum over the 24h hourly temperatures.
	minTemp := math.Inf(1)
	for _, t := range payload.Hourly.Temperature2m {
		if t != nil && *t < minTemp {
			minTemp = *t
		}
	}
	if !math.IsInf(minTemp, 1) {
		obs.ForecastMinTempC = minTemp
	}

	return obs, nil
}

// mapWMOCode reduces a WMO present-weather code to a precipitation category.
func mapWMOCode(code int) types.PrecipType {
	switch code {
	// Snow fall, snow grains, snow showers.
	case 71, 73, 75, 77, 85, 86:
		return types.PrecipSnow
	// Freezing drizzle, freezing rain, thunderstorm with hail.
	case 56, 57, 66, 67, 96, 99:
		return types.PrecipSleet
	// Drizzle, rain, rain showers, thunderstorm.
	case 51, 53, 55, 61, 63, 65, 80, 81, 82, 95:
		return types.PrecipRain
	// Clear, cloudy, fog.
	default:
		return types.PrecipNone
	}
}
