// Package config defines the global configuration structure for the gritcast
// service. Configuration is loaded once at process startup and is immutable
// thereafter. It follows 12-Factor App principles by strictly separating code
// from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Secret Files (Lowest)
//
// Any missing required value or invalid format causes startup to fail
// immediately (fail fast).
package config

import (
	"time"

	"gritcast/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the gritcast service.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"gritcast-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server  ServerConfig
	Model   ModelConfig
	Data    DataConfig
	Weather WeatherConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ModelConfig holds the location of the trained model bundle.
type ModelConfig struct {
	// BundlePrefix is the filesystem path prefix shared by the bundle
	// artifacts, e.g. "models/gritting" for models/gritting_decision_model.json.gz.
	BundlePrefix string `envconfig:"MODEL_BUNDLE_PREFIX" default:"models/gritting_model" validate:"required"`
}

// DataConfig holds route and training data source locations. The SQLite
// database is preferred; the CSV file is a fallback for route metadata only.
type DataConfig struct {
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"data/gritting.db"`
	RoutesCSVPath string `envconfig:"ROUTES_CSV_PATH" default:"data/routes.csv"`
}

// WeatherConfig holds upstream weather provider configuration. The
// OpenWeatherMap fallback is enabled only when an API key is configured.
type WeatherConfig struct {
	OpenMeteoURL      string        `envconfig:"OPEN_METEO_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"required,url"`
	OpenWeatherURL    string        `envconfig:"OPENWEATHER_URL" default:"https://api.openweathermap.org/data/2.5/weather" validate:"required,url"`
	OpenWeatherAPIKey SecretString  `envconfig:"OPENWEATHER_API_KEY"`
	RequestTimeout    time.Duration `envconfig:"WEATHER_REQUEST_TIMEOUT" default:"10s"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSecretResolution indicates a failure when resolving secret references.
	ErrSecretResolution ConfigErrorType = "SECRET_RESOLUTION_FAILED"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
