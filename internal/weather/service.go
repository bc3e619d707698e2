package weather

import (
	"context"
	"log/slog"

	"gritcast/internal/types"
)

// Provider fetches a weather observation for a coordinate pair.
type Provider interface {
	Name() types.WeatherSource
	Fetch(ctx context.Context, lat, lon float64) (types.WeatherObservation, error)
}

// Service chains providers: the primary is always tried first, and the
// fallback (when configured) covers primary outages. Observations are
// validated before being handed to the caller, so a provider returning
// physically implausible values surfaces as an upstream failure rather than
// feeding garbage to the models.
type Service struct {
	primary  Provider
	fallback Provider // nil when no fallback is configured
	logger   *slog.Logger
}

// NewService wires the provider chain. fallback may be nil.
func NewService(primary, fallback Provider, logger *slog.Logger) *Service {
	return &Service{primary: primary, fallback: fallback, logger: logger}
}

// Fetch returns a validated observation and the provider that produced it.
func (s *Service) Fetch(ctx context.Context, lat, lon float64) (types.WeatherObservation, types.WeatherSource, error) {
	obs, err := s.primary.Fetch(ctx, lat, lon)
	if err == nil {
		if verr := types.ValidateObservation(obs); verr != nil {
			err = types.NewAppError(
				types.ErrCodeUpstreamWeather,
				"weather provider returned implausible values",
				verr,
			)
		} else {
			return obs, s.primary.Name(), nil
		}
	}

	if s.fallback == nil {
		return types.WeatherObservation{}, "", err
	}

	s.logger.Warn("primary weather provider failed, using fallback",
		"primary", string(s.primary.Name()),
		"fallback", string(s.fallback.Name()),
		"error", err,
	)

	obs, ferr := s.fallback.Fetch(ctx, lat, lon)
	if ferr != nil {
		return types.WeatherObservation{}, "", ferr
	}
	if verr := types.ValidateObservation(obs); verr != nil {
		return types.WeatherObservation{}, "", types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"fallback weather provider returned implausible values",
			verr,
		)
	}
	return obs, s.fallback.Name(), nil
}
