// Package weather fetches live conditions from upstream providers and maps
// them onto the WeatherObservation contract the predictor consumes.
// Open-Meteo is the primary provider (no API key required); OpenWeatherMap is
// an optional fallback enabled by configuring an API key.
//
// All outbound calls go through a resilient client that enforces circuit
// breaking, retries with exponential backoff and jitter, and consistent
// mapping of transport failures to upstream error codes.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"gritcast/internal/types"
)

// RetryPolicy configures retry behavior for upstream weather calls.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns sensible defaults for weather API calls: they
// sit on the request path, so total retry budget stays small.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    250 * time.Millisecond,
		MaxWait:    2 * time.Second,
	}
}

// resilientClient wraps an *http.Client and a circuit breaker. Both provider
// clients embed one to inherit identical resilience behavior.
type resilientClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	retry   RetryPolicy
	sleepFn func(time.Duration) // for testability; defaults to time.Sleep
}

func newResilientClient(breakerName string, httpClient *http.Client, retry RetryPolicy) *resilientClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &resilientClient{
		client:  httpClient,
		breaker: cb,
		retry:   retry,
		sleepFn: time.Sleep,
	}
}

// getJSON performs a GET with retries and decodes the 200 response body into
// dst. Non-retryable upstream statuses (4xx other than 429) fail immediately;
// 429 and 5xx are retried and trip the breaker.
func (c *resilientClient) getJSON(ctx context.Context, url string, dst any) error {
	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + c.retry.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalUnexpected, "building weather request", err)
		}
		if traceID := types.GetRequestID(ctx); traceID != "" {
			req.Header.Set("X-Request-ID", traceID)
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			if r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned 429")
			}
			return r, nil
		})

		if err == nil {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return types.NewAppErrorWithDetails(
					types.ErrCodeUpstreamWeather,
					fmt.Sprintf("weather provider returned %d", resp.StatusCode),
					nil,
					map[string]any{"status": resp.StatusCode},
				)
			}
			if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
				return types.NewAppError(
					types.ErrCodeUpstreamWeather,
					"weather provider returned malformed JSON",
					err,
				)
			}
			return nil
		}

		lastErr = err
		if resp != nil {
			if attempt < maxAttempts-1 {
				resp.Body.Close()
			} else {
				lastResp = resp
			}
		}

		// An open breaker means the provider is already known-bad; retrying
		// within this request would just burn latency.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return types.NewAppError(types.ErrCodeUpstreamWeather, "weather request cancelled", ctx.Err())
			default:
			}
			c.sleepFn(c.computeBackoff(attempt, resp))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}
	return c.mapError(lastResp, lastErr)
}

// computeBackoff determines the wait before the next retry attempt. It
// respects a Retry-After header when present, otherwise applies exponential
// backoff with full jitter clamped to [MinWait, MaxWait].
func (c *resilientClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				wait := time.Duration(seconds) * time.Second
				if wait > c.retry.MaxWait {
					wait = c.retry.MaxWait
				}
				return wait
			}
		}
	}

	base := float64(c.retry.MinWait) * math.Pow(2, float64(attempt))
	maxWait := float64(c.retry.MaxWait)
	if base > maxWait {
		base = maxWait
	}

	minWait := float64(c.retry.MinWait)
	if base <= minWait {
		return c.retry.MinWait
	}
	jittered := minWait + rand.Float64()*(base-minWait)
	return time.Duration(jittered)
}

// mapError translates transport-level failures into upstream AppErrors.
func (c *resilientClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; weather provider unavailable",
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(
				types.ErrCodeUpstreamRateLimited,
				"weather provider rate limit exceeded",
				err,
			)
		case resp.StatusCode >= 500:
			return types.NewAppError(
				types.ErrCodeUpstreamWeather,
				fmt.Sprintf("weather provider returned %d after retries", resp.StatusCode),
				err,
			)
		}
	}

	return types.NewAppError(
		types.ErrCodeUpstreamWeather,
		"weather provider request failed",
		err,
	)
}
