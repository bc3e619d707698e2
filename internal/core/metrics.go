package core

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for API telemetry. A dedicated
// registry is used rather than the package-level default so that tests can
// construct isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	predictions     *prometheus.CounterVec
	weatherFetches  *prometheus.CounterVec
}

// NewMetrics constructs the metric collectors and registers them, along with
// the standard Go runtime and process collectors, on a fresh registry.
func NewMetrics(service string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Count of HTTP requests by method, route and status.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by method and route.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gritting_predictions_total",
			Help:        "Count of gritting predictions by decision.",
			ConstLabels: labels,
		}, []string{"decision"}),
		weatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "weather_fetches_total",
			Help:        "Count of upstream weather fetches by source and outcome.",
			ConstLabels: labels,
		}, []string{"source", "outcome"}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.predictions,
		m.weatherFetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordRequest records latency and count for a completed HTTP request.
func (m *Metrics) RecordRequest(method, route, status string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPrediction records a completed prediction by decision ("yes"/"no").
func (m *Metrics) RecordPrediction(decision string) {
	m.predictions.WithLabelValues(decision).Inc()
}

// RecordWeatherFetch records an upstream weather fetch by source and outcome
// ("ok"/"error").
func (m *Metrics) RecordWeatherFetch(source, outcome string) {
	m.weatherFetches.WithLabelValues(source, outcome).Inc()
}

// Handler returns the HTTP handler serving the Prometheus exposition format,
// mounted at GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// routePattern returns the chi route pattern for a request (e.g.
// "/v1/predictions") to keep metric label cardinality bounded. Falls back to
// the raw path for unmatched requests. Must be called after the handler chain
// has run, since chi populates the pattern during routing.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
