// Package main is the entry point for the gritting decision API server.
//
// It loads the configuration, opens the route data source (SQLite preferred,
// CSV fallback), prepares the lazy model predictor and weather providers,
// builds the HTTP server with the core chassis (middleware, routing, health
// checks, metrics), and starts listening for requests.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"gritcast/internal/api/handlers"
	"gritcast/internal/config"
	"gritcast/internal/core"
	"gritcast/internal/model"
	"gritcast/internal/routedata"
	"gritcast/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	// Mounted secret files back any _SECRET_FILE references; resolution is
	// skipped entirely when APP_ENV=local.
	cfg, err := config.LoadConfig(config.NewFileProvider())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("gritcast API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	// Route data: SQLite preferred, CSV fallback.
	source, err := routedata.Open(cfg.Data.SQLitePath, cfg.Data.RoutesCSVPath)
	if err != nil {
		return fmt.Errorf("opening route data source: %w", err)
	}
	logger.Info("route data source opened",
		"source", source.Name(),
		"routes", len(source.Routes()),
	)

	// Model bundle loads lazily on the first prediction, so the server comes
	// up (and reports unhealthy) even before a trainer run has produced one.
	store := model.NewStore(cfg.Model.BundlePrefix)
	predictor := model.NewLazyPredictor(store, source)

	// A typed nil *weather.Service must not reach the handler's interface
	// field, or its nil check would pass a nil receiver through.
	var weatherFetcher handlers.WeatherFetcher
	if svc := buildWeatherService(cfg, logger); svc != nil {
		weatherFetcher = svc
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if closer, ok := source.(interface{ Close() error }); ok {
		srv.Closers = append(srv.Closers, closer)
	}

	srv.HealthProbes = []core.HealthProbe{
		core.NewProbe("model_bundle", func(ctx context.Context) error {
			if predictor.Loaded() || store.Exists() {
				return nil
			}
			return fmt.Errorf("no model bundle at %s", store.Prefix())
		}),
		core.NewProbe("route_data", func(ctx context.Context) error {
			if pinger, ok := source.(interface{ Ping() error }); ok {
				return pinger.Ping()
			}
			return nil
		}),
	}

	// Domain handlers.
	predictionHandler := handlers.NewPredictionHandler(
		predictor,
		weatherFetcher,
		source,
		srv.Validator,
		srv.Metrics,
		logger,
	)
	routesHandler := handlers.NewRoutesHandler(source, logger)

	var historyReader handlers.HistoryReader
	if hr, ok := source.(handlers.HistoryReader); ok {
		historyReader = hr
	}
	historyHandler := handlers.NewHistoryHandler(historyReader, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		func(r chi.Router) { predictionHandler.RegisterRoutes(r) },
		func(r chi.Router) { routesHandler.RegisterRoutes(r) },
		func(r chi.Router) { historyHandler.RegisterRoutes(r) },
	)

	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// buildWeatherService wires the provider chain: Open-Meteo primary, plus the
// OpenWeatherMap fallback when an API key is configured. Returns nil when the
// primary URL is unset, which disables the auto-weather endpoint.
func buildWeatherService(cfg *config.Config, logger *slog.Logger) *weather.Service {
	if cfg.Weather.OpenMeteoURL == "" {
		logger.Warn("no weather provider configured; auto-weather predictions disabled")
		return nil
	}

	httpClient := &http.Client{Timeout: cfg.Weather.RequestTimeout}
	primary := weather.NewOpenMeteo(cfg.Weather.OpenMeteoURL, httpClient)

	var fallback weather.Provider
	if cfg.Weather.OpenWeatherAPIKey.Unmask() != "" {
		fallback = weather.NewOpenWeatherMap(cfg.Weather.OpenWeatherURL, cfg.Weather.OpenWeatherAPIKey, httpClient)
		logger.Info("weather fallback enabled", "provider", "openweathermap")
	}

	return weather.NewService(primary, fallback, logger)
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
