// Package main is the offline training job for the gritting decision models.
//
// It loads routes and historical gritting records from the SQLite database,
// trains the decision classifier and amount regressor, logs the holdout
// metrics, and writes the model bundle to the configured prefix. The API
// server picks the bundle up lazily on its next prediction.
//
// Usage:
//
//	trainer [-db path/to/gritting.db] [-out models/gritting_model]
//
// Flags override the SQLITE_PATH and MODEL_BUNDLE_PREFIX environment
// configuration.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gritcast/internal/config"
	"gritcast/internal/model"
	"gritcast/internal/routedata"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(config.NewFileProvider())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	dbPath := flag.String("db", cfg.Data.SQLitePath, "path to the SQLite gritting database")
	bundlePrefix := flag.String("out", cfg.Model.BundlePrefix, "output path prefix for the model bundle")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("trainer starting",
		"db", *dbPath,
		"bundle_prefix", *bundlePrefix,
		"version", cfg.Build.Version,
	)

	source, err := routedata.OpenSQLite(*dbPath)
	if err != nil {
		return fmt.Errorf("opening training database: %w", err)
	}
	defer source.Close()

	rows, err := source.TrainingRows()
	if err != nil {
		return fmt.Errorf("loading training rows: %w", err)
	}
	routes := source.RouteMap()
	logger.Info("training data loaded", "rows", len(rows), "routes", len(routes))

	bundle, metrics, err := model.Train(rows, routes)
	if err != nil {
		return fmt.Errorf("training models: %w", err)
	}

	logger.Info("training complete",
		"training_rows", metrics.TrainingRows,
		"gritted_rows", metrics.GrittedRows,
		"decision_accuracy", metrics.DecisionAccuracy,
		"amount_r2", metrics.AmountR2,
	)

	store := model.NewStore(*bundlePrefix)
	if err := store.Save(bundle); err != nil {
		return fmt.Errorf("saving model bundle: %w", err)
	}

	logger.Info("model bundle written", "prefix", store.Prefix())
	return nil
}
