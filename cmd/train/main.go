// Command train fits the rainfall regression model on the historical dataset
// and writes the artifact the API loads at startup.
//
// Usage:
//
//	go run ./cmd/train
//
// DATASET_PATH, MODEL_PATH, MODEL_ESTIMATORS and MODEL_SEED override the defaults.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fixmycity/rainfall-service/internal/config"
	"github.com/fixmycity/rainfall-service/internal/model"
	"github.com/fixmycity/rainfall-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	records, err := model.ReadDataset(cfg.DatasetPath)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "path", cfg.DatasetPath, "records", len(records))

	params := model.DefaultParams()
	params.Estimators = cfg.ModelEstimators
	params.Seed = cfg.ModelSeed

	start := time.Now()
	forest, err := model.Fit(ctx, records, params)
	if err != nil {
		return err
	}

	if err := model.Save(cfg.ModelPath, forest); err != nil {
		return err
	}

	logger.Info("model trained and saved successfully",
		"path", cfg.ModelPath,
		"trees", forest.Trees(),
		"records", forest.Records(),
		"max_depth", forest.MaxDepth(),
		"seed", params.Seed,
		"duration", time.Since(start),
	)
	return nil
}
