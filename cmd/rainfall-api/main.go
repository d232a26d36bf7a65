package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/fixmycity/rainfall-service/internal/adapter/http"
	kafkaadapter "github.com/fixmycity/rainfall-service/internal/adapter/kafka"
	"github.com/fixmycity/rainfall-service/internal/config"
	"github.com/fixmycity/rainfall-service/internal/forecast"
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
	metrics := observability.NewMetrics()

	forest, err := model.Load(cfg.ModelPath)
	if err != nil {
		logger.Error("failed to load model", "path", cfg.ModelPath, "error", err)
		os.Exit(1)
	}
	metrics.ModelLoaded.Set(1)
	metrics.ModelTrees.Set(float64(forest.Trees()))
	logger.Info("model loaded",
		"path", cfg.ModelPath,
		"trees", forest.Trees(),
		"records", forest.Records(),
		"trained_at", forest.TrainedAt(),
	)

	opts := []forecast.Option{forecast.WithLocation(cfg.ForecastLocation)}
	if cfg.ForecastSeed != 0 {
		opts = append(opts, forecast.WithSampler(forecast.NewSeededSampler(cfg.ForecastSeed)))
		logger.Info("forecast sampler seeded", "seed", cfg.ForecastSeed)
	}
	gen := forecast.NewGenerator(forest, logger, metrics, opts...)

	// Alert publishing is feature-flagged via ALERTS_ENABLED / KAFKA_BROKERS.
	var publisher httpadapter.AlertPublisher
	var writer *kafkaadapter.AlertWriter
	if cfg.AlertsEnabled {
		writer = kafkaadapter.NewAlertWriter(cfg, logger, metrics)
		publisher = writer
		metrics.AlertsEnabled.Set(1)
		logger.Info("kafka alerts enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka alerts disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, gen, gen, publisher, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
