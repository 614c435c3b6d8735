package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/lightning-alert-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/lightning-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/lightning-alert-service/internal/catalog"
	"github.com/couchcryptid/lightning-alert-service/internal/config"
	"github.com/couchcryptid/lightning-alert-service/internal/domain"
	"github.com/couchcryptid/lightning-alert-service/internal/feed"
	"github.com/couchcryptid/lightning-alert-service/internal/ledger"
	"github.com/couchcryptid/lightning-alert-service/internal/observability"
	"github.com/couchcryptid/lightning-alert-service/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	metrics := observability.NewMetrics()

	// The catalog is the geofence reference data; without it classification
	// cannot run.
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load location catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	logger.Info("location catalog loaded", "path", cfg.CatalogPath, "locations", cat.Len())

	led := ledger.Open(cfg.LedgerPath, logger)

	// Alert mirroring to Kafka is feature-flagged via ALERT_KAFKA_ENABLED.
	var publisher pipeline.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.AlertKafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		metrics.MirrorEnabled.Set(1)
		logger.Info("kafka alert mirror enabled", "brokers", cfg.AlertKafkaBrokers, "topic", cfg.AlertKafkaTopic)
	} else {
		logger.Info("kafka alert mirror disabled")
	}

	events := make(chan domain.StrikeEvent, 64)
	client := feed.NewClient(cfg, events, logger, metrics)
	processor := pipeline.New(cat, led, publisher, cfg, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, processor, led, cfg.LogFile, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start feed client and classification pipeline.
	go func() {
		if err := client.Run(ctx); err != nil {
			logger.Error("feed client error", "error", err)
		}
	}()
	go func() {
		if err := processor.Run(ctx, events); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
