package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/astronuts/neo-data-etl/internal/adapter/http"
	kafkaadapter "github.com/astronuts/neo-data-etl/internal/adapter/kafka"
	"github.com/astronuts/neo-data-etl/internal/adapter/nasa"
	openaiadapter "github.com/astronuts/neo-data-etl/internal/adapter/openai"
	"github.com/astronuts/neo-data-etl/internal/adapter/sqlite"
	"github.com/astronuts/neo-data-etl/internal/config"
	"github.com/astronuts/neo-data-etl/internal/observability"
	"github.com/astronuts/neo-data-etl/internal/pipeline"
	"github.com/astronuts/neo-data-etl/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	client := nasa.NewClient(cfg.NasaAPIKey, cfg.NasaBaseURL, cfg.NasaTimeout, logger, metrics)

	// Kafka sink (feature-flagged via KAFKA_ENABLED).
	var sink pipeline.EventSink
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		sink = publisher
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	// LLM report polish (feature-flagged via OPENAI_API_KEY).
	var polisher report.Polisher
	if cfg.OpenAIAPIKey != "" {
		polisher = openaiadapter.NewSummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.OpenAITimeout, logger)
		logger.Info("report polish enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("report polish disabled")
	}
	reporter := report.NewReporter(polisher, logger, metrics)

	ingestor := pipeline.New(client, store, sink, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:    ingestor,
		Store:    store,
		Ingestor: ingestor,
		Fetcher:  client,
		Reporter: reporter,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Optional one-shot ingest of the recent window at boot.
	if cfg.IngestOnStart {
		go func() {
			end := time.Now().UTC()
			start := end.AddDate(0, 0, -(cfg.IngestWindowDays - 1))
			if _, err := ingestor.IngestRange(ctx, start, end); err != nil {
				logger.Error("boot ingest failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
