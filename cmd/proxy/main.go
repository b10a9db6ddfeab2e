package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/firewatch/internal/adapter/algolia"
	httpadapter "github.com/couchcryptid/firewatch/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/firewatch/internal/adapter/kafka"
	"github.com/couchcryptid/firewatch/internal/config"
	"github.com/couchcryptid/firewatch/internal/domain"
	"github.com/couchcryptid/firewatch/internal/observability"
	"github.com/couchcryptid/firewatch/internal/proxy"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := algolia.NewClient(cfg.AlgoliaAppID, cfg.AlgoliaAdminKey, algolia.Options{
		BaseURL:    cfg.AlgoliaHost,
		Timeout:    cfg.ProviderTimeout,
		MaxRetries: cfg.ProviderMaxRetries,
		CacheSize:  cfg.IndexCacheSize,
	}, metrics, logger)

	var provider domain.SearchProvider = client
	if cfg.ProviderRateLimit > 0 {
		provider = algolia.NewRateLimitedProvider(client, cfg.ProviderRateLimit, cfg.ProviderRateBurst)
		logger.Info("provider rate limit enabled", "rps", cfg.ProviderRateLimit, "burst", cfg.ProviderRateBurst)
	}

	opts := []proxy.Option{proxy.WithRedactedSecrets(cfg.AlgoliaAdminKey)}

	// Search auditing is feature-flagged via KAFKA_BROKERS.
	var audit *kafkaadapter.AuditWriter
	if cfg.AuditEnabled {
		audit = kafkaadapter.NewAuditWriter(cfg.KafkaBrokers, cfg.KafkaAuditTopic, logger)
		opts = append(opts, proxy.WithAuditRecorder(audit))
		logger.Info("search audit enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAuditTopic)
	} else {
		logger.Info("search audit disabled")
	}

	svc := proxy.New(provider, logger, metrics, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

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
	svc.Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if audit != nil {
		if err := audit.Close(); err != nil {
			logger.Error("kafka audit writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
