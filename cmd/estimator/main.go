package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/reverse-r-etl/internal/adapter/chart"
	"github.com/couchcryptid/reverse-r-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/reverse-r-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/reverse-r-etl/internal/adapter/kafka"
	redisadapter "github.com/couchcryptid/reverse-r-etl/internal/adapter/redis"
	"github.com/couchcryptid/reverse-r-etl/internal/adapter/snapshotdir"
	"github.com/couchcryptid/reverse-r-etl/internal/config"
	"github.com/couchcryptid/reverse-r-etl/internal/domain"
	"github.com/couchcryptid/reverse-r-etl/internal/observability"
	"github.com/couchcryptid/reverse-r-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	overrides, err := config.LoadOverrides(cfg.OverridesFile)
	if err != nil {
		logger.Error("failed to load overrides", "error", err)
		os.Exit(1)
	}
	errata, err := overrides.ErrataList()
	if err != nil {
		logger.Error("invalid errata", "error", err)
		os.Exit(1)
	}

	kernel, err := domain.NewKernel(cfg.Kernel)
	if err != nil {
		logger.Error("invalid kernel", "error", err)
		os.Exit(1)
	}
	estimator := domain.NewEstimator(domain.EstimatorOptions{
		Kernel:        kernel,
		Thresholds:    cfg.Thresholds,
		DeathEstimate: cfg.DeathEstimate,
		Smoothing:     cfg.Smoothing,
	}, logger)

	normalizer := domain.NewNormalizer(overrides.NormalizerOptions(cfg.Cutover))
	reader := snapshotdir.NewReader(cfg.SnapshotDir, logger)
	transformer := pipeline.NewTransformer(normalizer, errata, estimator, cfg.Workers, logger)

	store := pipeline.NewTableStore()
	sinks := []pipeline.TableSink{store}
	var pages httpadapter.PageRenderer

	if cfg.OutputDir != "" {
		sinks = append(sinks, csvfile.NewWriter(cfg.OutputDir, logger))
	}
	if cfg.ChartDir != "" {
		renderer := chart.NewRenderer(cfg.ChartDir, kernel, logger)
		sinks = append(sinks, renderer)
		pages = renderer
	}

	var kafkaWriter *kafkaadapter.Writer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		sinks = append(sinks, kafkaWriter)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}

	var redisClient *redisadapter.GoRedisClient
	if cfg.RedisAddr != "" {
		redisClient = redisadapter.NewClient(cfg.RedisAddr, cfg.RedisDB)
		sinks = append(sinks, redisadapter.NewStore(redisClient, logger))
		logger.Info("redis sink enabled", "addr", cfg.RedisAddr)
	}

	sink := pipeline.NewMultiSink(logger, metrics, sinks...)
	p := pipeline.New(reader, transformer, sink, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	if cfg.RebuildInterval == 0 {
		if cfg.HTTPAddr != "" {
			logger.Warn("HTTP_ADDR ignored without REBUILD_INTERVAL")
		}
		if err := p.RunOnce(ctx); err != nil {
			logger.Error("estimation failed", "error", err)
			exitCode = 1
		}
	} else {
		serve(ctx, cfg, p, store, pages, logger)
	}

	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis client close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}

// serve runs the rebuild loop and the HTTP API until the context is cancelled.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, store *pipeline.TableStore, pages httpadapter.PageRenderer, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, pages, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start rebuild loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx, cfg.RebuildInterval); err != nil {
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
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("rebuild still running at shutdown deadline")
	}
}
