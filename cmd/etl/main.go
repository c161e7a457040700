// Command etl runs one pass of the hydrogen projects pipeline: it reads the
// IEA workbook, cleans it, and publishes the Parquet snapshot and the SQLite
// mirror. It exits non-zero when nothing was published.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/excel"
	kafkaadapter "github.com/couchcryptid/hydrogen-tracker/internal/adapter/kafka"
	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/parquet"
	s3adapter "github.com/couchcryptid/hydrogen-tracker/internal/adapter/s3"
	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/sqlite"
	"github.com/couchcryptid/hydrogen-tracker/internal/config"
	"github.com/couchcryptid/hydrogen-tracker/internal/observability"
	"github.com/couchcryptid/hydrogen-tracker/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mirror, err := sqlite.Open(cfg.MirrorPath, logger)
	if err != nil {
		logger.Error("open mirror", "error", err)
		return 1
	}
	defer func() {
		if err := mirror.Close(); err != nil {
			logger.Error("mirror close error", "error", err)
		}
	}()

	var opts []pipeline.Option
	if cfg.KafkaEnabled {
		notifier := kafkaadapter.NewNotifier(cfg, logger)
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Error("kafka notifier close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(notifier))
		logger.Info("snapshot notifications enabled", "topic", cfg.KafkaTopic)
	}
	if cfg.S3Enabled() {
		uploader, err := s3adapter.NewUploader(ctx, cfg, logger)
		if err != nil {
			logger.Error("s3 uploader", "error", err)
			return 1
		}
		opts = append(opts, pipeline.WithUploader(uploader))
		logger.Info("snapshot upload enabled", "bucket", cfg.S3Bucket, "key", cfg.S3Key)
	}

	p := pipeline.New(
		excel.NewReader(cfg.SourcePath, cfg.SourceSheet, logger),
		parquet.NewStore(cfg.SnapshotPath, logger),
		mirror,
		logger,
		metrics,
		opts...,
	)

	result, runErr := p.Run(ctx)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	if runErr != nil {
		logger.Error("etl run failed", "error", runErr)
		return 1
	}
	logger.Info("etl run complete",
		"run_id", result.RunID,
		"rows", result.Rows,
		"columns", result.Columns,
		"snapshot", cfg.SnapshotPath,
		"mirror", cfg.MirrorPath,
	)
	return 0
}
