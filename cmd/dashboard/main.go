// Command dashboard serves the hydrogen projects card view and its JSON API
// from the most recently published snapshot.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/hydrogen-tracker/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hydrogen-tracker/internal/adapter/kafka"
	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/parquet"
	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/sqlite"
	"github.com/couchcryptid/hydrogen-tracker/internal/catalog"
	"github.com/couchcryptid/hydrogen-tracker/internal/config"
	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	"github.com/couchcryptid/hydrogen-tracker/internal/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cache := catalog.NewCache(cfg.CacheTTL, clockwork.NewRealClock(), logger, metrics,
		parquet.NewSnapshot(cfg.SnapshotPath),
		sqlite.NewSource(cfg.MirrorPath, logger),
	)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:        cfg.HTTPAddr,
		CORSOrigins: cfg.CORSOrigins,
		PageSize:    cfg.PageSize,
	}, cache, cache, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Drop the cache as soon as a new snapshot is announced instead of
	// waiting out the TTL.
	var listener *kafkaadapter.Listener
	if cfg.KafkaEnabled {
		listener = kafkaadapter.NewListener(cfg, logger)
		go func() {
			err := listener.Listen(ctx, func(domain.SnapshotPublished) { cache.Invalidate() })
			if err != nil {
				logger.Error("snapshot listener error", "error", err)
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
	if listener != nil {
		if err := listener.Close(); err != nil {
			logger.Error("kafka listener close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
