// Command analytics starts the standalone analytics aggregation service.
//
// It consumes summary events from Kafka, aggregates them in memory (totals,
// failures by error kind, latency percentiles, compression ratio, sources and
// formats) and serves them at GET /api/v1/analytics. When PostgreSQL is
// reachable, statistics are snapshotted periodically and the latest snapshot
// is restored on startup.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics/store"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := analytics.NewAggregator()
	checker := health.NewChecker()

	var snapshots analytics.SnapshotLister
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, snapshots disabled", "error", err)
	} else {
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to migrate schema", "error", err)
			os.Exit(1)
		}
		st := store.New(db)
		latest, err := st.Latest(ctx)
		if err != nil {
			slog.Warn("could not restore analytics snapshot", "error", err)
		} else if latest != nil {
			aggregator.Restore(*latest)
			slog.Info("analytics restored from snapshot", "total_summaries", latest.TotalSummaries)
		}
		go st.RunPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval)
		snapshots = st
		checker.Register("postgres", health.PingCheck(db.Ping, true))
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, aggregator.HandleEvent(), kafka.WithGroupSuffix("analytics"))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	checker.Register("kafka", health.PingCheck(consumer.Ping, false))

	analyticsHandler := analytics.NewHandler(aggregator, snapshots)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", analyticsHandler.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.AccessLog(chain)
	chain = middleware.Recover(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
