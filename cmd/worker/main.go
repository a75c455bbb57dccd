// Command worker runs asynchronous summarization jobs.
//
// It consumes job requests from Kafka, runs the summarization pipeline under
// a per-job deadline and publishes each result (a summary or an error kind)
// to the results topic. Only the result publish is retried; a job whose
// result cannot be published stays uncommitted and is redelivered.
//
// Usage:
//
//	go run ./cmd/worker [-config configs/development.yaml]
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
	"time"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/jobs"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/metrics"
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
	slog.Info("starting summarization worker",
		"requests_topic", cfg.Kafka.Topics.SummarizeRequests,
		"results_topic", cfg.Kafka.Topics.SummarizeResults,
		"job_timeout", cfg.Jobs.Timeout,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources, err := summarizer.LoadResources(cfg.Summarizer)
	if err != nil {
		slog.Error("failed to load language resources", "error", err)
		os.Exit(1)
	}
	pipeline := summarizer.New(resources,
		summarizer.WithWorkers(cfg.Summarizer.Workers),
		summarizer.WithLogger(logger.WithComponent("worker-pipeline")),
	)

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}

	results := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SummarizeResults)
	defer results.Close()

	events := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	defer events.Close()
	collector := analytics.NewCollector(events, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval, m.AnalyticsDropped)
	collector.Start(ctx)
	defer collector.Close()

	processor := jobs.NewProcessor(pipeline, results, collector, m, cfg.Jobs.Timeout, cfg.Jobs.PublishAttempts)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SummarizeRequests, processor.Handle(),
		kafka.FromBeginning(), kafka.WithGroupSuffix("worker"))

	checker := health.NewChecker()
	checker.Register("kafka", health.PingCheck(consumer.Ping, false))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server error", "error", err)
		}
	}()

	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("health server shutdown error", "error", err)
	}
	slog.Info("summarization worker stopped")
}
