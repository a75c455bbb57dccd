// Command summarizer starts the public summarization API.
//
// It loads the language resources once, then serves plain-text and document
// summarization, ROUGE evaluation, asynchronous job submission and live
// analytics. API-key authentication (PostgreSQL) and rate limiting (Redis,
// with an in-memory fallback behind a circuit breaker) are optional.
//
// Usage:
//
//	go run ./cmd/summarizer [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/api/handler"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/api/router"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/jobs"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	noKafka := flag.Bool("no-kafka", false, "disable job submission and analytics publishing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting summarizer service",
		"port", cfg.Server.Port,
		"sentence_splitter", cfg.Summarizer.SentenceSplitter,
		"word_splitter", cfg.Summarizer.WordSplitter,
		"stemmer", cfg.Summarizer.Stemmer,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources, err := summarizer.LoadResources(cfg.Summarizer)
	if err != nil {
		slog.Error("failed to load language resources", "error", err)
		os.Exit(1)
	}
	pipeline := summarizer.New(resources, summarizer.WithWorkers(cfg.Summarizer.Workers))

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}

	checker := health.NewChecker()
	checker.Register("pipeline", health.Static(health.StatusUp, "language resources loaded"))

	deps := router.Deps{
		Metrics:        m,
		Health:         checker,
		DefaultLimit:   cfg.RateLimit.DefaultLimit,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}

	// PostgreSQL is only needed for API keys.
	if cfg.Auth.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to migrate schema", "error", err)
			os.Exit(1)
		}
		deps.Validator = apikey.NewStore(db)
		checker.Register("postgres", health.PingCheck(db.Ping, false))
		slog.Info("api key authentication enabled")
	}

	if cfg.RateLimit.Enabled {
		memory := ratelimit.NewMemoryLimiter(cfg.RateLimit.Window)
		go memory.Run(ctx, 5*time.Minute)

		rdb, err := redis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, rate limiting per replica", "error", err)
			deps.Limiter = memory
		} else {
			defer rdb.Close()
			breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
				OnStateChange: func(name string, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			deps.Limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Window, breaker, memory)
			checker.Register("redis", health.PingCheck(rdb.Ping, true))
		}
	}

	aggregator := analytics.NewAggregator()
	var (
		tracker   analytics.Tracker = aggregator
		submitter handler.JobSubmitter
	)
	if !*noKafka {
		jobProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SummarizeRequests)
		defer jobProducer.Close()
		submitter = jobs.NewSubmitter(jobProducer)

		eventProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer eventProducer.Close()
		collector := analytics.NewCollector(eventProducer, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval, m.AnalyticsDropped)
		collector.Start(ctx)
		defer collector.Close()
		tracker = analytics.Tee(aggregator, collector)

		checker.Register("kafka", health.PingCheck(jobProducer.Ping, true))
	}

	tracer := tracing.NewTracer(cfg.Tracing.Enabled, cfg.Tracing.SampleRate)
	deps.Handler = handler.New(handler.Config{
		DefaultSentences: cfg.Summarizer.DefaultSentences,
		MaxSentences:     cfg.Summarizer.MaxSentences,
		MaxUploadBytes:   cfg.Reader.MaxUploadBytes,
	}, pipeline, submitter, tracker, m, tracer)
	deps.Analytics = analytics.NewHandler(aggregator, nil)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.New(deps),
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

	slog.Info("summarizer service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("summarizer service stopped")
}
