// Package config loads and validates application configuration from YAML files
// with .env and environment-variable overrides. It provides typed structs for
// every subsystem (Server, Postgres, Kafka, Redis, Summarizer, Reader, etc.).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Reader     ReaderConfig     `yaml:"reader"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Auth       AuthConfig       `yaml:"auth"`
	Jobs       JobsConfig       `yaml:"jobs"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SummarizeRequests string `yaml:"summarizeRequests"`
	SummarizeResults  string `yaml:"summarizeResults"`
	AnalyticsEvents   string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// SummarizerConfig selects the language resources and limits of the
// summarization pipeline.
type SummarizerConfig struct {
	DefaultSentences int    `yaml:"defaultSentences"`
	MaxSentences     int    `yaml:"maxSentences"`
	Workers          int    `yaml:"workers"`
	Language         string `yaml:"language"`
	Stemmer          string `yaml:"stemmer"`
	StopwordsFile    string `yaml:"stopwordsFile"`
	SentenceSplitter string `yaml:"sentenceSplitter"`
	WordSplitter     string `yaml:"wordSplitter"`
}

// ReaderConfig limits uploaded documents.
type ReaderConfig struct {
	MaxUploadBytes int64 `yaml:"maxUploadBytes"`
}

// RateLimitConfig controls the Redis-backed per-key request limiter.
type RateLimitConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Window       time.Duration `yaml:"window"`
	DefaultLimit int           `yaml:"defaultLimit"`
}

// AuthConfig toggles API-key authentication on the public API.
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

// JobsConfig tunes the asynchronous summarization worker.
type JobsConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	PublishAttempts int           `yaml:"publishAttempts"`
}

// AnalyticsConfig controls event batching on the producer side and snapshot
// persistence in the analytics service.
type AnalyticsConfig struct {
	BatchSize        int           `yaml:"batchSize"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls per-request span logging.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), then a .env file (if present),
// and applies environment-variable overrides. It returns a Config populated
// with sensible defaults for any missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the summarizer cannot run with.
func (c *Config) Validate() error {
	if c.Summarizer.DefaultSentences < 1 {
		return fmt.Errorf("summarizer.defaultSentences must be >= 1, got %d", c.Summarizer.DefaultSentences)
	}
	if c.Summarizer.MaxSentences < c.Summarizer.DefaultSentences {
		return fmt.Errorf("summarizer.maxSentences (%d) must be >= defaultSentences (%d)",
			c.Summarizer.MaxSentences, c.Summarizer.DefaultSentences)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sampleRate must be within [0, 1], got %v", c.Tracing.SampleRate)
	}
	if c.Reader.MaxUploadBytes <= 0 {
		return fmt.Errorf("reader.maxUploadBytes must be positive")
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  20 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "summarizer",
			User:            "summarizer",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "summarizer-group",
			Topics: KafkaTopics{
				SummarizeRequests: "summarize-requests",
				SummarizeResults:  "summarize-results",
				AnalyticsEvents:   "summarizer-analytics",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
		},
		Summarizer: SummarizerConfig{
			DefaultSentences: 5,
			MaxSentences:     15,
			Workers:          4,
			Language:         "english",
			Stemmer:          "snowball",
			SentenceSplitter: "punkt",
			WordSplitter:     "uax29",
		},
		Reader: ReaderConfig{
			MaxUploadBytes: 20 << 20,
		},
		RateLimit: RateLimitConfig{
			Enabled:      true,
			Window:       time.Minute,
			DefaultLimit: 60,
		},
		Jobs: JobsConfig{
			Timeout:         time.Minute,
			PublishAttempts: 3,
		},
		Analytics: AnalyticsConfig{
			BatchSize:        100,
			FlushInterval:    5 * time.Second,
			SnapshotInterval: time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:    true,
			SampleRate: 0.1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SUM_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SUM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SUM_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SUM_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SUM_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SUM_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SUM_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SUM_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SUM_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SUM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SUM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SUM_DEFAULT_SENTENCES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Summarizer.DefaultSentences = n
		}
	}
	if v := os.Getenv("SUM_MAX_SENTENCES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Summarizer.MaxSentences = n
		}
	}
	if v := os.Getenv("SUM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Summarizer.Workers = n
		}
	}
	if v := os.Getenv("SUM_STEMMER"); v != "" {
		cfg.Summarizer.Stemmer = v
	}
	if v := os.Getenv("SUM_STOPWORDS_FILE"); v != "" {
		cfg.Summarizer.StopwordsFile = v
	}
	if v := os.Getenv("SUM_AUTH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Auth.Enabled = b
		}
	}
	if v := os.Getenv("SUM_RATELIMIT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RateLimit.Enabled = b
		}
	}
	if v := os.Getenv("SUM_TRACING_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracing.SampleRate = f
		}
	}
	if v := os.Getenv("SUM_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SUM_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
