// Package metrics defines the Prometheus collectors shared by the summarizer
// services and exposes a scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the services record into.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SummariesTotal    *prometheus.CounterVec
	SummarizeDuration *prometheus.HistogramVec
	DocumentSentences prometheus.Histogram
	SelectedSentences prometheus.Histogram
	UploadBytes       *prometheus.HistogramVec
	EvaluationsTotal  prometheus.Counter
	CoalescedRequests prometheus.Counter
	JobsTotal         *prometheus.CounterVec
	RateLimitedTotal  prometheus.Counter
	AnalyticsDropped  prometheus.Counter

	CircuitBreakerState *prometheus.GaugeVec

	registry prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SummariesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summarizer_summaries_total",
				Help: "Summarization attempts by source (text, upload, job) and outcome (ok or an error kind).",
			},
			[]string{"source", "outcome"},
		),
		SummarizeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "summarizer_duration_seconds",
				Help:    "Time spent in the summarization pipeline.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"source"},
		),
		DocumentSentences: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "summarizer_document_sentences",
				Help:    "Number of sentences found per summarized document.",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
			},
		),
		SelectedSentences: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "summarizer_selected_sentences",
				Help:    "Number of sentences returned per summary.",
				Buckets: []float64{1, 2, 3, 5, 8, 10, 15},
			},
		),
		UploadBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "summarizer_upload_bytes",
				Help:    "Size of uploaded documents by format.",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		),
		EvaluationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "summarizer_evaluations_total",
				Help: "Total ROUGE evaluations served.",
			},
		),
		CoalescedRequests: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "summarizer_coalesced_requests_total",
				Help: "Requests answered by an identical in-flight summarization.",
			},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summarizer_jobs_total",
				Help: "Asynchronous jobs by stage (queued, completed, failed, publish_failed).",
			},
			[]string{"status"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "summarizer_rate_limited_total",
				Help: "Requests rejected by the rate limiter.",
			},
		),
		AnalyticsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "summarizer_analytics_events_dropped_total",
				Help: "Analytics events dropped because the collector buffer was full.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SummariesTotal,
		m.SummarizeDuration,
		m.DocumentSentences,
		m.SelectedSentences,
		m.UploadBytes,
		m.EvaluationsTotal,
		m.CoalescedRequests,
		m.JobsTotal,
		m.RateLimitedTotal,
		m.AnalyticsDropped,
		m.CircuitBreakerState,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.registry = g
	} else {
		m.registry = prometheus.DefaultGatherer
	}
	return m
}

// Handler returns the scrape handler for the registry m was created with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
