package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/resilience"
)

// Summarizer is the pipeline entry point the worker drives.
type Summarizer interface {
	Summarize(ctx context.Context, text string, n int) (*summarizer.Summary, error)
}

// Processor turns job requests into results.
type Processor struct {
	summarizer Summarizer
	results    Publisher
	tracker    analytics.Tracker
	metrics    *metrics.Metrics
	timeout    time.Duration
	retry      resilience.RetryConfig
	now        func() time.Time
	logger     *slog.Logger
}

// NewProcessor wires a processor. tracker may be nil. publishAttempts bounds
// the retries of the result publish only; summarization is never retried.
func NewProcessor(s Summarizer, results Publisher, tracker analytics.Tracker, m *metrics.Metrics, timeout time.Duration, publishAttempts int) *Processor {
	return &Processor{
		summarizer: s,
		results:    results,
		tracker:    analytics.Tee(tracker),
		metrics:    m,
		timeout:    timeout,
		retry:      resilience.RetryConfig{MaxAttempts: publishAttempts, InitialDelay: 200 * time.Millisecond},
		now:        time.Now,
		logger:     slog.Default().With("component", "job-processor"),
	}
}

// Handle returns the consumer handler for the requests topic. Undecodable
// messages are dropped. A result that cannot be published is returned as an
// error so the request stays uncommitted.
func (p *Processor) Handle() kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		req, err := kafka.DecodeJSON[Request](msg.Value)
		if err != nil {
			p.logger.Error("failed to decode job request", "error", err, "key", string(msg.Key))
			return nil
		}
		if req.RequestID == "" {
			req.RequestID = msg.Headers["X-Request-ID"]
		}
		if req.RequestID != "" {
			ctx = logger.WithRequestID(ctx, req.RequestID)
		}
		return p.Process(ctx, req)
	}
}

// Process summarizes one request and publishes its result.
func (p *Processor) Process(ctx context.Context, req Request) error {
	log := logger.FromContext(ctx).With("job_id", req.JobID)
	start := p.now()

	var summary *summarizer.Summary
	err := resilience.WithTimeout(ctx, p.timeout, "summarize job", func(ctx context.Context) error {
		var err error
		summary, err = p.summarizer.Summarize(ctx, req.Text, req.NumSentences)
		return err
	})
	elapsed := p.now().Sub(start)

	result := Result{JobID: req.JobID, CompletedAt: p.now().UTC()}
	event := analytics.SummaryEvent{
		Source:             analytics.SourceJob,
		RequestedSentences: req.NumSentences,
		InputBytes:         len(req.Text),
		LatencyMs:          elapsed.Milliseconds(),
		Timestamp:          result.CompletedAt,
		RequestID:          req.RequestID,
	}
	outcome := "ok"
	if err != nil {
		kind := apperrors.Kind(err)
		result.Status = StatusFailed
		result.ErrorKind = kind
		result.Error = err.Error()
		event.ErrorKind = kind
		outcome = kind
		log.Warn("job failed", "error_kind", kind, "error", err)
	} else {
		result.Status = StatusCompleted
		result.Summary = summary.Text
		result.Sentences = summary.Sentences
		result.SentenceCount = summary.SentenceCount
		event.Success = true
		event.DocumentSentences = summary.SentenceCount
		event.SelectedSentences = len(summary.Sentences)
		p.metrics.DocumentSentences.Observe(float64(summary.SentenceCount))
		p.metrics.SelectedSentences.Observe(float64(len(summary.Sentences)))
	}
	p.metrics.SummariesTotal.WithLabelValues(string(analytics.SourceJob), outcome).Inc()
	p.metrics.SummarizeDuration.WithLabelValues(string(analytics.SourceJob)).Observe(elapsed.Seconds())
	p.tracker.Track(event)

	resultEvent := kafka.Event{Key: req.JobID, Value: result}
	if req.RequestID != "" {
		resultEvent.Headers = map[string]string{"X-Request-ID": req.RequestID}
	}
	err = resilience.Retry(ctx, "publish job result", p.retry, func() error {
		return p.results.Publish(ctx, resultEvent)
	})
	if err != nil {
		p.metrics.JobsTotal.WithLabelValues("publish_failed").Inc()
		return fmt.Errorf("publishing result of job %s: %w", req.JobID, err)
	}

	p.metrics.JobsTotal.WithLabelValues(result.Status).Inc()
	log.Info("job finished", "status", result.Status, "duration_ms", elapsed.Milliseconds())
	return nil
}
