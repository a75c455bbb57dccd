package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/segmenter"
	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/metrics"
)

type recordingPublisher struct {
	mu       sync.Mutex
	events   []kafka.Event
	failures int
}

func (r *recordingPublisher) Publish(_ context.Context, event kafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("broker unavailable")
	}
	r.events = append(r.events, event)
	return nil
}

type stubSummarizer struct {
	summary *summarizer.Summary
	err     error
	calls   int
	delay   time.Duration
}

func (s *stubSummarizer) Summarize(ctx context.Context, _ string, _ int) (*summarizer.Summary, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.summary, s.err
}

func TestSubmit(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewSubmitter(pub)
	ctx := logger.WithRequestID(context.Background(), "req-42")

	acc, err := s.Submit(ctx, "Cats are great. Dogs are pets.", 1)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, acc.Status)
	assert.True(t, strings.HasPrefix(acc.JobID, "job_"))

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, acc.JobID, ev.Key)
	assert.Equal(t, "req-42", ev.Headers["X-Request-ID"])
	req := ev.Value.(Request)
	assert.Equal(t, 1, req.NumSentences)
	assert.Equal(t, "req-42", req.RequestID)
}

func TestSubmitValidation(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewSubmitter(pub)

	_, err := s.Submit(context.Background(), "", 0)
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)

	_, err = s.Submit(context.Background(), " \n\t ", 2)
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)

	_, err = s.Submit(context.Background(), "   ", 0)
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)

	_, err = s.Submit(context.Background(), "One sentence.", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)

	assert.Empty(t, pub.events)
}

func TestSubmitPublishFailure(t *testing.T) {
	s := NewSubmitter(&recordingPublisher{failures: 1})
	_, err := s.Submit(context.Background(), "One sentence.", 1)
	assert.Error(t, err)
}

func newProcessor(t *testing.T, s Summarizer, pub Publisher, timeout time.Duration) (*Processor, *metrics.Metrics, *analytics.Aggregator) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	agg := analytics.NewAggregator()
	p := NewProcessor(s, pub, agg, m, timeout, 3)
	p.retry.InitialDelay = time.Millisecond
	return p, m, agg
}

func TestProcessCompleted(t *testing.T) {
	stub := &stubSummarizer{summary: &summarizer.Summary{
		Text:          "Cats are great.",
		Sentences:     []segmenter.Sentence{{Index: 0, Text: "Cats are great."}},
		SentenceCount: 3,
	}}
	pub := &recordingPublisher{}
	p, m, agg := newProcessor(t, stub, pub, time.Second)

	value, err := json.Marshal(Request{JobID: "job_1", Text: "Cats are great. x. y.", NumSentences: 1})
	require.NoError(t, err)
	require.NoError(t, p.Handle()(context.Background(), kafka.Message{
		Value:   value,
		Headers: map[string]string{"X-Request-ID": "req-7"},
	}))

	require.Len(t, pub.events, 1)
	res := pub.events[0].Value.(Result)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "Cats are great.", res.Summary)
	assert.Equal(t, 3, res.SentenceCount)
	assert.Equal(t, "req-7", pub.events[0].Headers["X-Request-ID"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues(StatusCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummariesTotal.WithLabelValues("job", "ok")))
	stats := agg.Stats()
	assert.EqualValues(t, 1, stats.Succeeded)
	assert.InDelta(t, 1.0/3.0, stats.AvgCompressionRatio, 1e-9)
}

func TestProcessCoreErrorBecomesFailedResult(t *testing.T) {
	stub := &stubSummarizer{err: apperrors.ErrEmptyDocument}
	pub := &recordingPublisher{}
	p, m, agg := newProcessor(t, stub, pub, time.Second)

	require.NoError(t, p.Process(context.Background(), Request{JobID: "job_2", Text: "...", NumSentences: 2}))

	assert.Equal(t, 1, stub.calls)
	require.Len(t, pub.events, 1)
	res := pub.events[0].Value.(Result)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "empty_document", res.ErrorKind)
	assert.Empty(t, res.Summary)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues(StatusFailed)))
	assert.EqualValues(t, 1, agg.Stats().ErrorsByKind["empty_document"])
}

func TestProcessTimeout(t *testing.T) {
	stub := &stubSummarizer{delay: time.Second}
	pub := &recordingPublisher{}
	p, _, _ := newProcessor(t, stub, pub, 20*time.Millisecond)

	require.NoError(t, p.Process(context.Background(), Request{JobID: "job_3", Text: "x.", NumSentences: 1}))
	res := pub.events[0].Value.(Result)
	assert.Equal(t, "timeout", res.ErrorKind)
}

func TestProcessRetriesPublishOnly(t *testing.T) {
	stub := &stubSummarizer{summary: &summarizer.Summary{Text: "A.", SentenceCount: 1}}
	pub := &recordingPublisher{failures: 2}
	p, _, _ := newProcessor(t, stub, pub, time.Second)

	require.NoError(t, p.Process(context.Background(), Request{JobID: "job_4", Text: "A.", NumSentences: 1}))
	assert.Equal(t, 1, stub.calls)
	assert.Len(t, pub.events, 1)
}

func TestProcessPublishExhausted(t *testing.T) {
	stub := &stubSummarizer{summary: &summarizer.Summary{Text: "A.", SentenceCount: 1}}
	pub := &recordingPublisher{failures: 10}
	p, m, _ := newProcessor(t, stub, pub, time.Second)

	err := p.Process(context.Background(), Request{JobID: "job_5", Text: "A.", NumSentences: 1})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("publish_failed")))
}

func TestHandleDropsUndecodableMessages(t *testing.T) {
	stub := &stubSummarizer{}
	p, _, _ := newProcessor(t, stub, &recordingPublisher{}, time.Second)
	assert.NoError(t, p.Handle()(context.Background(), kafka.Message{Value: []byte("{")}))
	assert.Zero(t, stub.calls)
}
