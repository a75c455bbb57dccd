package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
)

// Publisher is the subset of kafka.Producer used to emit jobs and results.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type Submitter struct {
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func NewSubmitter(publisher Publisher) *Submitter {
	return &Submitter{
		publisher: publisher,
		now:       time.Now,
		logger:    slog.Default().With("component", "job-submitter"),
	}
}

// Submit rejects empty text and non-positive n exactly as the summarizer
// would, then queues the job. Documents without sentences are only detected
// by the worker.
func (s *Submitter) Submit(ctx context.Context, text string, n int) (*Accepted, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.New(apperrors.ErrEmptyInput, 400, "text is empty")
	}
	if n < 1 {
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, 400, "num_sentences must be at least 1, got %d", n)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generating job id: %w", err)
	}
	req := Request{
		JobID:        "job_" + id,
		Text:         text,
		NumSentences: n,
		RequestID:    logger.RequestID(ctx),
		SubmittedAt:  s.now().UTC(),
	}

	event := kafka.Event{Key: req.JobID, Value: req}
	if req.RequestID != "" {
		event.Headers = map[string]string{"X-Request-ID": req.RequestID}
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("queueing job %s: %w", req.JobID, err)
	}

	logger.FromContext(ctx).Info("job queued",
		"job_id", req.JobID,
		"num_sentences", n,
		"text_bytes", len(text),
	)
	return &Accepted{JobID: req.JobID, Status: StatusQueued}, nil
}
