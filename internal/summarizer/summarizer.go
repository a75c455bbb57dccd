// Package summarizer runs the extractive summarization pipeline: segment the
// document, normalize every sentence, build the document frequency table,
// score, select the top sentences and assemble them in document order.
//
// Normalization and scoring fan out across a bounded worker pool. Frequency
// building is a barrier between the two phases, because every score depends on
// counts from the whole document.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/assembler"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/frequency"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/scorer"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/segmenter"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/selector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/tracing"
)

// Summary is the result of one Summarize call.
type Summary struct {
	// Text is the selected sentences joined by single spaces.
	Text string `json:"summary"`
	// Sentences holds the selected sentences in document order.
	Sentences []segmenter.Sentence `json:"sentences"`
	// SentenceCount is the number of sentences found in the document.
	SentenceCount int `json:"sentence_count"`
	// Scores is nil when the document had no more sentences than requested.
	Scores   []scorer.SentenceScore `json:"scores,omitempty"`
	Duration time.Duration          `json:"-"`
}

// Summarizer is safe for concurrent use.
type Summarizer struct {
	resources *Resources
	workers   int
	logger    *slog.Logger
}

type Option func(*Summarizer)

// WithWorkers bounds the per-request fan-out. Values below 1 select
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Summarizer) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		s.workers = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Summarizer) { s.logger = l }
}

func New(resources *Resources, opts ...Option) *Summarizer {
	s := &Summarizer{
		resources: resources,
		workers:   runtime.GOMAXPROCS(0),
		logger:    slog.Default().With("component", "summarizer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize extracts the n most significant sentences of text.
//
// Empty or whitespace-only text is rejected before n is checked, and n before the text is
// segmented, so callers always see the most basic problem first.
func (s *Summarizer) Summarize(ctx context.Context, text string, n int) (*Summary, error) {
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrEmptyInput
	}
	if n < 1 {
		return nil, fmt.Errorf("num_sentences must be >= 1, got %d: %w", n, apperrors.ErrInvalidParameter)
	}

	_, span := tracing.StartChildSpan(ctx, "summarizer.segment")
	sentences, tokens, err := segmenter.Segment(text, s.resources.Sentences, s.resources.Words)
	span.SetAttr("sentences", len(sentences))
	span.End()
	if err != nil {
		return nil, err
	}

	if len(sentences) <= n {
		s.logger.Debug("document shorter than requested summary",
			"sentences", len(sentences),
			"requested", n,
		)
		return &Summary{
			Text:          assembler.Assemble(sentences),
			Sentences:     sentences,
			SentenceCount: len(sentences),
			Duration:      time.Since(start),
		}, nil
	}

	spanCtx, span := tracing.StartChildSpan(ctx, "summarizer.normalize")
	terms, err := s.normalizeAll(spanCtx, tokens)
	span.End()
	if err != nil {
		return nil, err
	}

	_, span = tracing.StartChildSpan(ctx, "summarizer.frequency")
	table := frequency.Build(terms)
	span.SetAttr("vocabulary", table.Len())
	span.SetAttr("terms", table.Total())
	span.End()

	spanCtx, span = tracing.StartChildSpan(ctx, "summarizer.score")
	scores, err := s.scoreAll(spanCtx, terms, table)
	span.End()
	if err != nil {
		return nil, err
	}

	indices, err := selector.Select(scores, n)
	if err != nil {
		return nil, err
	}
	chosen := make([]segmenter.Sentence, len(indices))
	for i, idx := range indices {
		chosen[i] = sentences[idx]
	}

	summary := &Summary{
		Text:          assembler.Assemble(chosen),
		Sentences:     chosen,
		SentenceCount: len(sentences),
		Scores:        scores,
		Duration:      time.Since(start),
	}
	s.logger.Debug("summary built",
		"sentences", len(sentences),
		"selected", len(chosen),
		"vocabulary", table.Len(),
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary, nil
}

func (s *Summarizer) normalizeAll(ctx context.Context, tokens [][]string) ([][]string, error) {
	terms := make([][]string, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range tokens {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			terms[i] = s.resources.Normalizer.Normalize(tokens[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, contextError(err)
	}
	return terms, nil
}

func (s *Summarizer) scoreAll(ctx context.Context, terms [][]string, table *frequency.Table) ([]scorer.SentenceScore, error) {
	if s.workers == 1 {
		if err := ctx.Err(); err != nil {
			return nil, contextError(err)
		}
		return scorer.ScoreAll(terms, table), nil
	}
	scores := make([]scorer.SentenceScore, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range terms {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = scorer.Score(i, terms[i], table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, contextError(err)
	}
	return scores, nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("summarization cancelled: %w", apperrors.ErrTimeout)
	}
	return err
}
