// Package handler implements the summarization HTTP API: plain-text and
// uploaded-document summarization, ROUGE evaluation and asynchronous jobs.
package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/jobs"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/reader"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/segmenter"
	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/tracing"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 64 << 10

type Summarizer interface {
	Summarize(ctx context.Context, text string, n int) (*summarizer.Summary, error)
}

type JobSubmitter interface {
	Submit(ctx context.Context, text string, n int) (*jobs.Accepted, error)
}

type Config struct {
	DefaultSentences int
	MaxSentences     int
	MaxUploadBytes   int64
}

type SummarizeRequest struct {
	Text         string `json:"text"`
	NumSentences *int   `json:"num_sentences,omitempty"`
}

type SummarizeResponse struct {
	Summary       string               `json:"summary"`
	Sentences     []segmenter.Sentence `json:"sentences"`
	SentenceCount int                  `json:"sentence_count"`
	Selected      int                  `json:"selected"`
	Format        string               `json:"format,omitempty"`
	DurationMs    float64              `json:"duration_ms"`
}

type EvaluateRequest struct {
	Reference string `json:"reference"`
	Summary   string `json:"summary"`
}

type Handler struct {
	cfg        Config
	summarizer Summarizer
	jobs       JobSubmitter
	tracker    analytics.Tracker
	metrics    *metrics.Metrics
	tracer     *tracing.Tracer
	group      singleflight.Group
	logger     *slog.Logger
}

// New builds the handler. submitter and tracker may be nil; without a
// submitter the job route answers 503.
func New(cfg Config, s Summarizer, submitter JobSubmitter, tracker analytics.Tracker, m *metrics.Metrics, tracer *tracing.Tracer) *Handler {
	return &Handler{
		cfg:        cfg,
		summarizer: s,
		jobs:       submitter,
		tracker:    analytics.Tee(tracker),
		metrics:    m,
		tracer:     tracer,
		logger:     slog.Default().With("component", "api-handler"),
	}
}

// Summarize handles POST /api/v1/summarize.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.requestedSentences(req.NumSentences)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	summary, err := h.run(r.Context(), analytics.SourceText, "", req.Text, n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newResponse(summary, ""))
}

// Upload handles POST /api/v1/summarize/upload. The document arrives in the
// multipart field "file"; num_sentences is an optional form field clamped to
// [1, MaxSentences].
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, apperrors.Newf(apperrors.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge,
				"upload exceeds %d bytes", h.cfg.MaxUploadBytes))
			return
		}
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	format, err := reader.FormatFromFilename(header.Filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.formSentences(r.FormValue("num_sentences"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("reading upload: %w", err))
		return
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		h.writeError(w, r, apperrors.Newf(apperrors.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge,
			"upload exceeds %d bytes", h.cfg.MaxUploadBytes))
		return
	}
	h.metrics.UploadBytes.WithLabelValues(string(format)).Observe(float64(len(data)))

	text, err := reader.Read(format, data)
	if err != nil {
		h.track(r.Context(), analytics.SourceUpload, string(format), len(data), n, nil, 0, err)
		h.writeError(w, r, err)
		return
	}

	summary, err := h.run(r.Context(), analytics.SourceUpload, string(format), text, n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newResponse(summary, string(format)))
}

// Evaluate handles POST /api/v1/evaluate.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Reference == "" || req.Summary == "" {
		h.writeError(w, r, apperrors.New(apperrors.ErrEmptyInput, http.StatusBadRequest, "reference and summary are both required"))
		return
	}
	h.metrics.EvaluationsTotal.Inc()
	h.writeJSON(w, http.StatusOK, evaluation.Evaluate(req.Reference, req.Summary))
}

// SubmitJob handles POST /api/v1/jobs.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "asynchronous jobs are disabled",
			"kind":  "unavailable",
		})
		return
	}
	var req SummarizeRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.requestedSentences(req.NumSentences)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	accepted, err := h.jobs.Submit(r.Context(), req.Text, n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.JobsTotal.WithLabelValues(jobs.StatusQueued).Inc()
	h.writeJSON(w, http.StatusAccepted, accepted)
}

// run summarizes text under a root span. Identical requests in flight at the
// same time share one pipeline run.
func (h *Handler) run(ctx context.Context, source analytics.Source, format, text string, n int) (*summarizer.Summary, error) {
	ctx, root := h.tracer.Start(ctx, "summarize."+string(source), logger.RequestID(ctx))
	root.SetAttr("num_sentences", n)
	root.SetAttr("input_bytes", len(text))
	defer h.tracer.Finish(root)

	start := time.Now()
	v, err, shared := h.group.Do(flightKey(text, n), func() (any, error) {
		return h.summarizer.Summarize(ctx, text, n)
	})
	elapsed := time.Since(start)
	if shared {
		h.metrics.CoalescedRequests.Inc()
	}

	var summary *summarizer.Summary
	if err == nil {
		summary = v.(*summarizer.Summary)
	}
	h.track(ctx, source, format, len(text), n, summary, elapsed, err)
	return summary, err
}

func (h *Handler) track(ctx context.Context, source analytics.Source, format string, inputBytes, n int, summary *summarizer.Summary, elapsed time.Duration, err error) {
	event := analytics.SummaryEvent{
		Source:             source,
		Format:             format,
		RequestedSentences: n,
		InputBytes:         inputBytes,
		LatencyMs:          elapsed.Milliseconds(),
		Timestamp:          time.Now().UTC(),
		RequestID:          logger.RequestID(ctx),
	}
	outcome := "ok"
	if err != nil {
		outcome = apperrors.Kind(err)
		event.ErrorKind = outcome
	} else {
		event.Success = true
		event.DocumentSentences = summary.SentenceCount
		event.SelectedSentences = len(summary.Sentences)
		h.metrics.DocumentSentences.Observe(float64(summary.SentenceCount))
		h.metrics.SelectedSentences.Observe(float64(len(summary.Sentences)))
	}
	h.metrics.SummariesTotal.WithLabelValues(string(source), outcome).Inc()
	h.metrics.SummarizeDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
	h.tracker.Track(event)
}

// requestedSentences applies the default for an absent value and rejects
// values above MaxSentences. Values below 1 are left to the summarizer.
func (h *Handler) requestedSentences(n *int) (int, error) {
	if n == nil {
		return h.cfg.DefaultSentences, nil
	}
	if *n > h.cfg.MaxSentences {
		return 0, apperrors.Newf(apperrors.ErrInvalidParameter, http.StatusBadRequest,
			"num_sentences must be at most %d, got %d", h.cfg.MaxSentences, *n)
	}
	return *n, nil
}

func (h *Handler) formSentences(v string) (int, error) {
	if v == "" {
		return h.cfg.DefaultSentences, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrInvalidParameter, http.StatusBadRequest, "num_sentences %q is not an integer", v)
	}
	return min(max(n, 1), h.cfg.MaxSentences), nil
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.Newf(apperrors.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge,
				"request body exceeds %d bytes", h.cfg.MaxUploadBytes)
		}
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid JSON body")
	}
	return nil
}

func flightKey(text string, n int) string {
	sum := sha256.Sum256([]byte(text))
	return strconv.Itoa(n) + ":" + hex.EncodeToString(sum[:])
}

func newResponse(s *summarizer.Summary, format string) SummarizeResponse {
	sentences := s.Sentences
	if sentences == nil {
		sentences = []segmenter.Sentence{}
	}
	return SummarizeResponse{
		Summary:       s.Text,
		Sentences:     sentences,
		SentenceCount: s.SentenceCount,
		Selected:      len(sentences),
		Format:        format,
		DurationMs:    float64(s.Duration.Microseconds()) / 1000,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && !errors.Is(err, apperrors.ErrTimeout) {
		logger.FromContext(r.Context()).Error("request failed", "error", err)
		msg = "internal server error"
	}
	h.writeJSON(w, status, map[string]string{"error": msg, "kind": apperrors.Kind(err)})
}
