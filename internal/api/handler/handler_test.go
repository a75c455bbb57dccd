package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/jobs"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/tracing"
)

const catsAndDogs = "Cats are great. Dogs are great too. Cats and dogs are pets."

var testConfig = Config{DefaultSentences: 5, MaxSentences: 15, MaxUploadBytes: 1 << 20}

type fakeSubmitter struct {
	text string
	n    int
}

func (f *fakeSubmitter) Submit(_ context.Context, text string, n int) (*jobs.Accepted, error) {
	if text == "" {
		return nil, apperrors.ErrEmptyInput
	}
	f.text, f.n = text, n
	return &jobs.Accepted{JobID: "job_test", Status: jobs.StatusQueued}, nil
}

type fixture struct {
	h       *Handler
	m       *metrics.Metrics
	agg     *analytics.Aggregator
	jobs    *fakeSubmitter
	summary Summarizer
}

func newFixture(t *testing.T, cfg Config, s Summarizer) *fixture {
	t.Helper()
	if s == nil {
		res, err := summarizer.LoadResources(config.SummarizerConfig{})
		require.NoError(t, err)
		s = summarizer.New(res, summarizer.WithWorkers(2))
	}
	f := &fixture{
		m:       metrics.New(prometheus.NewRegistry()),
		agg:     analytics.NewAggregator(),
		jobs:    &fakeSubmitter{},
		summary: s,
	}
	f.h = New(cfg, s, f.jobs, f.agg, f.m, tracing.NewTracer(false, 0))
	return f
}

func postJSON(t *testing.T, fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestSummarize(t *testing.T) {
	f := newFixture(t, testConfig, nil)
	rec := postJSON(t, f.h.Summarize, `{"text":"`+catsAndDogs+`","num_sentences":1}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[SummarizeResponse](t, rec)
	assert.Equal(t, "Cats and dogs are pets.", resp.Summary)
	assert.Equal(t, 3, resp.SentenceCount)
	assert.Equal(t, 1, resp.Selected)
	require.Len(t, resp.Sentences, 1)
	assert.Equal(t, 2, resp.Sentences[0].Index)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.SummariesTotal.WithLabelValues("text", "ok")))
	assert.EqualValues(t, 1, f.agg.Stats().Succeeded)
}

func TestSummarizeDefaultsNumSentences(t *testing.T) {
	f := newFixture(t, testConfig, nil)
	rec := postJSON(t, f.h.Summarize, `{"text":"`+catsAndDogs+`"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SummarizeResponse](t, rec)
	assert.Equal(t, catsAndDogs, resp.Summary)
	assert.Equal(t, 3, resp.Selected)
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"empty text", `{"text":"","num_sentences":0}`, http.StatusBadRequest, "empty_input"},
		{"zero sentences", `{"text":"One.","num_sentences":0}`, http.StatusBadRequest, "invalid_parameter"},
		{"above maximum", `{"text":"One.","num_sentences":16}`, http.StatusBadRequest, "invalid_parameter"},
		{"whitespace only", `{"text":"   \n\t ","num_sentences":2}`, http.StatusBadRequest, "empty_input"},
		{"malformed json", `{"text":`, http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig, nil)
			rec := postJSON(t, f.h.Summarize, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, decode[map[string]string](t, rec)["kind"])
		})
	}
}

func TestSummarizeBodyTooLarge(t *testing.T) {
	cfg := testConfig
	cfg.MaxUploadBytes = 32
	f := newFixture(t, cfg, nil)
	rec := postJSON(t, f.h.Summarize, `{"text":"`+strings.Repeat("word ", 20)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// blockingSummarizer holds every call until release is closed.
type blockingSummarizer struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSummarizer) Summarize(context.Context, string, int) (*summarizer.Summary, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- struct{}{}
	<-b.release
	return &summarizer.Summary{Text: "A.", SentenceCount: 1}, nil
}

func TestIdenticalConcurrentRequestsShareOneRun(t *testing.T) {
	stub := &blockingSummarizer{entered: make(chan struct{}, 4), release: make(chan struct{})}
	f := newFixture(t, testConfig, stub)

	first := make(chan *summarizer.Summary)
	go func() {
		s, _ := f.h.run(context.Background(), analytics.SourceText, "", "A.", 1)
		first <- s
	}()
	<-stub.entered

	second := make(chan *summarizer.Summary)
	go func() {
		s, _ := f.h.run(context.Background(), analytics.SourceText, "", "A.", 1)
		second <- s
	}()
	// let the second caller join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(stub.release)

	a, b := <-first, <-second
	assert.Same(t, a, b)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.m.CoalescedRequests))
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, h *Handler, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	return rec
}

func TestUploadText(t *testing.T) {
	f := newFixture(t, testConfig, nil)
	rec := upload(t, f.h, "pets.TXT", []byte(catsAndDogs), map[string]string{"num_sentences": "1"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[SummarizeResponse](t, rec)
	assert.Equal(t, "Cats and dogs are pets.", resp.Summary)
	assert.Equal(t, "txt", resp.Format)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.SummariesTotal.WithLabelValues("upload", "ok")))
	assert.EqualValues(t, 1, f.agg.Stats().ByFormat["txt"])
}

func TestUploadClampsNumSentences(t *testing.T) {
	f := newFixture(t, Config{DefaultSentences: 1, MaxSentences: 2, MaxUploadBytes: 1 << 20}, nil)

	rec := upload(t, f.h, "a.txt", []byte(catsAndDogs), map[string]string{"num_sentences": "0"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[SummarizeResponse](t, rec).Selected)

	rec = upload(t, f.h, "a.txt", []byte(catsAndDogs), map[string]string{"num_sentences": "99"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[SummarizeResponse](t, rec).Selected)

	rec = upload(t, f.h, "a.txt", []byte(catsAndDogs), map[string]string{"num_sentences": "many"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadErrors(t *testing.T) {
	f := newFixture(t, testConfig, nil)

	rec := upload(t, f.h, "slides.pptx", []byte("x"), nil)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = upload(t, f.h, "", nil, map[string]string{"num_sentences": "2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, f.h, "broken.pdf", []byte("not a pdf"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[map[string]string](t, rec)["kind"])
	assert.EqualValues(t, 1, f.agg.Stats().ErrorsByKind["invalid_input"])

	rec = upload(t, f.h, "empty.txt", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_input", decode[map[string]string](t, rec)["kind"])

	rec = upload(t, f.h, "blank.txt", []byte("  \n\t \r\n "), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_input", decode[map[string]string](t, rec)["kind"])
}

func TestUploadTooLarge(t *testing.T) {
	f := newFixture(t, Config{DefaultSentences: 1, MaxSentences: 2, MaxUploadBytes: 16}, nil)
	rec := upload(t, f.h, "big.txt", []byte(strings.Repeat("a", 100)), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestEvaluate(t *testing.T) {
	f := newFixture(t, testConfig, nil)
	rec := postJSON(t, f.h.Evaluate, `{"reference":"the cat sat on the mat","summary":"the cat sat on the mat"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	scores := decode[evaluation.Scores](t, rec)
	assert.InDelta(t, 1.0, scores.Rouge1.F1, 1e-9)
	assert.InDelta(t, 1.0, scores.RougeL.F1, 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.EvaluationsTotal))

	rec = postJSON(t, f.h.Evaluate, `{"reference":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitJob(t *testing.T) {
	f := newFixture(t, testConfig, nil)
	rec := postJSON(t, f.h.SubmitJob, `{"text":"`+catsAndDogs+`","num_sentences":2}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	acc := decode[jobs.Accepted](t, rec)
	assert.Equal(t, "job_test", acc.JobID)
	assert.Equal(t, 2, f.jobs.n)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.JobsTotal.WithLabelValues("queued")))

	rec = postJSON(t, f.h.SubmitJob, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitJobDisabled(t *testing.T) {
	res, err := summarizer.LoadResources(config.SummarizerConfig{})
	require.NoError(t, err)
	h := New(testConfig, summarizer.New(res), nil, nil, metrics.New(prometheus.NewRegistry()), tracing.NewTracer(false, 0))

	rec := postJSON(t, h.SubmitJob, `{"text":"A."}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
