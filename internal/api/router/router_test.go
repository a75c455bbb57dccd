package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/api/handler"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/tracing"
)

type staticValidator map[string]*apikey.KeyInfo

func (v staticValidator) Validate(_ context.Context, raw string) (*apikey.KeyInfo, error) {
	if info, ok := v[raw]; ok {
		return info, nil
	}
	return nil, apikey.ErrInvalidKey
}

func newRouter(t *testing.T, validator staticValidator, limiter ratelimit.Limiter) (http.Handler, *metrics.Metrics) {
	t.Helper()
	res, err := summarizer.LoadResources(config.SummarizerConfig{})
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	agg := analytics.NewAggregator()
	h := handler.New(
		handler.Config{DefaultSentences: 2, MaxSentences: 5, MaxUploadBytes: 1 << 20},
		summarizer.New(res), nil, agg, m, tracing.NewTracer(false, 0),
	)
	checker := health.NewChecker()
	checker.Register("pipeline", health.Static(health.StatusUp, ""))

	d := Deps{
		Handler:        h,
		Analytics:      analytics.NewHandler(agg, nil),
		Health:         checker,
		Metrics:        m,
		DefaultLimit:   2,
		AllowedOrigins: []string{"https://app.example"},
		RequestTimeout: 5 * time.Second,
	}
	if validator != nil {
		d.Validator = validator
	}
	if limiter != nil {
		d.Limiter = limiter
	}
	return New(d), m
}

func summarizeRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize",
		strings.NewReader(`{"text":"One sentence here. Another one there. A third.","num_sentences":1}`))
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	return req
}

func TestSummarizeThroughRouter(t *testing.T) {
	r, m := newRouter(t, nil, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, summarizeRequest(""))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"selected":1`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/summarize", "200")))
}

func TestHealthAndAnalyticsRoutes(t *testing.T) {
	r, _ := newRouter(t, staticValidator{}, nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth(t *testing.T) {
	r, _ := newRouter(t, staticValidator{"sk_ok": {ID: "1", RateLimit: 10}}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, summarizeRequest(""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"unauthorized"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, summarizeRequest("sk_wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := summarizeRequest("")
	req.Header.Set("Authorization", "Bearer sk_ok")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitPerKey(t *testing.T) {
	r, m := newRouter(t, staticValidator{"sk_ok": {ID: "1", RateLimit: 1}}, ratelimit.NewMemoryLimiter(time.Minute))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, summarizeRequest("sk_ok"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, summarizeRequest("sk_ok"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"kind":"rate_limited"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitedTotal))
}

func TestRateLimitAnonymousUsesDefault(t *testing.T) {
	r, _ := newRouter(t, nil, ratelimit.NewMemoryLimiter(time.Minute))
	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, summarizeRequest(""))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newRouter(t, staticValidator{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/summarize", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/summarize", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
