// Package router wires the public API routes and the middleware chain.
package router

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/api/handler"
	apimw "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/api/middleware"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/middleware"
)

// Deps are the collaborators of the router. Validator and Limiter are
// optional: a nil Validator disables authentication and a nil Limiter
// disables rate limiting.
type Deps struct {
	Handler        *handler.Handler
	Analytics      *analytics.Handler
	Health         *health.Checker
	Metrics        *metrics.Metrics
	Validator      apimw.KeyValidator
	Limiter        ratelimit.Limiter
	DefaultLimit   int
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// New builds the API handler.
//
// Route table:
//
//	POST /api/v1/summarize             → summarize JSON text
//	POST /api/v1/summarize/upload      → summarize an uploaded txt, pdf or docx
//	POST /api/v1/evaluate              → ROUGE scores of a summary
//	POST /api/v1/jobs                  → queue an asynchronous summary
//	GET  /api/v1/analytics             → live usage statistics
//	GET  /api/v1/analytics/snapshots   → persisted statistics
//	GET  /health/live, /health/ready   → probes (unauthenticated)
//
// Middleware chain (outermost first):
//
//	RequestID → Recover → AccessLog → Metrics → CORS → Timeout → Auth → RateLimit → mux
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", d.Health.LiveHandler())
	mux.HandleFunc("GET /health/ready", d.Health.ReadyHandler())

	mux.HandleFunc("POST /api/v1/summarize", d.Handler.Summarize)
	mux.HandleFunc("POST /api/v1/summarize/upload", d.Handler.Upload)
	mux.HandleFunc("POST /api/v1/evaluate", d.Handler.Evaluate)
	mux.HandleFunc("POST /api/v1/jobs", d.Handler.SubmitJob)

	mux.HandleFunc("GET /api/v1/analytics", d.Analytics.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", d.Analytics.Snapshots)

	routes := []string{
		"/health/live", "/health/ready",
		"/api/v1/summarize", "/api/v1/summarize/upload", "/api/v1/evaluate", "/api/v1/jobs",
		"/api/v1/analytics", "/api/v1/analytics/snapshots",
	}

	// applied inside-out
	var chain http.Handler = mux
	if d.Limiter != nil {
		chain = apimw.RateLimit(d.Limiter, d.DefaultLimit, d.Metrics)(chain)
	}
	if d.Validator != nil {
		chain = apimw.Auth(d.Validator)(chain)
	}
	chain = pkgmw.Timeout(d.RequestTimeout)(chain)
	chain = apimw.CORS(apimw.DefaultCORSConfig(d.AllowedOrigins))(chain)
	chain = pkgmw.Metrics(d.Metrics, routes...)(chain)
	chain = pkgmw.AccessLog(chain)
	chain = pkgmw.Recover(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}
