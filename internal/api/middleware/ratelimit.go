package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/auth/ratelimit"
	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/metrics"
)

// RateLimit enforces per-caller quotas. Authenticated callers are keyed by
// API key ID and use the key's own limit; anonymous callers are keyed by
// client IP and use defaultLimit. A limiter error lets the request through.
func RateLimit(limiter ratelimit.Limiter, defaultLimit int, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			key, limit := "ip:"+clientIP(r), defaultLimit
			if info := GetKeyInfo(r.Context()); info != nil {
				key = "key:" + info.ID
				if info.RateLimit > 0 {
					limit = info.RateLimit
				}
			}

			d, err := limiter.Allow(r.Context(), key, limit)
			if err != nil {
				logger.FromContext(r.Context()).Warn("rate limiter unavailable, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				if m != nil {
					m.RateLimitedTotal.Inc()
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
				writeError(w, http.StatusTooManyRequests, fmt.Errorf("%d requests per window: %w", d.Limit, apperrors.ErrRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
