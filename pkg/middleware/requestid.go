// Package middleware provides reusable HTTP middleware for request IDs,
// access logging, panic recovery, Prometheus metrics, and request timeouts.
package middleware

import (
	"context"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID or assigns a new one, echoes
// it on the response and stores it in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = NewRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// NewRequestID returns a random URL-safe identifier.
func NewRequestID() string {
	id, err := gonanoid.New()
	if err != nil {
		// only fails if the system random source is broken
		panic(err)
	}
	return id
}

// GetRequestID returns the ID stored by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	return logger.RequestID(ctx)
}
