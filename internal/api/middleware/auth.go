// Package middleware provides the public API's authentication, CORS and
// rate-limiting middleware.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/auth/apikey"
	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
)

type contextKey string

const apiKeyInfoKey contextKey = "api_key_info"

// KeyValidator resolves a raw API key.
type KeyValidator interface {
	Validate(ctx context.Context, rawKey string) (*apikey.KeyInfo, error)
}

// Auth rejects requests without a valid API key. Keys are read from
// Authorization: Bearer, then X-API-Key, then the api_key query parameter.
// Health endpoints are exempt.
func Auth(validator KeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := extractAPIKey(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, fmt.Errorf("missing api key: %w", apperrors.ErrUnauthorized))
				return
			}

			info, err := validator.Validate(r.Context(), key)
			switch {
			case errors.Is(err, apikey.ErrInvalidKey):
				writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid api key: %w", apperrors.ErrUnauthorized))
				return
			case errors.Is(err, apikey.ErrExpiredKey):
				writeError(w, http.StatusUnauthorized, fmt.Errorf("expired api key: %w", apperrors.ErrUnauthorized))
				return
			case err != nil:
				logger.FromContext(r.Context()).Error("api key validation failed", "error", err)
				writeError(w, http.StatusInternalServerError, apperrors.ErrInternal)
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetKeyInfo returns the KeyInfo stored by Auth, or nil.
func GetKeyInfo(ctx context.Context) *apikey.KeyInfo {
	info, _ := ctx.Value(apiKeyInfoKey).(*apikey.KeyInfo)
	return info
}

func extractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return r.URL.Query().Get("api_key")
}

func isExempt(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/health") || r.Method == http.MethodOptions
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q,"kind":%q}`+"\n", err.Error(), apperrors.Kind(err))
}
