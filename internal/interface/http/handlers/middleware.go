// Package handlers contains HTTP handler interfaces and middleware for the
// analytics API surface.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRIGGER AUTHENTICATION MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// SecretHeader is the header carrying the batch trigger secret.
const SecretHeader = "X-Batch-Secret"

// TriggerAuth guards the batch trigger endpoints with a shared secret. Only
// the bcrypt hash of the secret is configured on the server; the plaintext
// lives with the external scheduler that calls the endpoints.
type TriggerAuth struct {
	secretHash []byte
}

// NewTriggerAuth creates the authenticator from a bcrypt hash string.
func NewTriggerAuth(secretHash string) *TriggerAuth {
	return &TriggerAuth{secretHash: []byte(secretHash)}
}

// Verify checks a presented secret against the configured hash.
func (a *TriggerAuth) Verify(secret string) bool {
	if len(a.secretHash) == 0 || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.secretHash, []byte(secret)) == nil
}

// Middleware rejects requests that do not present the shared secret, either
// in the X-Batch-Secret header or as a bearer token.
func (a *TriggerAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get(SecretHeader)
		if secret == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				secret = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if secret == "" {
			http.Error(w, `{"error":"missing_credential","message":"Trigger secret is required"}`, http.StatusUnauthorized)
			return
		}

		if !a.Verify(secret) {
			http.Error(w, `{"error":"invalid_credential","message":"Trigger secret is not valid"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// TIMEOUT MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// TimeoutMiddleware adds a timeout to request contexts. Batch triggers pass
// this context down to the run, so a dropped client cancels the pass.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SECURITY HEADERS MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// SecurityHeadersMiddleware adds security-related headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST SIZE LIMIT MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// RequestSizeLimitMiddleware limits the size of request bodies.
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, `{"error":"payload_too_large","message":"Request body too large"}`,
					http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// MiddlewareFunc is a function that wraps an http.Handler.
type MiddlewareFunc func(http.Handler) http.Handler

// Chain chains multiple middleware functions.
func Chain(middlewares ...MiddlewareFunc) MiddlewareFunc {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
