// Package httpadmin implements the engine's internal admin server: health
// and readiness checks plus the Prometheus /metrics endpoint. This is NOT
// the job-submission HTTP surface (that is an external collaborator); it is
// operational infrastructure for running the engine, a single small
// internal router with request-ID, security-header, and CORS middleware.
package httpadmin

import (
	"context"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	loggerKey    contextKey = "logger"
)

// RequestIDMiddleware stamps every request with a UUID, returns it in the
// X-Request-ID response header, and attaches both the ID and a
// request-scoped logger to the request context.
func RequestIDMiddleware(log logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set("X-Request-ID", id)

			ctx := context.WithValue(r.Context(), requestIDKey, id)
			ctx = context.WithValue(ctx, loggerKey, log.WithValues("request_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the request ID stashed in ctx by RequestIDMiddleware,
// or "unknown" if the middleware was not applied.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// GetLogger returns the request-scoped logger stashed in ctx, or a discard
// logger if the middleware was not applied.
func GetLogger(ctx context.Context) logr.Logger {
	if log, ok := ctx.Value(loggerKey).(logr.Logger); ok {
		return log
	}
	return logr.Discard()
}

// SecurityHeaders sets the fixed set of defensive response headers every
// admin-server response carries, regardless of route.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}
