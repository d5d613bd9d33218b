package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/core"
)

const requestIDHeader = "X-Request-ID"

var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"Strict-Transport-Security": "max-age=63072000; includeSubDomains; preload",
	"X-XSS-Protection":          "1; mode=block",
	"Referrer-Policy":           "origin-when-cross-origin",
}

// RequestID propagates X-Request-ID or generates a new one, and stores it in
// the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(core.WithRequestID(r.Context(), requestID)))
	})
}

// SecurityHeaders sets the browser hardening headers on page routes
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isExemptPath(r.URL.Path) {
			for name, value := range securityHeaders {
				w.Header().Set(name, value)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// isExemptPath reports API endpoints and static assets
func isExemptPath(path string) bool {
	switch {
	case path == "/api" || strings.HasPrefix(path, "/api/"):
		return true
	case path == contactAPIPath:
		return true
	case strings.HasPrefix(path, staticPrefix):
		return true
	case path == "/favicon.ico":
		return true
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// AccessLog logs one line per request
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", core.RequestIDFromContext(r.Context())))
		})
	}
}
