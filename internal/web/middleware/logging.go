// Package middleware provides HTTP middleware for the claims API.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/claims/internal/logging"
)

// Logger logs one structured line per request once the handler returns.
//
// Log fields:
//   - method, path: the request line
//   - status: response status code (200 when the handler never set one)
//   - duration_ms: handler time, which for SSE streams covers the whole stream
//   - ip: client address after TrustedRealIP
//   - user_agent: client user agent string
//
// The request id from chi's RequestID middleware is attached by
// logging.FromContext.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		logger := logging.FromContext(r.Context())
		level := logger.Info
		if ww.status >= http.StatusInternalServerError {
			level = logger.Warn
		}
		level("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}

// responseWriter records the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer, which the
// chat stream needs to flush each event.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
