package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ragbackend/metrics"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request correlation ID in both directions
const RequestIDHeader = "X-Request-ID"

// requestIDMiddleware tags every request with an ID taken from the
// X-Request-ID header, or a new UUID when the header is absent. The ID is
// echoed in the response and stored in the request context.
func (a *API) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := sanitizeRequestID(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := WithRequestID(r.Context(), requestID)
		ctx = WithTraceStart(ctx, time.Now())

		a.logger.Debugw("request_started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLogMiddleware writes one line per completed request in the form
// "<method> <url> <status> <content-length> - <ms> ms" and records the
// request metrics.
func (a *API) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method).Observe(duration.Seconds())

		line := fmt.Sprintf("%s %s %d %s - %.3f ms\n",
			r.Method,
			r.URL.RequestURI(),
			wrapped.statusCode,
			wrapped.contentLength(),
			float64(duration.Nanoseconds())/1e6)
		if _, err := a.accessLog.Write([]byte(line)); err != nil {
			a.logger.Debugw("Failed to write access log line", "error", err)
		}
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture the status code
// and the number of body bytes written.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
	written    bool
	bytes      int
}

// WriteHeader captures the status code before writing it.
func (w *responseWriterWrapper) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write implements http.ResponseWriter.Write and counts body bytes.
func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	if !w.written {
		w.statusCode = http.StatusOK
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// contentLength prefers the declared Content-Length header, then the bytes
// actually written, and renders "-" when neither is known.
func (w *responseWriterWrapper) contentLength() string {
	if cl := w.Header().Get("Content-Length"); cl != "" {
		return cl
	}
	if w.bytes > 0 {
		return strconv.Itoa(w.bytes)
	}
	return "-"
}

// sanitizeRequestID cleans request ID to prevent log injection.
// Only allows alphanumeric characters, dashes, and underscores.
// Truncates to maximum 64 characters to prevent memory issues.
func sanitizeRequestID(id string) string {
	const maxLen = 64

	if len(id) > maxLen {
		id = id[:maxLen]
	}

	result := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_' {
			result = append(result, c)
		}
	}

	return string(result)
}
