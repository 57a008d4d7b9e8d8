package rest

import (
	"net/http"
	"time"

	"github.com/nDmitry/stackfeed/internal/app"
	"github.com/nDmitry/stackfeed/internal/metrics"
)

// Logger wraps an http.Handler with request/response logging and records
// request metrics by matched route
func Logger(next http.Handler) http.Handler {
	logger := app.Logger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)

		// The mux fills in the pattern of the matched route
		route := r.Pattern

		if route == "" {
			route = "unmatched"
		}

		metrics.RecordHTTP(route, lrw.statusCode, duration.Seconds())

		logger.Info("HTTP response",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", lrw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"bytes", lrw.bytesWritten,
			"cache", lrw.Header().Get("X-CACHE-STATUS"),
		)
	})
}

// loggingResponseWriter captures the status code and response size
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

// Unwrap returns the original ResponseWriter
func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}
