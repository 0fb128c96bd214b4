package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder receives one observation per completed request.
type RequestRecorder interface {
	RecordRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics returns middleware that reports each request labelled by its
// matched route pattern.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			recorder.RecordRequest(r.Method, routePattern(r), rec.statusCode, time.Since(start))
		})
	}
}
