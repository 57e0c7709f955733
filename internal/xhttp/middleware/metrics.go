package middleware

import (
	"net/http"
	"time"

	"github.com/garrettladley/storefront/internal/metrics"
)

// Metrics records request counts and latency on m.
func Metrics(m *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			m.ObserveRequest(r.Method, wrapped.status, time.Since(start))
		})
	}
}
