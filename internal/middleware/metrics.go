package middleware

import (
	"net/http"
	"time"

	"github.com/sakif/linkup/internal/metrics"
)

// Metrics records request counts and latencies, labelled by the matched
// route pattern so that /api/posts/abc and /api/posts/def share a series.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			m.RecordHTTPRequest(r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
		})
	}
}
