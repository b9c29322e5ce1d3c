// Package metrics exposes Prometheus instrumentation for the dashboard API.
// The handler is mounted at GET /metrics; runtime and process metrics come
// for free from prometheus/client_golang.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPRequests counts API requests by method, route pattern and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "crm_insights_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "path", "status"})

// HTTPDuration tracks API latency by method and route pattern.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "crm_insights_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "path"})

// AnalyticsRuns counts analytics computations by operation and outcome.
var AnalyticsRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "crm_insights_analytics_runs_total",
	Help: "Analytics engine invocations by operation and result.",
}, []string{"operation", "result"})

// RowsDropped counts rows dropped during coercion, by upload.
var RowsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "crm_insights_rows_dropped_total",
	Help: "Rows dropped because a date or amount cell failed to parse.",
})

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status for the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every request with count and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		HTTPRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
