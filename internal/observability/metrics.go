package observability

import "github.com/prometheus/client_golang/prometheus"

// HTTP series are keyed by the matched ServeMux pattern, never the raw path.
var httpLabels = []string{"method", "route", "status"}

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlagent_http_requests_total",
		Help: "HTTP requests served by the SQL agent API.",
	}, httpLabels)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "sqlagent_http_request_duration_seconds",
		Help: "Time to serve an HTTP request. Ask requests include the full agent run.",
		// Agent runs take seconds, so the buckets reach past the default 10s.
		Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, httpLabels)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDurationSeconds)
}
