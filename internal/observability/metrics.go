package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	reviewAttemptsTotal  *prometheus.CounterVec
	reviewLatencySeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docserver_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docserver_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		reviewAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docserver_review_attempts_total",
			Help: "Automated review attempts by outcome (pass, needs_fix, reject, unknown, error).",
		}, []string{"outcome"})

		reviewLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docserver_review_latency_seconds",
			Help:    "End-to-end latency of one automated review attempt.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, reviewAttemptsTotal, reviewLatencySeconds)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// ReviewAttempts exposes the automated-review outcome counter.
func ReviewAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewAttemptsTotal
}

// ReviewLatency exposes the automated-review latency histogram.
func ReviewLatency() prometheus.Histogram {
	RegisterMetrics()
	return reviewLatencySeconds
}
