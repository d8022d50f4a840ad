package metrics

import "github.com/prometheus/client_golang/prometheus"

// Completion provider Prometheus metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venueqa",
			Name:      "completion_requests_total",
			Help:      "Total number of completion attempts",
		},
		[]string{"provider", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "venueqa",
			Name:      "completion_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	CompletionFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "venueqa",
			Name:      "completion_fallbacks_total",
			Help:      "Answers served by a provider other than the first configured one",
		},
	)
)

// RegisterCompletionMetrics registers completion metrics with the default registry.
func RegisterCompletionMetrics() {
	prometheus.MustRegister(
		CompletionRequestsTotal,
		CompletionRequestDuration,
		CompletionFallbacksTotal,
	)
}
