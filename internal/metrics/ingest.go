package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics, labeled by entity type.
var (
	IngestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "venueqa",
			Name:      "ingest_records_total",
			Help:      "Records seen by ingestion, by outcome",
		},
		[]string{"entity", "outcome"}, // fetched / skipped / embedded / upserted / failed
	)

	IngestRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "venueqa",
			Name:      "ingest_run_duration_seconds",
			Help:      "Duration of a full ingestion run per entity type",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"entity"},
	)
)

// RegisterIngestMetrics registers ingestion metrics with the default registry.
func RegisterIngestMetrics() {
	prometheus.MustRegister(IngestRecordsTotal, IngestRunDuration)
}
