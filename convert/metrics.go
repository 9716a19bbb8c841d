package convert

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the conversion stage.
type Metrics struct {
	Registry         *prometheus.Registry
	RecordsConverted prometheus.Counter
	RecordsFailed    prometheus.Counter
	GenerateDuration prometheus.Histogram
}

// NewMetrics constructs and registers all conversion metrics on a dedicated
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	converted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "convert_records_total",
			Help: "Total pages converted to structured records.",
		},
	)
	failed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "convert_failures_total",
			Help: "Total pages that failed conversion.",
		},
	)
	generateDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "convert_generate_duration_seconds",
			Help:    "Generation backend call latency.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	registry.MustRegister(converted, failed, generateDuration)

	return &Metrics{
		Registry:         registry,
		RecordsConverted: converted,
		RecordsFailed:    failed,
		GenerateDuration: generateDuration,
	}
}

// IncConverted increments the converted records counter.
func (m *Metrics) IncConverted() {
	if m == nil {
		return
	}
	m.RecordsConverted.Inc()
}

// IncFailed increments the failed records counter.
func (m *Metrics) IncFailed() {
	if m == nil {
		return
	}
	m.RecordsFailed.Inc()
}

// ObserveGenerate records one backend call duration.
func (m *Metrics) ObserveGenerate(d time.Duration) {
	if m == nil {
		return
	}
	m.GenerateDuration.Observe(d.Seconds())
}
