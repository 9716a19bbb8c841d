package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl stage.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesTotal      prometheus.Counter
	FetchDuration   prometheus.Histogram
	LinksDiscovered prometheus.Counter
	LinksSkipped    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all crawl metrics on a dedicated
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawl_pages_total",
			Help: "Total pages fetched and extracted successfully.",
		},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawl_fetch_duration_seconds",
			Help:    "Page fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	links := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawl_links_discovered_total",
			Help: "Total outbound links discovered across fetched pages.",
		},
	)
	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawl_links_skipped_total",
			Help: "Total links rejected by the admission policy.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_errors_total",
			Help: "Total fetch failures by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(pages, fetchDuration, links, skipped, errorsTotal)

	return &Metrics{
		Registry:        registry,
		PagesTotal:      pages,
		FetchDuration:   fetchDuration,
		LinksDiscovered: links,
		LinksSkipped:    skipped,
		ErrorsTotal:     errorsTotal,
	}
}

// IncPages increments the fetched pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// ObserveFetch records one fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddLinks counts discovered outbound links.
func (m *Metrics) AddLinks(n int) {
	if m == nil {
		return
	}
	m.LinksDiscovered.Add(float64(n))
}

// IncSkipped counts a link rejected at admission.
func (m *Metrics) IncSkipped() {
	if m == nil {
		return
	}
	m.LinksSkipped.Inc()
}

// IncError increments the error counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
