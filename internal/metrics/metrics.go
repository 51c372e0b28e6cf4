// Package metrics holds the Prometheus collectors of the ingest job. The job
// is short-lived, so collectors live on a private registry that is written
// to a node-exporter textfile at exit rather than scraped.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptodata/internal/reconcile"
)

// Metrics is the set of ingest collectors.
type Metrics struct {
	registry *prometheus.Registry

	RecordsTotal   *prometheus.CounterVec
	FetchErrors    *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	StepsTotal     *prometheus.CounterVec
	LastSuccessful *prometheus.GaugeVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptodata",
				Name:      "ingest_records_total",
				Help:      "Records processed by the reconciler, by outcome.",
			},
			[]string{"kind", "source", "outcome"},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptodata",
				Name:      "fetch_errors_total",
				Help:      "Failed listing fetches.",
			},
			[]string{"kind", "source"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cryptodata",
				Name:      "fetch_duration_seconds",
				Help:      "Listing fetch latency.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind", "source"},
		),
		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptodata",
				Name:      "ingest_steps_total",
				Help:      "Ingest steps by final status.",
			},
			[]string{"kind", "source", "status"},
		),
		LastSuccessful: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "cryptodata",
				Name:      "ingest_last_success_timestamp_seconds",
				Help:      "Unix time of the last successful ingest step.",
			},
			[]string{"kind", "source"},
		),
	}
	m.registry.MustRegister(m.RecordsTotal, m.FetchErrors, m.FetchDuration, m.StepsTotal, m.LastSuccessful)
	return m
}

// NewWithRuntime is New plus the Go runtime and process collectors, for the
// long-running admin server.
func NewWithRuntime() *Metrics {
	m := New()
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveFetch records one fetch and its outcome.
func (m *Metrics) ObserveFetch(kind, source string, took time.Duration, err error) {
	m.FetchDuration.WithLabelValues(kind, source).Observe(took.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(kind, source).Inc()
	}
}

// ObserveStep records the stats and status of one reconcile step.
func (m *Metrics) ObserveStep(kind, source string, stats reconcile.Stats, err error) {
	for outcome, n := range map[string]int{
		"seen":            stats.Seen,
		"created":         stats.Created,
		"pks_created":     stats.PKsCreated,
		"tickers_created": stats.TickersCreated,
		"linked":          stats.Linked,
		"invalid":         stats.Invalid,
		"unresolved":      stats.Unresolved,
		"conflict":        stats.Conflicts,
		"existing":        stats.Existing,
	} {
		m.RecordsTotal.WithLabelValues(kind, source, outcome).Add(float64(n))
	}

	status := "succeeded"
	if err != nil {
		status = "failed"
	} else {
		m.LastSuccessful.WithLabelValues(kind, source).SetToCurrentTime()
	}
	m.StepsTotal.WithLabelValues(kind, source, status).Inc()
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
