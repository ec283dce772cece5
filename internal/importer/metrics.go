package importer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"planpro/internal/domain"
)

// Metrics holds the Prometheus collectors of the importer.
type Metrics struct {
	registry *prometheus.Registry

	ImportsTotal      *prometheus.CounterVec
	ImportDuration    prometheus.Histogram
	DiagnosticsTotal  *prometheus.CounterVec
	TopologyEntities  *prometheus.GaugeVec
	LastImportSeconds prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.ImportsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "planpro_imports_total",
			Help: "Total number of import runs",
		},
		[]string{"status"},
	)
	m.ImportDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "planpro_import_duration_seconds",
			Help:    "Duration of import runs in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	m.DiagnosticsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "planpro_diagnostics_total",
			Help: "Diagnostics reported during imports",
		},
		[]string{"severity", "kind"},
	)
	m.TopologyEntities = promauto.With(reg).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "planpro_topology_entities",
			Help: "Entities in the most recent topology",
		},
		[]string{"kind"},
	)
	m.LastImportSeconds = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "planpro_last_import_timestamp_seconds",
			Help: "Unix time of the last successful import",
		},
	)
	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordImport(status string, duration time.Duration) {
	m.ImportsTotal.WithLabelValues(status).Inc()
	m.ImportDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordDiagnostic(d Diagnostic) {
	m.DiagnosticsTotal.WithLabelValues(string(d.Severity), string(d.Kind)).Inc()
}

func (m *Metrics) SetTopology(c domain.Counts, at time.Time) {
	m.TopologyEntities.WithLabelValues(string(domain.KindNode)).Set(float64(c.Nodes))
	m.TopologyEntities.WithLabelValues(string(domain.KindEdge)).Set(float64(c.Edges))
	m.TopologyEntities.WithLabelValues(string(domain.KindSignal)).Set(float64(c.Signals))
	m.TopologyEntities.WithLabelValues(string(domain.KindRoute)).Set(float64(c.Routes))
	m.LastImportSeconds.Set(float64(at.Unix()))
}
