package batch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pyhub-apps/factura-energia-golang/pkg/invoice"
)

// Metrics holds the counters of a batch run on a private registry
type Metrics struct {
	registry  *prometheus.Registry
	documents *prometheus.CounterVec
	missing   *prometheus.CounterVec
	tables    *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics creates and registers the batch metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facturas_documents_total",
			Help: "Documents processed, by status.",
		}, []string{"status"}),
		missing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facturas_fields_missing_total",
			Help: "Fields left at the not-found sentinel, by field.",
		}, []string{"field"}),
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facturas_component_tables_total",
			Help: "Component tables extracted, by strategy.",
		}, []string{"source"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "facturas_document_duration_seconds",
			Help:    "Wall time spent per document, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	m.registry.MustRegister(m.documents, m.missing, m.tables, m.duration)
	return m
}

// Registry returns the registry holding the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one result
func (m *Metrics) Observe(res Result) {
	m.duration.Observe(res.Duration.Seconds())
	if res.Err != nil {
		m.documents.WithLabelValues("failed").Inc()
		return
	}

	m.documents.WithLabelValues("ok").Inc()
	for _, field := range res.Record.Fields.Missing() {
		m.missing.WithLabelValues(field).Inc()
	}
	source := res.Record.TableSource
	if source == "" {
		source = invoice.TableNone
	}
	m.tables.WithLabelValues(string(source)).Inc()
}

// WriteToTextfile writes the metrics in the text exposition format, for a
// node exporter textfile collector
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
