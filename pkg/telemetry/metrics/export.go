package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/harvest/pkg/config"
)

// ExportMetrics tracks export runs.
//
// Metrics:
//   - harvest_export_exports_total: runs by format and status
//   - harvest_export_rows_exported_total: rows written by format
//   - harvest_export_cell_failures_total: cells rendered as "#N/A"
//   - harvest_export_row_parse_failures_total: rows with unparseable answers
//   - harvest_export_duration_seconds: run duration histogram
type ExportMetrics struct {
	exportsTotal       *prometheus.CounterVec
	rowsTotal          *prometheus.CounterVec
	cellFailuresTotal  *prometheus.CounterVec
	parseFailuresTotal *prometheus.CounterVec
	duration           *prometheus.HistogramVec
}

// NewExportMetrics creates and registers export metrics with the provided registry.
func NewExportMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExportMetrics {
	em := &ExportMetrics{
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exports_total",
				Help:      "Total number of export runs",
			},
			[]string{"format", "status"},
		),

		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rows_exported_total",
				Help:      "Total number of submission rows written",
			},
			[]string{"format"},
		),

		cellFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cell_failures_total",
				Help:      "Total number of cells that could not be computed",
			},
			[]string{"format"},
		),

		parseFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "row_parse_failures_total",
				Help:      "Total number of rows whose answer data could not be parsed",
			},
			[]string{"format"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "duration_seconds",
				Help:      "Duration of export runs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"format"},
		),
	}

	registry.MustRegister(
		em.exportsTotal,
		em.rowsTotal,
		em.cellFailuresTotal,
		em.parseFailuresTotal,
		em.duration,
	)

	return em
}

// RecordExport records a finished run.
func (em *ExportMetrics) RecordExport(format, status string, duration time.Duration, rows int) {
	em.exportsTotal.WithLabelValues(format, status).Inc()
	em.duration.WithLabelValues(format).Observe(duration.Seconds())

	if rows > 0 {
		em.rowsTotal.WithLabelValues(format).Add(float64(rows))
	}
}

// RecordCellFailure increments the cell failure counter.
func (em *ExportMetrics) RecordCellFailure(format string) {
	em.cellFailuresTotal.WithLabelValues(format).Inc()
}

// RecordRowParseFailure increments the row parse failure counter.
func (em *ExportMetrics) RecordRowParseFailure(format string) {
	em.parseFailuresTotal.WithLabelValues(format).Inc()
}
