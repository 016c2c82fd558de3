package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/harvest/pkg/config"
)

// Collector owns the Prometheus registry for harvest and records export,
// schedule and ingest metrics. It implements export.Recorder and
// schedule.RunRecorder.
//
// A collector built from a config with Enabled set to false registers its
// metrics but ignores every update.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	exportMetrics   *ExportMetrics
	scheduleMetrics *ScheduleMetrics
	ingestMetrics   *IngestMetrics
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "harvest",
//		Subsystem: "export",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{registry: registry}
	if cfg != nil {
		c.config = *cfg
	}

	if c.config.Namespace == "" {
		c.config.Namespace = config.DefaultMetricsNamespace
	}
	if c.config.Subsystem == "" {
		c.config.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(c.config.DurationBuckets) == 0 {
		c.config.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	c.exportMetrics = NewExportMetrics(&c.config, registry)
	c.scheduleMetrics = NewScheduleMetrics(&c.config, registry)
	c.ingestMetrics = NewIngestMetrics(&c.config, registry)

	return c
}

// RecordExport records a finished export run.
//
// Parameters:
//   - format: export format ("csv", "json")
//   - status: run status ("success", "error")
//   - duration: total run duration
//   - rows: number of rows written
func (c *Collector) RecordExport(format, status string, duration time.Duration, rows int) {
	if !c.config.Enabled {
		return
	}

	c.exportMetrics.RecordExport(format, status, duration, rows)
}

// RecordCellFailure records a cell that rendered as "#N/A".
func (c *Collector) RecordCellFailure(format string) {
	if !c.config.Enabled {
		return
	}

	c.exportMetrics.RecordCellFailure(format)
}

// RecordRowParseFailure records a row whose answers could not be parsed.
func (c *Collector) RecordRowParseFailure(format string) {
	if !c.config.Enabled {
		return
	}

	c.exportMetrics.RecordRowParseFailure(format)
}

// RecordScheduledRun records the outcome of a scheduled job run.
func (c *Collector) RecordScheduledRun(job, status string) {
	if !c.config.Enabled {
		return
	}

	c.scheduleMetrics.RecordRun(job, status)
}

// RecordIngest records submissions loaded into the store.
func (c *Collector) RecordIngest(stored, rejected int) {
	if !c.config.Enabled {
		return
	}

	c.ingestMetrics.Record(stored, rejected)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
