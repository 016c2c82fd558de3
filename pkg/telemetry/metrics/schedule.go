package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/harvest/pkg/config"
)

// ScheduleMetrics tracks scheduled export jobs.
type ScheduleMetrics struct {
	runsTotal   *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

// NewScheduleMetrics creates and registers schedule metrics with the provided registry.
func NewScheduleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ScheduleMetrics {
	sm := &ScheduleMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scheduled_runs_total",
				Help:      "Total number of scheduled export runs",
			},
			[]string{"job", "status"},
		),

		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scheduled_last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run of each job",
			},
			[]string{"job"},
		),
	}

	registry.MustRegister(sm.runsTotal, sm.lastSuccess)

	return sm
}

// RecordRun records a job outcome. Successful runs also update the
// last-success gauge.
func (sm *ScheduleMetrics) RecordRun(job, status string) {
	sm.runsTotal.WithLabelValues(job, status).Inc()
	if status == "success" {
		sm.lastSuccess.WithLabelValues(job).Set(float64(time.Now().Unix()))
	}
}

// IngestMetrics tracks submissions loaded by "harvest ingest".
type IngestMetrics struct {
	submissionsTotal *prometheus.CounterVec
}

// NewIngestMetrics creates and registers ingest metrics with the provided registry.
func NewIngestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *IngestMetrics {
	im := &IngestMetrics{
		submissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ingested_submissions_total",
				Help:      "Total number of submissions read by ingest",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(im.submissionsTotal)

	return im
}

// Record adds stored and rejected submission counts.
func (im *IngestMetrics) Record(stored, rejected int) {
	if stored > 0 {
		im.submissionsTotal.WithLabelValues("stored").Add(float64(stored))
	}
	if rejected > 0 {
		im.submissionsTotal.WithLabelValues("rejected").Add(float64(rejected))
	}
}
