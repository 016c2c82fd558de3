// Package metrics provides Prometheus metrics for harvest.
//
// # Metrics
//
//   - Export metrics: runs by format and status, rows written, cell and row
//     parse failures, run duration
//   - Schedule metrics: scheduled runs by job and status, last success time
//   - Ingest metrics: submissions stored and rejected
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	registry := export.NewDefaultRegistry(rewriter,
//		export.WithRecorder(collector),
//	)
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", collector.Handler())
//
// # Prometheus Endpoint
//
// With the default namespace and subsystem the exposition looks like:
//
//	# HELP harvest_export_exports_total Total number of export runs
//	# TYPE harvest_export_exports_total counter
//	harvest_export_exports_total{format="csv",status="success"} 12
//
// Label values come from closed sets (formats, configured job names), so
// the collector applies no cardinality limit.
package metrics
