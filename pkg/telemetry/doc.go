// Package telemetry groups the observability packages used by harvest.
//
// # Components
//
//   - logging: slog logger construction, context fields, URL redaction
//   - metrics: Prometheus export, schedule and ingest metrics
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	cfg := config.GetConfig()
//
//	logger, err := logging.New(logging.Config{
//		Level:  cfg.Telemetry.Logging.Level,
//		Format: cfg.Telemetry.Logging.Format,
//	})
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(logger)
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Logged URLs have their query strings replaced, so signed storage links
// never reach log output.
package telemetry
