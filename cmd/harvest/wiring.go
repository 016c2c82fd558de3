package main

import (
	"mercator-hq/harvest/pkg/config"
	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/export"
	"mercator-hq/harvest/pkg/submission/schedule"
	"mercator-hq/harvest/pkg/submission/storage"
	"mercator-hq/harvest/pkg/submission/transform"
)

// newRewriter builds the storage URL rewriter from export settings. With
// no hub URL or no rules the rewriter is disabled and passes values
// through.
func newRewriter(cfg *config.ExportConfig) *transform.BlobURLRewriter {
	rules := make([]transform.StorageRule, 0, len(cfg.StorageRules))
	for _, r := range cfg.StorageRules {
		rules = append(rules, transform.StorageRule{Host: r.Host, Container: r.Container})
	}
	return transform.NewBlobURLRewriter(cfg.HubBaseURL, rules)
}

// newRegistry builds the exporter registry for a configuration snapshot.
// recorder may be nil.
func newRegistry(cfg *config.Config, recorder export.Recorder) *export.Registry {
	opts := []export.ExporterOption{
		export.WithKind(cfg.Export.Kind),
		export.WithFlushEvery(cfg.Export.FlushEvery),
		export.WithPrettyJSON(cfg.Export.JSONPretty),
	}
	if recorder != nil {
		opts = append(opts, export.WithRecorder(recorder))
	}
	return export.NewDefaultRegistry(newRewriter(&cfg.Export), opts...)
}

func sqliteConfig(cfg *config.SQLiteConfig) *storage.SQLiteConfig {
	return &storage.SQLiteConfig{
		Path:         cfg.Path,
		Driver:       cfg.Driver,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		WALMode:      cfg.WALMode,
		BusyTimeout:  cfg.BusyTimeout,
	}
}

func openStore(cfg *config.StorageConfig) (submission.Storage, error) {
	return storage.Open(cfg.Backend, sqliteConfig(&cfg.SQLite))
}

func scheduleJobs(cfg *config.ScheduleConfig) []schedule.Job {
	jobs := make([]schedule.Job, 0, len(cfg.Jobs))
	for _, j := range cfg.Jobs {
		jobs = append(jobs, schedule.Job{
			Name:          j.Name,
			Cron:          j.Cron,
			FormID:        j.FormID,
			Format:        j.Format,
			Columns:       j.Columns,
			CompletedOnly: j.CompletedOnly,
		})
	}
	return jobs
}
