package config

import "time"

// Config is the root configuration structure for harvest.
type Config struct {
	// Export contains settings shared by every export run: URL rewriting,
	// file naming, and writer tuning.
	Export ExportConfig `yaml:"export"`

	// Storage selects and configures the submission storage backend.
	Storage StorageConfig `yaml:"storage"`

	// Schedule lists recurring export jobs run by "harvest serve".
	Schedule ScheduleConfig `yaml:"schedule"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ExportConfig contains configuration for export runs.
type ExportConfig struct {
	// HubBaseURL is the base URL that rewritten file links point at, e.g.
	// "https://hub.example.com". URL rewriting is disabled when empty.
	HubBaseURL string `yaml:"hub_base_url"`

	// StorageRules identify blob-storage locations eligible for rewriting.
	// URL rewriting is disabled when empty.
	StorageRules []StorageRuleConfig `yaml:"storage_rules"`

	// Kind is the file name prefix ("{kind}-{formId}.{ext}").
	// Default: "submissions"
	Kind string `yaml:"kind"`

	// DefaultFormat is used when a command or job does not name a format.
	// Options: "csv", "json"
	// Default: "csv"
	DefaultFormat string `yaml:"default_format"`

	// FlushEvery is the number of rows written between sink flushes.
	// Default: 100
	FlushEvery int `yaml:"flush_every"`

	// JSONPretty writes each JSON row on its own line.
	// Default: false
	JSONPretty bool `yaml:"json_pretty"`

	// OutputDir is where scheduled exports are written.
	// Default: "exports"
	OutputDir string `yaml:"output_dir"`
}

// StorageRuleConfig is a (host, container) pair naming a blob-storage
// location whose URLs are rewritten.
type StorageRuleConfig struct {
	// Host is the storage account host, e.g. "acct.blob.core.windows.net".
	Host string `yaml:"host"`

	// Container is the container name, the first path segment of the URL.
	Container string `yaml:"container"`
}

// StorageConfig contains configuration for submission storage.
type StorageConfig struct {
	// Backend selects the storage implementation.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/submissions.db"
	Path string `yaml:"path"`

	// Driver is the database/sql driver.
	// Options: "sqlite3" (cgo, mattn/go-sqlite3), "sqlite" (pure Go, modernc.org/sqlite)
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ScheduleConfig contains recurring export jobs.
type ScheduleConfig struct {
	Jobs []JobConfig `yaml:"jobs"`
}

// JobConfig describes one recurring export.
type JobConfig struct {
	// Name identifies the job in logs. Must be unique.
	Name string `yaml:"name"`

	// Cron is a standard five-field cron expression or a descriptor such
	// as "@daily" or "@every 1h".
	Cron string `yaml:"cron"`

	// FormID is the form whose submissions are exported.
	FormID int64 `yaml:"form_id"`

	// Format is the output format. Defaults to export.default_format.
	Format string `yaml:"format"`

	// Columns is an optional column allow-list in output order.
	Columns []string `yaml:"columns"`

	// CompletedOnly skips draft submissions.
	CompletedOnly bool `yaml:"completed_only"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether export metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "harvest"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "export"
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is where "harvest serve" exposes metrics.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// DurationBuckets defines histogram buckets for export duration (seconds).
	// Default: [0.1, 0.5, 1, 5, 15, 60, 300, 900]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}
