package config

import "time"

// Default values for configuration fields.
const (
	// Export defaults
	DefaultExportKind       = "submissions"
	DefaultExportFormat     = "csv"
	DefaultExportFlushEvery = 100
	DefaultExportJSONPretty = false
	DefaultExportOutputDir  = "exports"

	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultSQLitePath         = "data/submissions.db"
	DefaultSQLiteDriver       = "sqlite3"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsEnabled       = true
	DefaultMetricsNamespace     = "harvest"
	DefaultMetricsSubsystem     = "export"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultPrometheusPath       = "/metrics"
)

// DefaultDurationBuckets are the export duration histogram buckets in seconds.
var DefaultDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900}

// Default returns a configuration with every default applied. Loading
// unmarshals YAML on top of it, so boolean defaults survive absent keys
// while an explicit false still wins.
func Default() *Config {
	cfg := &Config{
		Export: ExportConfig{
			JSONPretty: DefaultExportJSONPretty,
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				WALMode: DefaultSQLiteWALMode,
			},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any non-boolean fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Export defaults
	if cfg.Export.Kind == "" {
		cfg.Export.Kind = DefaultExportKind
	}
	if cfg.Export.DefaultFormat == "" {
		cfg.Export.DefaultFormat = DefaultExportFormat
	}
	if cfg.Export.FlushEvery == 0 {
		cfg.Export.FlushEvery = DefaultExportFlushEvery
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = DefaultExportOutputDir
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.Driver == "" {
		cfg.Storage.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Schedule defaults - jobs inherit the export format
	for i := range cfg.Schedule.Jobs {
		if cfg.Schedule.Jobs[i].Format == "" {
			cfg.Schedule.Jobs[i].Format = cfg.Export.DefaultFormat
		}
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
}
