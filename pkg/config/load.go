package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "HARVEST_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention HARVEST_SECTION_FIELD (e.g., HARVEST_EXPORT_HUB_BASE_URL).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds a configuration from defaults and environment variables
// only. It is used when no configuration file is given.
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Export overrides
	envString("EXPORT_HUB_BASE_URL", &cfg.Export.HubBaseURL)
	envString("EXPORT_KIND", &cfg.Export.Kind)
	envString("EXPORT_DEFAULT_FORMAT", &cfg.Export.DefaultFormat)
	envInt("EXPORT_FLUSH_EVERY", &cfg.Export.FlushEvery)
	envBool("EXPORT_JSON_PRETTY", &cfg.Export.JSONPretty)
	envString("EXPORT_OUTPUT_DIR", &cfg.Export.OutputDir)

	// Storage overrides
	envString("STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	envString("STORAGE_SQLITE_DRIVER", &cfg.Storage.SQLite.Driver)
	envInt("STORAGE_SQLITE_MAX_OPEN_CONNS", &cfg.Storage.SQLite.MaxOpenConns)
	envInt("STORAGE_SQLITE_MAX_IDLE_CONNS", &cfg.Storage.SQLite.MaxIdleConns)
	envBool("STORAGE_SQLITE_WAL_MODE", &cfg.Storage.SQLite.WALMode)
	envDuration("STORAGE_SQLITE_BUSY_TIMEOUT", &cfg.Storage.SQLite.BusyTimeout)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	envString("TELEMETRY_METRICS_SUBSYSTEM", &cfg.Telemetry.Metrics.Subsystem)
	envString("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
