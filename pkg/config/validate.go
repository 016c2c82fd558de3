package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "export.hub_base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateSchedule(&cfg.Schedule)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validFormat(format string) bool {
	switch strings.ToLower(format) {
	case "csv", "json":
		return true
	}
	return false
}

// validateExport validates export configuration.
func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	if cfg.HubBaseURL != "" {
		u, err := url.Parse(cfg.HubBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "export.hub_base_url",
				Message: fmt.Sprintf("must be an absolute http or https URL, got %q", cfg.HubBaseURL),
			})
		} else if u.RawQuery != "" || u.Fragment != "" {
			errs = append(errs, FieldError{
				Field:   "export.hub_base_url",
				Message: "must not contain a query or fragment",
			})
		}
	}

	for i, rule := range cfg.StorageRules {
		field := fmt.Sprintf("export.storage_rules[%d]", i)
		if strings.TrimSpace(rule.Host) == "" {
			errs = append(errs, FieldError{Field: field + ".host", Message: "host is required"})
		} else if strings.Contains(rule.Host, "://") || strings.Contains(rule.Host, "/") {
			errs = append(errs, FieldError{Field: field + ".host", Message: "host must not include a scheme or path"})
		}
		if strings.TrimSpace(rule.Container) == "" {
			errs = append(errs, FieldError{Field: field + ".container", Message: "container is required"})
		} else if strings.Contains(rule.Container, "/") {
			errs = append(errs, FieldError{Field: field + ".container", Message: "container must be a single path segment"})
		}
	}

	if cfg.Kind == "" || strings.ContainsAny(cfg.Kind, `/\`) {
		errs = append(errs, FieldError{
			Field:   "export.kind",
			Message: "kind is required and must not contain path separators",
		})
	}
	if !validFormat(cfg.DefaultFormat) {
		errs = append(errs, FieldError{
			Field:   "export.default_format",
			Message: fmt.Sprintf("invalid format %q (must be one of: csv, json)", cfg.DefaultFormat),
		})
	}
	if cfg.FlushEvery <= 0 {
		errs = append(errs, FieldError{
			Field:   "export.flush_every",
			Message: "flush_every must be positive",
		})
	}
	if cfg.OutputDir == "" {
		errs = append(errs, FieldError{
			Field:   "export.output_dir",
			Message: "output directory is required",
		})
	}

	return errs
}

// validateStorage validates storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.path",
				Message: "path is required for the sqlite backend",
			})
		}
		if cfg.SQLite.Driver != "sqlite3" && cfg.SQLite.Driver != "sqlite" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q (must be one of: sqlite3, sqlite)", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.max_open_conns",
				Message: "max open connections must be non-negative",
			})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.max_idle_conns",
				Message: "max idle connections must be non-negative",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend %q (must be one of: sqlite, memory)", cfg.Backend),
		})
	}

	return errs
}

// validateSchedule validates export jobs.
func validateSchedule(cfg *ScheduleConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool)

	for i, job := range cfg.Jobs {
		field := fmt.Sprintf("schedule.jobs[%d]", i)

		if job.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "job name is required"})
		} else if seen[job.Name] {
			errs = append(errs, FieldError{Field: field + ".name", Message: fmt.Sprintf("duplicate job name %q", job.Name)})
		}
		seen[job.Name] = true

		if _, err := cron.ParseStandard(job.Cron); err != nil {
			errs = append(errs, FieldError{
				Field:   field + ".cron",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", job.Cron, err),
			})
		}
		if job.FormID <= 0 {
			errs = append(errs, FieldError{Field: field + ".form_id", Message: "form_id must be positive"})
		}
		if !validFormat(job.Format) {
			errs = append(errs, FieldError{
				Field:   field + ".format",
				Message: fmt.Sprintf("invalid format %q (must be one of: csv, json)", job.Format),
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be one of: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be one of: json, text, console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if cfg.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: "listen address is required when metrics are enabled",
			})
		}
		for i, b := range cfg.Metrics.DurationBuckets {
			if b <= 0 || (i > 0 && b <= cfg.Metrics.DurationBuckets[i-1]) {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.duration_buckets",
					Message: "buckets must be positive and strictly increasing",
				})
				break
			}
		}
	}

	return errs
}
