// Package logging configures structured logging for harvest.
//
// # Overview
//
// The logging package builds log/slog loggers with:
//   - JSON, text, and console output formats
//   - Configurable log levels (debug, info, warn, error)
//   - Context fields (export id, form id, job) added to every record
//     logged with a context
//   - Redaction of query strings in logged URLs, which carry blob-storage
//     access signatures
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithJob(ctx, "nightly")
//	slog.InfoContext(ctx, "export started")  // includes job=nightly
//
// Packages obtain component loggers from the default logger:
//
//	logger := slog.Default().With("component", "submission.export")
package logging
