package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// ExportIDKey is the context key for export run IDs.
	ExportIDKey contextKey = "export_id"

	// FormIDKey is the context key for the exported form.
	FormIDKey contextKey = "form_id"

	// JobKey is the context key for scheduled job names.
	JobKey contextKey = "job"
)

// WithExportID adds an export run ID to the context.
func WithExportID(ctx context.Context, exportID string) context.Context {
	return context.WithValue(ctx, ExportIDKey, exportID)
}

// GetExportID retrieves the export run ID from the context.
func GetExportID(ctx context.Context) string {
	if id, ok := ctx.Value(ExportIDKey).(string); ok {
		return id
	}
	return ""
}

// WithFormID adds a form ID to the context.
func WithFormID(ctx context.Context, formID int64) context.Context {
	return context.WithValue(ctx, FormIDKey, formID)
}

// GetFormID retrieves the form ID from the context.
func GetFormID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(FormIDKey).(int64)
	return id, ok
}

// WithJob adds a scheduled job name to the context.
func WithJob(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, JobKey, job)
}

// GetJob retrieves the scheduled job name from the context.
func GetJob(ctx context.Context) string {
	if job, ok := ctx.Value(JobKey).(string); ok {
		return job
	}
	return ""
}

// contextAttrs extracts common fields from the context.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if job := GetJob(ctx); job != "" {
		attrs = append(attrs, slog.String(string(JobKey), job))
	}
	if formID, ok := GetFormID(ctx); ok {
		attrs = append(attrs, slog.Int64(string(FormIDKey), formID))
	}
	if id := GetExportID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(ExportIDKey), id))
	}
	return attrs
}

// contextHandler adds context fields to every record logged with a context.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if attrs := contextAttrs(ctx); len(attrs) > 0 {
			r.AddAttrs(attrs...)
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
