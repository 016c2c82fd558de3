package export

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/transform"
)

// ErrNoExporter is returned when no exporter matches a record type and format.
var ErrNoExporter = errors.New("no exporter registered")

// Registry resolves exporters by record type and format.
type Registry struct {
	mu        sync.RWMutex
	exporters []Exporter
}

// NewRegistry creates a registry holding exporters.
func NewRegistry(exporters ...Exporter) *Registry {
	return &Registry{exporters: exporters}
}

// NewDefaultRegistry registers the CSV and JSON submission exporters.
func NewDefaultRegistry(rewriter transform.Transformer, opts ...ExporterOption) *Registry {
	return NewRegistry(
		NewSubmissionExporter(FormatCSV, rewriter, opts...),
		NewSubmissionExporter(FormatJSON, rewriter, opts...),
	)
}

// Register adds an exporter. Earlier registrations win on conflicts.
func (r *Registry) Register(e Exporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exporters = append(r.exporters, e)
}

// Resolve returns the exporter for recordType and format, both matched
// case-insensitively.
func (r *Registry) Resolve(recordType, format string) (Exporter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.exporters {
		if strings.EqualFold(e.RecordType(), recordType) && strings.EqualFold(string(e.Format()), strings.TrimSpace(format)) {
			return e, nil
		}
	}
	return nil, submission.NewExportError(format, 0,
		fmt.Errorf("%w for type %q and format %q", ErrNoExporter, recordType, format))
}

// Formats lists the formats registered for recordType.
func (r *Registry) Formats(recordType string) []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var formats []Format
	for _, e := range r.exporters {
		if strings.EqualFold(e.RecordType(), recordType) {
			formats = append(formats, e.Format())
		}
	}
	return formats
}
