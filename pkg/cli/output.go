package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"mercator-hq/harvest/pkg/submission/export"
	"mercator-hq/harvest/pkg/submission/ingest"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat parses a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", NewConfigError("output", fmt.Sprintf("unknown output format %q", s))
	}
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// FormatTo writes data to w in text format. Export and ingest results are
// written as a one-line summary.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	var err error
	switch v := data.(type) {
	case *export.FileExport:
		status := "ok"
		if !v.Success {
			status = "failed: " + v.Error
		}
		_, err = fmt.Fprintf(w, "%s: %d rows, %d failed cells (%s) [%s]\n",
			v.FileName, v.Rows, v.FailedCells, v.ContentType, status)
	case *ingest.Result:
		_, err = fmt.Fprintf(w, "stored %d submissions, rejected %d\n", v.Stored, v.Rejected)
	default:
		_, err = fmt.Fprintf(w, "%v\n", data)
	}
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &TextFormatter{}
	}
}
