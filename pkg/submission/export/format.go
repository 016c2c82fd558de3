package export

import (
	"fmt"
	"strings"
)

// Format identifies an output file format.
type Format string

const (
	// FormatCSV is comma-separated values with a header row.
	FormatCSV Format = "csv"
	// FormatJSON is a single JSON array of row objects.
	FormatJSON Format = "json"
)

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q (supported: csv, json)", s)
	}
}

// ContentType returns the MIME type of files in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension without a leading dot.
func (f Format) Extension() string {
	return string(f)
}

// FileName builds "{kind}-{formID}.{ext}". An empty formID with known set
// yields "{kind}-unknown.{ext}"; known false yields "{kind}.{ext}".
func FileName(kind, formID string, known bool, ext string) string {
	switch {
	case !known:
		return fmt.Sprintf("%s.%s", kind, ext)
	case strings.TrimSpace(formID) == "":
		return fmt.Sprintf("%s-unknown.%s", kind, ext)
	default:
		return fmt.Sprintf("%s-%s.%s", kind, strings.TrimSpace(formID), ext)
	}
}

// metadataValue looks up key case-insensitively.
func metadataValue(metadata map[string]string, key string) (string, bool) {
	if v, ok := metadata[key]; ok {
		return v, true
	}
	for k, v := range metadata {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
