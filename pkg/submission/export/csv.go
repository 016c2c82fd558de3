package export

import (
	"encoding/csv"
	"io"

	"mercator-hq/harvest/pkg/submission/columns"
)

// csvWriter writes a header record followed by one record per row.
type csvWriter struct {
	w      *csv.Writer
	record []string
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: csv.NewWriter(w)}
}

func (c *csvWriter) begin(cols []*columns.Column) error {
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Name
	}
	c.record = make([]string, len(cols))
	return c.w.Write(header)
}

func (c *csvWriter) row(cols []*columns.Column, values []any) error {
	for i, v := range values {
		text, err := formatText(v)
		if err != nil {
			text = columns.NotAvailable
		}
		c.record[i] = text
	}
	return c.w.Write(c.record)
}

func (c *csvWriter) flush() error {
	c.w.Flush()
	return c.w.Error()
}

func (c *csvWriter) end() error {
	return c.flush()
}

func (c *csvWriter) formatter() columns.Formatter {
	return textFormatter
}
