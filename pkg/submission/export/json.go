package export

import (
	"bufio"
	"encoding/json"
	"io"

	"mercator-hq/harvest/pkg/submission/columns"
	"mercator-hq/harvest/pkg/submission/jsonnode"
)

// jsonWriter writes a single array with one object per row. Object keys
// follow column order. With pretty set, each row starts on its own line.
type jsonWriter struct {
	w      *bufio.Writer
	pretty bool
	keys   [][]byte
	rows   int
	err    error
}

func newJSONWriter(w io.Writer, pretty bool) *jsonWriter {
	return &jsonWriter{w: bufio.NewWriter(w), pretty: pretty}
}

func (j *jsonWriter) write(p []byte) {
	if j.err != nil {
		return
	}
	_, j.err = j.w.Write(p)
}

func (j *jsonWriter) begin(cols []*columns.Column) error {
	j.keys = make([][]byte, len(cols))
	for i, col := range cols {
		key, err := jsonnode.Encode(col.JSONName)
		if err != nil {
			return err
		}
		j.keys[i] = key
	}
	j.write([]byte("["))
	return j.err
}

func (j *jsonWriter) row(cols []*columns.Column, values []any) error {
	if j.rows > 0 {
		j.write([]byte(","))
	}
	if j.pretty {
		j.write([]byte("\n  "))
	}
	j.write([]byte("{"))
	for i, v := range values {
		if i > 0 {
			j.write([]byte(","))
		}
		j.write(j.keys[i])
		j.write([]byte(":"))

		raw, err := formatJSON(v)
		if err != nil {
			raw = json.RawMessage(`"` + columns.NotAvailable + `"`)
		}
		j.write(raw)
	}
	j.write([]byte("}"))
	j.rows++
	return j.err
}

func (j *jsonWriter) flush() error {
	if j.err != nil {
		return j.err
	}
	return j.w.Flush()
}

func (j *jsonWriter) end() error {
	if j.pretty && j.rows > 0 {
		j.write([]byte("\n"))
	}
	j.write([]byte("]"))
	return j.flush()
}

func (j *jsonWriter) formatter() columns.Formatter {
	return jsonFormatter
}
