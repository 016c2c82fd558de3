package export

import (
	"encoding/json"
	"strconv"
	"time"

	"mercator-hq/harvest/pkg/submission/columns"
	"mercator-hq/harvest/pkg/submission/jsonnode"
	"mercator-hq/harvest/pkg/submission/transform"
)

// rowWriter serializes computed rows for one format. Implementations are
// the closed set returned by newRowWriter.
type rowWriter interface {
	// begin writes the header (CSV header row, JSON opening bracket).
	begin(cols []*columns.Column) error

	// row writes one row; values align with cols.
	row(cols []*columns.Column, values []any) error

	// flush pushes buffered bytes to the sink.
	flush() error

	// end writes the trailer and flushes.
	end() error

	// formatter is the default formatter for columns without their own.
	formatter() columns.Formatter
}

// formatText coerces a value to its CSV field text.
func formatText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int:
		return strconv.Itoa(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case json.Number:
		return t.String(), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	case json.RawMessage:
		return string(t), nil
	default:
		data, err := jsonnode.Encode(t)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// formatJSON encodes a value to the raw JSON written for a cell. Raw JSON
// passes through verbatim so structured values are never double-encoded.
func formatJSON(v any) (json.RawMessage, error) {
	switch t := v.(type) {
	case json.RawMessage:
		if len(t) == 0 {
			return json.RawMessage("null"), nil
		}
		return t, nil
	case time.Time:
		v = t.Format(time.RFC3339)
	}
	data, err := jsonnode.Encode(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func textFormatter(_ transform.Context, v any) (any, error) {
	return formatText(v)
}

func jsonFormatter(_ transform.Context, v any) (any, error) {
	return formatJSON(v)
}
