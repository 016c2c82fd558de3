package columns

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"unicode"

	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/jsonnode"
	"mercator-hq/harvest/pkg/submission/transform"
)

// NotAvailable is rendered in place of a cell whose computation failed.
const NotAvailable = "#N/A"

// Formatter converts a transformed value into its output-ready form.
type Formatter func(tc transform.Context, value any) (any, error)

// Cell is the result of computing one column for one row.
type Cell struct {
	Value any
	Err   error
}

// Available reports whether the cell computed successfully.
func (c Cell) Available() bool {
	return c.Err == nil
}

// Column describes one named output field of an export run.
type Column struct {
	// Name is the column name, unique within a run. CSV headers use it.
	Name string

	// JSONName is the camel-cased property name used in JSON output.
	JSONName string

	// Accessor reads the raw value.
	Accessor Accessor

	// Transformers run left to right on the raw value.
	Transformers transform.Chain

	// Formatter overrides the writer's default formatter when set.
	Formatter Formatter

	// Logger receives cell failures. Falls back to the context logger.
	Logger *slog.Logger
}

// Dynamic reports whether the column reads from the answer document.
func (c *Column) Dynamic() bool {
	return c.Accessor.Kind == PathAccessor
}

// Compute reads, transforms and formats the column value for one row.
// Dynamic values are lifted into JSON nodes before the chain runs, so text
// that looks like JSON but does not parse fails the cell. Failures, including
// panics in caller-supplied transformers, are returned as a Cell with Err set
// and never propagate further.
func (c *Column) Compute(ctx context.Context, tc transform.Context, fallback Formatter) (cell Cell) {
	defer func() {
		if r := recover(); r != nil {
			cell = c.fail(ctx, tc, fmt.Errorf("panic: %v", r))
		}
	}()

	original := c.Accessor.Value(tc)
	value := original
	if c.Dynamic() {
		lifted, err := jsonnode.Lift(original)
		if err != nil {
			return c.fail(ctx, tc, err)
		}
		value = lifted
	}

	value, err := c.Transformers.Apply(tc, value)
	if err != nil {
		return c.fail(ctx, tc, err)
	}

	format := c.Formatter
	if format == nil {
		if text, ok := c.sourceText(tc, original, value); ok {
			value = text
		}
		format = fallback
	}
	if format != nil {
		value, err = format(tc, value)
		if err != nil {
			return c.fail(ctx, tc, err)
		}
	}

	return Cell{Value: value}
}

// sourceText returns the answer's JSON text as written when the chain left a
// structured or numeric answer untouched.
func (c *Column) sourceText(tc transform.Context, original, value any) (json.RawMessage, bool) {
	if !c.Dynamic() || tc.Raw == nil || !sameNode(original, value) {
		return nil, false
	}
	text, ok := tc.Raw[c.Accessor.Field]
	return text, ok && len(text) > 0
}

// sameNode reports whether b is the very node a: the same object or array,
// or an equal number.
func sameNode(a, b any) bool {
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		return ok && reflect.ValueOf(x).UnsafePointer() == reflect.ValueOf(y).UnsafePointer()
	case []any:
		y, ok := b.([]any)
		return ok && len(x) == len(y) && (len(x) == 0 || &x[0] == &y[0])
	case int64, float64:
		return a == b
	default:
		return false
	}
}

func (c *Column) fail(ctx context.Context, tc transform.Context, err error) Cell {
	cellErr := submission.NewCellError(c.Name, tc.SubmissionID(), err)

	logger := c.Logger
	if logger == nil {
		logger = tc.Logger
	}
	if logger != nil {
		logger.WarnContext(ctx, "cell computation failed",
			"column", c.Name,
			"row_id", tc.SubmissionID(),
			"error", err,
		)
	}

	return Cell{Err: cellErr}
}

// CamelCase lower-cases the leading upper-case run of name, keeping the last
// capital of an acronym that starts a new word ("URLValue" → "urlValue").
func CamelCase(name string) string {
	runes := []rune(name)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return name
	}

	for i := 0; i < len(runes); i++ {
		if i == 1 && !unicode.IsUpper(runes[i]) {
			break
		}
		hasNext := i+1 < len(runes)
		if i > 0 && hasNext && !unicode.IsUpper(runes[i+1]) {
			if runes[i+1] == ' ' {
				runes[i] = unicode.ToLower(runes[i])
			}
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
