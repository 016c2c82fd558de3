package transform

import (
	"encoding/json"
	"log/slog"

	"mercator-hq/harvest/pkg/submission"
)

// Context carries the per-cell inputs shared by every transformer and
// formatter invocation. It is passed by value and must be treated as
// read-only.
type Context struct {
	// Row is the submission owning the cell.
	Row *submission.Submission

	// Document is the row's parsed answer object, nil when the row has no
	// answers or they failed to parse.
	Document map[string]any

	// Raw holds the compact source text of each top-level answer. It is nil
	// when Document is nil.
	Raw map[string]json.RawMessage

	// Logger is scoped to the current export run.
	Logger *slog.Logger
}

// FormID returns the owning row's form id, or 0 without a row.
func (c Context) FormID() int64 {
	if c.Row == nil {
		return 0
	}
	return c.Row.FormID
}

// SubmissionID returns the owning row's id, or 0 without a row.
func (c Context) SubmissionID() int64 {
	if c.Row == nil {
		return 0
	}
	return c.Row.ID
}

// Transformer rewrites a cell value before formatting.
type Transformer interface {
	Transform(tc Context, value any) (any, error)
}

// Func adapts a function to the Transformer interface.
type Func func(tc Context, value any) (any, error)

// Transform calls f(tc, value).
func (f Func) Transform(tc Context, value any) (any, error) {
	return f(tc, value)
}

// Chain applies transformers in order.
type Chain []Transformer

// Apply runs value through every transformer, stopping at the first error.
func (c Chain) Apply(tc Context, value any) (any, error) {
	var err error
	for _, t := range c {
		value, err = t.Transform(tc, value)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

// With returns a new chain with more transformers appended. The receiver is
// never modified, so chains can be shared between columns.
func (c Chain) With(more ...Transformer) Chain {
	out := make(Chain, 0, len(c)+len(more))
	out = append(out, c...)
	for _, t := range more {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
