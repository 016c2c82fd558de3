package jsonnode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/ohler55/ojg/oj"
)

// ParseError reports text that was classified as JSON but failed to parse.
type ParseError struct {
	Text  string
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("jsonnode: invalid JSON %q: %v", truncate(e.Text, 64), e.Cause)
}

// Unwrap returns the underlying parser error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Lift returns v as a generic JSON node. It returns nil for nil input and
// for blank strings.
func Lift(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any, []any, bool, int64, float64, json.Number:
		return t, nil
	case int:
		return int64(t), nil
	case json.RawMessage:
		return parseBytes(t)
	case []byte:
		return parseBytes(t)
	case string:
		return liftString(t)
	default:
		data, err := gojson.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("jsonnode: cannot serialize %T: %w", v, err)
		}
		return parseBytes(data)
	}
}

// LooksLikeJSON reports whether trimmed text starts and ends with a matching
// bracket or brace pair. Single characters never qualify.
func LooksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

func liftString(s string) (any, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}
	if !LooksLikeJSON(trimmed) {
		return trimmed, nil
	}
	node, err := oj.ParseString(trimmed)
	if err != nil {
		return nil, &ParseError{Text: trimmed, Cause: err}
	}
	return node, nil
}

func parseBytes(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	node, err := oj.Parse(trimmed)
	if err != nil {
		return nil, &ParseError{Text: string(trimmed), Cause: err}
	}
	return node, nil
}

// ParseObject parses a row's answer blob. It returns a nil map and no error
// for blank input, and an error when the text is not a JSON object.
func ParseObject(data string) (map[string]any, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, nil
	}
	node, err := oj.ParseString(trimmed)
	if err != nil {
		return nil, &ParseError{Text: trimmed, Cause: err}
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return nil, &ParseError{Text: trimmed, Cause: fmt.Errorf("expected object, got %T", node)}
	}
	return obj, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Encode serializes a node as compact JSON. Object keys are sorted and HTML
// characters are left unescaped so URLs survive byte-for-byte.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gojson.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
