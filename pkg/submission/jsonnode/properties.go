package jsonnode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"
)

// PropertyNames returns the top-level property names of a JSON object in
// document order. Duplicate names are reported once, at their first position.
// Blank input yields no names and no error.
func PropertyNames(data string) ([]string, error) {
	names, _, err := scanObject(data, false)
	return names, err
}

// RawProperties returns the compact source text of each top-level property
// of a JSON object. Key order inside values and number spelling are kept as
// written. When a name repeats, the last value wins, as it does for parsed
// documents. Blank input yields a nil map and no error.
func RawProperties(data string) (map[string]json.RawMessage, error) {
	_, raw, err := scanObject(data, true)
	return raw, err
}

func scanObject(data string, keepValues bool) ([]string, map[string]json.RawMessage, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, &ParseError{Text: data, Cause: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, &ParseError{Text: data, Cause: fmt.Errorf("expected object")}
	}

	var (
		names []string
		raw   map[string]json.RawMessage
	)
	if keepValues {
		raw = make(map[string]json.RawMessage)
	}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, &ParseError{Text: data, Cause: err}
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, &ParseError{Text: data, Cause: fmt.Errorf("unexpected token %v", tok)}
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, &ParseError{Text: data, Cause: err}
		}
		if keepValues {
			var buf bytes.Buffer
			if err := gojson.Compact(&buf, value); err != nil {
				return nil, nil, &ParseError{Text: data, Cause: err}
			}
			raw[key] = json.RawMessage(buf.Bytes())
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, key)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, &ParseError{Text: data, Cause: err}
	}
	return names, raw, nil
}
