// Package jsonnode lifts heterogeneous cell values into one generic JSON
// tree so transformers operate on a single representation.
//
// Nodes are the values produced by the ojg parser: map[string]any for
// objects, []any for arrays, and string, int64, float64, bool or nil for
// scalars. Strings are classified before lifting: blank strings lift to nil,
// strings wrapped in a matching bracket or brace pair are parsed as JSON and
// everything else stays a plain string node.
//
// A string that looks like JSON but does not parse is reported as a
// *ParseError rather than silently treated as absent data:
//
//	node, err := jsonnode.Lift("[redacted]")
//	// err != nil: "[redacted]" is bracketed but is not valid JSON
package jsonnode
