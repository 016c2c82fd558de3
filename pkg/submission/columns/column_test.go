package columns

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/transform"
)

func names(cols []*Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// TestDiscover_Default tests default ordering without an allow-list.
func TestDiscover_Default(t *testing.T) {
	cols := Discover([]string{"q1", "id", "q2"}, nil)

	want := append(StaticNames(), "q1", "q2")
	if !reflect.DeepEqual(names(cols), want) {
		t.Errorf("got %v, want %v", names(cols), want)
	}
	if cols[0].Name != "formId" || cols[1].Name != "id" {
		t.Errorf("expected formId,id first, got %v", names(cols)[:2])
	}

	for _, c := range cols {
		if isStatic(c.Name) == c.Dynamic() {
			t.Errorf("column %s has wrong accessor kind %s", c.Name, c.Accessor.Kind)
		}
	}
}

// TestDiscover_AllowList tests intersecting with caller-ordered columns.
func TestDiscover_AllowList(t *testing.T) {
	cols := Discover([]string{"q1", "q2", "q3"}, &Options{
		Columns: []string{"q3", "missing", "id", "q1", "q3"},
	})

	want := []string{"q3", "id", "q1"}
	if !reflect.DeepEqual(names(cols), want) {
		t.Errorf("got %v, want %v", names(cols), want)
	}
}

// TestDiscover_NoDocument tests discovery when the first row has no answers.
func TestDiscover_NoDocument(t *testing.T) {
	cols := Discover(nil, &Options{Columns: []string{"q1", "formId"}})
	if !reflect.DeepEqual(names(cols), []string{"formId"}) {
		t.Errorf("got %v", names(cols))
	}
}

// TestDiscover_Chains tests transformer attachment.
func TestDiscover_Chains(t *testing.T) {
	rewriter := transform.Func(func(tc transform.Context, v any) (any, error) { return v, nil })
	custom := transform.Func(func(tc transform.Context, v any) (any, error) { return v, nil })

	cols := Discover([]string{"q1", "q2"}, &Options{
		Columns:    []string{"id", "q1", "q2"},
		Rewriter:   rewriter,
		Transforms: map[string]transform.Transformer{"q1": custom, "id": custom},
	})

	if len(cols[0].Transformers) != 1 {
		t.Errorf("static column with custom transform: expected 1 transformer, got %d", len(cols[0].Transformers))
	}
	if len(cols[1].Transformers) != 2 {
		t.Errorf("dynamic column with custom transform: expected 2 transformers, got %d", len(cols[1].Transformers))
	}
	if len(cols[2].Transformers) != 1 {
		t.Errorf("dynamic column: expected rewriter only, got %d", len(cols[2].Transformers))
	}
}

// TestColumn_Compute tests value computation through accessor, chain and formatter.
func TestColumn_Compute(t *testing.T) {
	parent := int64(3)
	created := time.Date(2025, 1, 15, 10, 30, 0, 0, time.FixedZone("X", 3600))
	row := &submission.Submission{ID: 42, FormID: 7, ParentID: &parent, CreatedAt: created}
	tc := transform.Context{Row: row, Document: map[string]any{"q1": "hello", "q2": []any{int64(1)}}}

	cols := Discover([]string{"q1", "q2"}, &Options{
		Transforms: map[string]transform.Transformer{
			"q1": transform.Func(func(tc transform.Context, v any) (any, error) {
				return strings.ToUpper(v.(string)), nil
			}),
		},
		Formatters: map[string]Formatter{
			"q2": func(tc transform.Context, v any) (any, error) { return "formatted", nil },
		},
	})
	byName := make(map[string]*Column)
	for _, c := range cols {
		byName[c.Name] = c
	}

	tests := []struct {
		column string
		want   any
	}{
		{"formId", int64(7)},
		{"id", int64(42)},
		{"parentId", int64(3)},
		{"isComplete", false},
		{"createdAt", created.UTC()},
		{"updatedAt", nil},
		{"completedAt", nil},
		{"q1", "HELLO"},
		{"q2", "formatted"},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			cell := byName[tt.column].Compute(context.Background(), tc, nil)
			if !cell.Available() {
				t.Fatalf("unexpected error: %v", cell.Err)
			}
			if !reflect.DeepEqual(cell.Value, tt.want) {
				t.Errorf("got %#v, want %#v", cell.Value, tt.want)
			}
		})
	}

	t.Run("missing property on later row", func(t *testing.T) {
		later := transform.Context{Row: row, Document: map[string]any{"other": 1}}
		cell := byName["q1"].Compute(context.Background(), later, nil)
		if !cell.Available() || cell.Value != nil {
			t.Errorf("expected empty cell, got %#v", cell)
		}
	})

	t.Run("fallback formatter", func(t *testing.T) {
		cell := byName["id"].Compute(context.Background(), tc, func(tc transform.Context, v any) (any, error) {
			return "fallback", nil
		})
		if cell.Value != "fallback" {
			t.Errorf("got %#v", cell.Value)
		}
	})
}

// TestColumn_ComputeFailures tests cell-level isolation.
func TestColumn_ComputeFailures(t *testing.T) {
	tc := transform.Context{
		Row:      &submission.Submission{ID: 9, FormID: 1},
		Document: map[string]any{"q1": "x"},
	}

	t.Run("transformer error", func(t *testing.T) {
		col := Discover([]string{"q1"}, &Options{
			Columns: []string{"q1"},
			Transforms: map[string]transform.Transformer{
				"q1": transform.Func(func(tc transform.Context, v any) (any, error) {
					return nil, errors.New("boom")
				}),
			},
		})[0]
		cell := col.Compute(context.Background(), tc, nil)
		if cell.Available() {
			t.Fatal("expected failure")
		}
		var cellErr *submission.CellError
		if !errors.As(cell.Err, &cellErr) {
			t.Fatalf("expected CellError, got %T", cell.Err)
		}
		if cellErr.Column != "q1" || cellErr.RowID != 9 {
			t.Errorf("unexpected error details: %+v", cellErr)
		}
	})

	t.Run("panicking transformer", func(t *testing.T) {
		col := Discover([]string{"q1"}, &Options{
			Columns: []string{"q1"},
			Transforms: map[string]transform.Transformer{
				"q1": transform.Func(func(tc transform.Context, v any) (any, error) {
					return v.(int), nil
				}),
			},
		})[0]
		cell := col.Compute(context.Background(), tc, nil)
		if cell.Available() {
			t.Fatal("expected failure")
		}
	})

	t.Run("formatter error", func(t *testing.T) {
		col := Discover(nil, &Options{Columns: []string{"id"}})[0]
		cell := col.Compute(context.Background(), tc, func(tc transform.Context, v any) (any, error) {
			return nil, errors.New("bad format")
		})
		if cell.Available() {
			t.Fatal("expected failure")
		}
	})
}

// TestCamelCase tests JSON property naming.
func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"q1":           "q1",
		"Q1":           "q1",
		"FormId":       "formId",
		"formId":       "formId",
		"ID":           "id",
		"URLValue":     "urlValue",
		"Photo Upload": "photo Upload",
		"ABC DEF":      "abc DEF",
		"Éclair":       "éclair",
	}
	for in, want := range tests {
		if got := CamelCase(in); got != want {
			t.Errorf("CamelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestColumn_ComputeLiftsAnswers tests that dynamic values are lifted into
// JSON nodes before the chain runs.
func TestColumn_ComputeLiftsAnswers(t *testing.T) {
	var seen any
	capture := transform.Func(func(tc transform.Context, v any) (any, error) {
		seen = v
		return v, nil
	})

	tc := transform.Context{
		Row: &submission.Submission{ID: 1, FormID: 1},
		Document: map[string]any{
			"list":   `[1,2]`,
			"padded": "  plain  ",
			"blank":  "   ",
			"red":    "[redacted]",
		},
	}
	cols := Discover([]string{"list", "padded", "blank", "red"}, &Options{
		Columns: []string{"list", "padded", "blank", "red"},
		Transforms: map[string]transform.Transformer{
			"list": capture, "padded": capture, "blank": capture, "red": capture,
		},
	})

	tests := []struct {
		column string
		want   any
	}{
		{"list", []any{int64(1), int64(2)}},
		{"padded", "plain"},
		{"blank", nil},
	}
	for i, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			cell := cols[i].Compute(context.Background(), tc, nil)
			if !cell.Available() {
				t.Fatalf("unexpected error: %v", cell.Err)
			}
			if !reflect.DeepEqual(seen, tt.want) {
				t.Errorf("transformer saw %#v, want %#v", seen, tt.want)
			}
		})
	}

	t.Run("bracketed text that is not JSON", func(t *testing.T) {
		cell := cols[3].Compute(context.Background(), tc, nil)
		var cellErr *submission.CellError
		if !errors.As(cell.Err, &cellErr) || cellErr.Column != "red" {
			t.Fatalf("expected CellError for red, got %v", cell.Err)
		}
	})
}

// TestColumn_ComputeSourceText tests that untouched structured and numeric
// answers keep their source text.
func TestColumn_ComputeSourceText(t *testing.T) {
	obj := map[string]any{"z": int64(1), "a": int64(2)}
	tc := transform.Context{
		Row:      &submission.Submission{ID: 1, FormID: 1},
		Document: map[string]any{"obj": obj, "n": 1.1, "s": "x"},
		Raw: map[string]json.RawMessage{
			"obj": json.RawMessage(`{"z":1,"a":2}`),
			"n":   json.RawMessage(`1.10`),
			"s":   json.RawMessage(`"x"`),
		},
	}
	identity := func(tc transform.Context, v any) (any, error) { return v, nil }

	t.Run("untouched", func(t *testing.T) {
		cols := Discover([]string{"obj", "n", "s"}, &Options{Columns: []string{"obj", "n", "s"}})
		want := []any{json.RawMessage(`{"z":1,"a":2}`), json.RawMessage(`1.10`), "x"}
		for i, col := range cols {
			cell := col.Compute(context.Background(), tc, identity)
			if !reflect.DeepEqual(cell.Value, want[i]) {
				t.Errorf("%s = %#v, want %#v", col.Name, cell.Value, want[i])
			}
		}
	})

	t.Run("replaced by the chain", func(t *testing.T) {
		col := Discover([]string{"obj"}, &Options{
			Columns: []string{"obj"},
			Transforms: map[string]transform.Transformer{
				"obj": transform.Func(func(tc transform.Context, v any) (any, error) {
					return map[string]any{"z": int64(1), "a": int64(2)}, nil
				}),
			},
		})[0]
		cell := col.Compute(context.Background(), tc, identity)
		if _, ok := cell.Value.(map[string]any); !ok {
			t.Errorf("expected the new object, got %#v", cell.Value)
		}
	})

	t.Run("column formatter sees the node", func(t *testing.T) {
		col := Discover([]string{"obj"}, &Options{
			Columns:    []string{"obj"},
			Formatters: map[string]Formatter{"obj": identity},
		})[0]
		cell := col.Compute(context.Background(), tc, nil)
		if _, ok := cell.Value.(map[string]any); !ok {
			t.Errorf("expected parsed object, got %#v", cell.Value)
		}
	})
}

// TestDiscover_JSONNames tests that JSON property names stay distinct.
func TestDiscover_JSONNames(t *testing.T) {
	tests := []struct {
		name       string
		properties []string
		want       map[string]string
	}{
		{
			name:       "camel-cased",
			properties: []string{"Name", "URLValue"},
			want:       map[string]string{"Name": "name", "URLValue": "urlValue"},
		},
		{
			name:       "collision after the camel-cased name",
			properties: []string{"Q1", "q1"},
			want:       map[string]string{"Q1": "Q1", "q1": "q1"},
		},
		{
			name:       "collision with a static field",
			properties: []string{"FormId"},
			want:       map[string]string{"formId": "formId", "FormId": "FormId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := Discover(tt.properties, nil)
			got := make(map[string]string)
			keys := make(map[string]bool)
			for _, c := range cols {
				got[c.Name] = c.JSONName
				if keys[c.JSONName] {
					t.Errorf("duplicate JSON name %q", c.JSONName)
				}
				keys[c.JSONName] = true
			}
			for name, want := range tt.want {
				if got[name] != want {
					t.Errorf("JSONName(%s) = %q, want %q", name, got[name], want)
				}
			}
		})
	}
}
