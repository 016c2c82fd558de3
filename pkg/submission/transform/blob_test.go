package transform

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"mercator-hq/harvest/pkg/submission"
)

const (
	testHub       = "https://hub.example.com"
	testHost      = "acct.blob.core.windows.net"
	testContainer = "user-files"
)

func newTestRewriter() *BlobURLRewriter {
	return NewBlobURLRewriter(testHub, []StorageRule{{Host: testHost, Container: testContainer}})
}

func rowContext(formID, id int64) Context {
	return Context{Row: &submission.Submission{ID: id, FormID: formID}}
}

func blobURL(formID, id int64, name string) string {
	return fmt.Sprintf("https://%s/%s/s/%d/%d/%s", testHost, testContainer, formID, id, name)
}

// TestBlobURLRewriter_Array tests rewriting a descriptor array for the owning row.
func TestBlobURLRewriter_Array(t *testing.T) {
	r := newTestRewriter()
	value := []any{
		map[string]any{"content": "https://acct.blob.core.windows.net/user-files/s/7/42/photo.png", "name": "photo.png"},
	}

	got, err := r.Transform(rowContext(7, 42), value)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	arr, ok := got.([]any)
	if !ok || len(arr) != 1 {
		t.Fatalf("expected one-element array, got %#v", got)
	}
	entry := arr[0].(map[string]any)
	want := "https://hub.example.com/forms/7/submissions/42/files/photo.png"
	if entry["content"] != want {
		t.Errorf("content = %v, want %s", entry["content"], want)
	}
	if entry["name"] != "photo.png" {
		t.Errorf("expected other fields to be preserved, got %#v", entry)
	}

	// Input must not be mutated
	orig := value[0].(map[string]any)["content"]
	if orig != "https://acct.blob.core.windows.net/user-files/s/7/42/photo.png" {
		t.Errorf("input was mutated: %v", orig)
	}
}

// TestBlobURLRewriter_MismatchedSubmission tests the cross-record guard.
func TestBlobURLRewriter_MismatchedSubmission(t *testing.T) {
	r := newTestRewriter()
	value := []any{
		map[string]any{"content": "https://acct.blob.core.windows.net/user-files/s/7/42/photo.png"},
	}

	for _, tc := range []Context{rowContext(7, 99), rowContext(8, 42)} {
		got, err := r.Transform(tc, value)
		if err != nil {
			t.Fatalf("Transform failed: %v", err)
		}
		if !reflect.DeepEqual(got, value) {
			t.Errorf("expected value unchanged for row %d/%d, got %#v", tc.Row.FormID, tc.Row.ID, got)
		}
	}
}

// TestBlobURLRewriter_Shapes tests the supported container shapes.
func TestBlobURLRewriter_Shapes(t *testing.T) {
	r := newTestRewriter()
	tc := rowContext(7, 42)
	rewritten := testHub + "/forms/7/submissions/42/files/a.pdf"

	t.Run("single object", func(t *testing.T) {
		got, _ := r.Transform(tc, map[string]any{"content": blobURL(7, 42, "a.pdf")})
		if got.(map[string]any)["content"] != rewritten {
			t.Errorf("got %#v", got)
		}
	})

	t.Run("object without content", func(t *testing.T) {
		in := map[string]any{"url": blobURL(7, 42, "a.pdf")}
		got, _ := r.Transform(tc, in)
		if !reflect.DeepEqual(got, in) {
			t.Errorf("got %#v", got)
		}
	})

	t.Run("partial array", func(t *testing.T) {
		in := []any{
			map[string]any{"content": blobURL(7, 42, "a.pdf")},
			map[string]any{"content": blobURL(7, 41, "b.pdf")},
			"not a descriptor",
		}
		got, _ := r.Transform(tc, in)
		arr := got.([]any)
		if arr[0].(map[string]any)["content"] != rewritten {
			t.Errorf("first entry not rewritten: %#v", arr[0])
		}
		if arr[1].(map[string]any)["content"] != blobURL(7, 41, "b.pdf") {
			t.Errorf("second entry should be untouched: %#v", arr[1])
		}
		if arr[2] != "not a descriptor" {
			t.Errorf("third entry changed: %#v", arr[2])
		}
	})

	t.Run("array without matches is returned as-is", func(t *testing.T) {
		in := []any{map[string]any{"content": "https://other.example.com/x.png"}}
		got, _ := r.Transform(tc, in)
		if reflect.ValueOf(got).Pointer() != reflect.ValueOf(in).Pointer() {
			t.Error("expected the original slice")
		}
	})

	t.Run("json encoded string", func(t *testing.T) {
		in := `[{"content":"` + blobURL(7, 42, "a.pdf?sv=2021&sig=abc") + `","size":10}]`
		got, _ := r.Transform(tc, in)
		s, ok := got.(string)
		if !ok {
			t.Fatalf("expected string, got %T", got)
		}
		var arr []map[string]any
		if err := json.Unmarshal([]byte(s), &arr); err != nil {
			t.Fatalf("result is not JSON: %v", err)
		}
		if arr[0]["content"] != rewritten {
			t.Errorf("content = %v", arr[0]["content"])
		}
		if arr[0]["size"] != float64(10) {
			t.Errorf("size = %v", arr[0]["size"])
		}
	})

	t.Run("raw message", func(t *testing.T) {
		in := json.RawMessage(`{"content":"` + blobURL(7, 42, "a.pdf") + `"}`)
		got, _ := r.Transform(tc, in)
		raw, ok := got.(json.RawMessage)
		if !ok {
			t.Fatalf("expected json.RawMessage, got %T", got)
		}
		if !strings.Contains(string(raw), rewritten) {
			t.Errorf("got %s", raw)
		}
	})

	t.Run("malformed string never fails", func(t *testing.T) {
		in := `[{"content":"` + blobURL(7, 42, "a.pdf") + `"`
		got, err := r.Transform(tc, in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != in {
			t.Errorf("got %#v", got)
		}
	})

	t.Run("string without host skips parsing", func(t *testing.T) {
		in := "[not json at all]"
		got, err := r.Transform(tc, in)
		if err != nil || got != in {
			t.Errorf("got %#v, %v", got, err)
		}
	})

	t.Run("scalars", func(t *testing.T) {
		for _, in := range []any{nil, int64(3), true, 1.5} {
			got, err := r.Transform(tc, in)
			if err != nil || got != in {
				t.Errorf("Transform(%#v) = %#v, %v", in, got, err)
			}
		}
	})
}

// TestBlobURLRewriter_Disabled tests pass-through without configuration.
func TestBlobURLRewriter_Disabled(t *testing.T) {
	in := []any{map[string]any{"content": blobURL(7, 42, "a.pdf")}}

	for name, r := range map[string]*BlobURLRewriter{
		"no hub":       NewBlobURLRewriter("  ", []StorageRule{{Host: testHost, Container: testContainer}}),
		"no rules":     NewBlobURLRewriter(testHub, nil),
		"blank rules":  NewBlobURLRewriter(testHub, []StorageRule{{Host: "", Container: "x"}}),
		"nil rewriter": nil,
	} {
		t.Run(name, func(t *testing.T) {
			if r.Enabled() {
				t.Fatal("expected rewriter to be disabled")
			}
			got, err := r.Transform(rowContext(7, 42), in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, in) {
				t.Errorf("got %#v", got)
			}
		})
	}
}

// TestBlobURLRewriter_RewriteURL tests the byte-level matcher.
func TestBlobURLRewriter_RewriteURL(t *testing.T) {
	r := NewBlobURLRewriter(testHub+"/", []StorageRule{
		{Host: "other.blob.core.windows.net", Container: "docs"},
		{Host: testHost, Container: testContainer},
	})

	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"https", blobURL(7, 42, "photo.png"), testHub + "/forms/7/submissions/42/files/photo.png", true},
		{"http", "http://" + testHost + "/user-files/s/7/42/photo.png", testHub + "/forms/7/submissions/42/files/photo.png", true},
		{"query stripped", blobURL(7, 42, "photo.png?sig=abc"), testHub + "/forms/7/submissions/42/files/photo.png", true},
		{"second rule", "https://other.blob.core.windows.net/docs/s/7/42/x.txt", testHub + "/forms/7/submissions/42/files/x.txt", true},
		{"no scheme", testHost + "/user-files/s/7/42/photo.png", "", false},
		{"ftp scheme", "ftp://" + testHost + "/user-files/s/7/42/photo.png", "", false},
		{"host case differs", "https://ACCT.blob.core.windows.net/user-files/s/7/42/photo.png", "", false},
		{"host suffix", "https://" + testHost + ".evil.com/user-files/s/7/42/photo.png", "", false},
		{"wrong container", "https://" + testHost + "/other/s/7/42/photo.png", "", false},
		{"missing marker", "https://" + testHost + "/user-files/7/42/photo.png", "", false},
		{"non numeric form", "https://" + testHost + "/user-files/s/x/42/photo.png", "", false},
		{"empty form segment", "https://" + testHost + "/user-files/s//42/photo.png", "", false},
		{"truncated after form", "https://" + testHost + "/user-files/s/7", "", false},
		{"truncated after submission", "https://" + testHost + "/user-files/s/7/42", "", false},
		{"empty file name", "https://" + testHost + "/user-files/s/7/42/", "", false},
		{"query only", "https://" + testHost + "/user-files/s/7/42/?sig=1", "", false},
		{"nested file path", "https://" + testHost + "/user-files/s/7/42/a/b.png", "", false},
		{"overflow", "https://" + testHost + "/user-files/s/99999999999999999999/42/a.png", "", false},
		{"mismatched ids", blobURL(7, 43, "photo.png"), "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.RewriteURL(tt.url, 7, 42)
			if ok != tt.ok || got != tt.want {
				t.Errorf("RewriteURL(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.ok)
			}
		})
	}
}

// TestBlobURLRewriter_Properties checks the rewriter invariants on generated input.
func TestBlobURLRewriter_Properties(t *testing.T) {
	r := newTestRewriter()
	fileName := rapid.StringMatching(`[A-Za-z0-9._-]{1,24}`)

	t.Run("round trip", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			formID := rapid.Int64Range(0, 1<<40).Draw(t, "formID")
			id := rapid.Int64Range(0, 1<<40).Draw(t, "id")
			name := fileName.Draw(t, "name")

			got, ok := r.RewriteURL(blobURL(formID, id, name), formID, id)
			if !ok {
				t.Fatalf("expected match")
			}
			f, s, n := parseHubURL(t, got)
			if f != formID || s != id || n != name {
				t.Fatalf("round trip mismatch: %d/%d/%s from %s", f, s, n, got)
			}
		})
	})

	t.Run("never crosses records", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			formID := rapid.Int64Range(0, 1<<40).Draw(t, "formID")
			id := rapid.Int64Range(0, 1<<40).Draw(t, "id")
			otherForm := rapid.Int64Range(0, 1<<40).Draw(t, "otherForm")
			otherID := rapid.Int64Range(0, 1<<40).Draw(t, "otherID")
			if formID == otherForm && id == otherID {
				t.Skip("same record")
			}
			in := []any{map[string]any{"content": blobURL(formID, id, fileName.Draw(t, "name"))}}

			got, _ := r.Transform(rowContext(otherForm, otherID), in)
			if !reflect.DeepEqual(got, in) {
				t.Fatalf("rewrote another record's URL: %#v", got)
			}
		})
	})

	t.Run("identity on unrecognized values", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			s := rapid.String().Draw(t, "s")
			if strings.Contains(s, testHost) {
				t.Skip("mentions host")
			}
			got, err := r.Transform(rowContext(1, 2), s)
			if err != nil || got != s {
				t.Fatalf("Transform(%q) = %#v, %v", s, got, err)
			}

			in := []any{map[string]any{"content": s}}
			got, err = r.Transform(rowContext(1, 2), in)
			if err != nil || !reflect.DeepEqual(got, in) {
				t.Fatalf("Transform(array) = %#v, %v", got, err)
			}
		})
	})
}

func parseHubURL(t *rapid.T, u string) (int64, int64, string) {
	rest, ok := strings.CutPrefix(u, testHub+"/forms/")
	if !ok {
		t.Fatalf("unexpected prefix: %s", u)
	}
	parts := strings.SplitN(rest, "/", 5)
	if len(parts) != 5 || parts[1] != "submissions" || parts[3] != "files" {
		t.Fatalf("unexpected shape: %s", u)
	}
	f, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		t.Fatalf("bad form id: %v", err)
	}
	s, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		t.Fatalf("bad submission id: %v", err)
	}
	return f, s, parts[4]
}
