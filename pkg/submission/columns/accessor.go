package columns

import (
	"time"

	"github.com/ohler55/ojg/jp"

	"mercator-hq/harvest/pkg/submission"
	"mercator-hq/harvest/pkg/submission/transform"
)

// AccessorKind selects how a column reads its raw value.
type AccessorKind int

const (
	// StaticAccessor reads a well-known field of the submission.
	StaticAccessor AccessorKind = iota
	// PathAccessor walks a JSON path into the row's parsed answers.
	PathAccessor
)

// String returns the accessor kind name.
func (k AccessorKind) String() string {
	switch k {
	case StaticAccessor:
		return "static"
	case PathAccessor:
		return "path"
	default:
		return "unknown"
	}
}

// Accessor reads the raw value of a column. It is a small tagged union:
// Field is set for static accessors, Path for path accessors.
type Accessor struct {
	Kind  AccessorKind
	Field string
	Path  jp.Expr

	get func(*submission.Submission) any
}

// StaticField returns an accessor for a well-known submission field. The
// second result is false if name is not a static field.
func StaticField(name string) (Accessor, bool) {
	for _, f := range staticFields {
		if f.name == name {
			return Accessor{Kind: StaticAccessor, Field: name, get: f.get}, true
		}
	}
	return Accessor{}, false
}

// Property returns an accessor for a top-level answer property.
func Property(name string) Accessor {
	return Accessor{Kind: PathAccessor, Field: name, Path: jp.R().C(name)}
}

// Value returns the raw value for the cell described by tc. Missing rows,
// documents and properties all yield nil.
func (a Accessor) Value(tc transform.Context) any {
	switch a.Kind {
	case StaticAccessor:
		if tc.Row == nil || a.get == nil {
			return nil
		}
		return a.get(tc.Row)
	case PathAccessor:
		if tc.Document == nil || a.Path == nil {
			return nil
		}
		return a.Path.First(tc.Document)
	default:
		return nil
	}
}

type staticField struct {
	name string
	get  func(*submission.Submission) any
}

// staticFields lists the submission fields in default column order.
var staticFields = []staticField{
	{"formId", func(s *submission.Submission) any { return s.FormID }},
	{"id", func(s *submission.Submission) any { return s.ID }},
	{"parentId", func(s *submission.Submission) any {
		if s.ParentID == nil {
			return nil
		}
		return *s.ParentID
	}},
	{"isComplete", func(s *submission.Submission) any { return s.IsComplete }},
	{"createdAt", func(s *submission.Submission) any { return timeValue(s.CreatedAt) }},
	{"updatedAt", func(s *submission.Submission) any { return timeValue(s.UpdatedAt) }},
	{"completedAt", func(s *submission.Submission) any {
		if s.CompletedAt == nil {
			return nil
		}
		return timeValue(*s.CompletedAt)
	}},
}

// StaticNames returns the static column names in default order.
func StaticNames() []string {
	names := make([]string, len(staticFields))
	for i, f := range staticFields {
		names[i] = f.name
	}
	return names
}

func isStatic(name string) bool {
	for _, f := range staticFields {
		if f.name == name {
			return true
		}
	}
	return false
}

func timeValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
