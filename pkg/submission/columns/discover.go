package columns

import (
	"fmt"
	"log/slog"

	"mercator-hq/harvest/pkg/submission/transform"
)

// Options control column discovery.
type Options struct {
	// Columns is an optional allow-list. When set, only these columns are
	// exported, in this order; names that match no candidate are skipped.
	Columns []string

	// Transforms adds a per-column transformer after the built-in ones.
	Transforms map[string]transform.Transformer

	// Formatters overrides the writer's formatter for a column.
	Formatters map[string]Formatter

	// Rewriter is attached to every dynamic column, typically the shared
	// blob URL rewriter. May be nil.
	Rewriter transform.Transformer

	// Logger is attached to every column.
	Logger *slog.Logger
}

// Discover builds the ordered column list for a run. properties are the
// top-level answer property names of the first row, in document order.
// Static fields win over answer properties with the same name.
func Discover(properties []string, opts *Options) []*Column {
	if opts == nil {
		opts = &Options{}
	}

	dynamic := make(map[string]struct{}, len(properties))
	for _, p := range properties {
		if !isStatic(p) {
			dynamic[p] = struct{}{}
		}
	}

	var names []string
	if len(opts.Columns) > 0 {
		seen := make(map[string]struct{}, len(opts.Columns))
		for _, name := range opts.Columns {
			if _, dup := seen[name]; dup {
				continue
			}
			_, isDynamic := dynamic[name]
			if !isStatic(name) && !isDynamic {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	} else {
		names = StaticNames()
		for _, p := range properties {
			if _, ok := dynamic[p]; ok {
				names = append(names, p)
				delete(dynamic, p)
			}
		}
	}

	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		cols = append(cols, newColumn(name, opts))
	}
	assignJSONNames(cols)
	return cols
}

// assignJSONNames gives every column a distinct JSON property name. Names
// that are already camel-cased keep themselves. Others take their camel-cased
// form when it is free, else their own name, else a numbered suffix.
func assignJSONNames(cols []*Column) {
	taken := make(map[string]struct{}, len(cols))
	assigned := make([]bool, len(cols))
	for i, c := range cols {
		if CamelCase(c.Name) == c.Name {
			c.JSONName = c.Name
			taken[c.Name] = struct{}{}
			assigned[i] = true
		}
	}

	for i, c := range cols {
		if assigned[i] {
			continue
		}
		name := CamelCase(c.Name)
		if _, dup := taken[name]; dup {
			name = c.Name
		}
		for n := 2; ; n++ {
			if _, dup := taken[name]; !dup {
				break
			}
			name = fmt.Sprintf("%s_%d", c.Name, n)
		}
		c.JSONName = name
		taken[name] = struct{}{}
	}
}

func newColumn(name string, opts *Options) *Column {
	col := &Column{
		Name:      name,
		Formatter: opts.Formatters[name],
		Logger:    opts.Logger,
	}

	var chain transform.Chain
	if accessor, ok := StaticField(name); ok {
		col.Accessor = accessor
	} else {
		col.Accessor = Property(name)
		chain = chain.With(opts.Rewriter)
	}
	if t, ok := opts.Transforms[name]; ok {
		chain = chain.With(t)
	}
	col.Transformers = chain

	return col
}
