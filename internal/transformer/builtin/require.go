package builtin

import (
	"fmt"

	"dfpipe/internal/table"
)

// Require drops every row with a NULL or empty-string value in any of Fields.
type Require struct {
	Fields []string
}

func (r Require) Apply(t *table.Table) (*table.Table, error) {
	idx := make([]int, len(r.Fields))
	for n, f := range r.Fields {
		idx[n] = t.Index(f)
		if idx[n] < 0 {
			return nil, fmt.Errorf("require: cannot resolve column %q among %v", f, t.Names())
		}
	}
	return t.Filter(func(row []any) bool {
		for _, i := range idx {
			if row[i] == nil || row[i] == "" {
				return false
			}
		}
		return true
	}), nil
}
