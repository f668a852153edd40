package builtin

import (
	"strings"

	"dfpipe/internal/table"
)

// Normalize replaces NO-BREAK SPACE with a plain space and trims every string
// cell. Non-string cells are untouched.
type Normalize struct{}

func (Normalize) Apply(t *table.Table) (*table.Table, error) {
	out := t
	for i, col := range t.Schema {
		if col.Type != table.String {
			continue
		}
		var err error
		idx := i
		out, err = out.WithColumn(col, func(row []any) (any, error) {
			s, ok := row[idx].(string)
			if !ok {
				return row[idx], nil
			}
			return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " ")), nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
