// Package builtin contains the column-level transformers used by pipeline
// steps. Each transformer reads one input column, derives a value per row, and
// returns a new table with the output column added (or replaced). NULL inputs
// produce NULL outputs; malformed inputs produce NULL rather than an error.
package builtin

import (
	"fmt"

	"dfpipe/internal/table"
)

// derive is the shared skeleton for single-column transforms. fn receives the
// input cell rendered as text and returns the output value (nil for NULL).
func derive(t *table.Table, input, output string, typ table.Type, fn func(s string) any) (*table.Table, error) {
	if input == "" {
		return nil, fmt.Errorf("input column must not be empty")
	}
	if output == "" {
		output = input
	}
	i := t.Index(input)
	if i < 0 {
		return nil, fmt.Errorf("cannot resolve column %q among %v", input, t.Names())
	}
	src := t.Schema[i]
	return t.WithColumn(table.Column{Name: output, Type: typ, Nullable: true}, func(row []any) (any, error) {
		v := row[i]
		if v == nil {
			return nil, nil
		}
		return fn(table.FormatValue(src.Type, v)), nil
	})
}

// substring mirrors SQL substring(str, pos, len) with a 1-based pos. A start
// beyond the end yields "".
func substring(s string, pos, n int) string {
	rs := []rune(s)
	start := pos - 1
	if start < 0 {
		start = 0
	}
	if start >= len(rs) || n <= 0 {
		return ""
	}
	end := start + n
	if end > len(rs) {
		end = len(rs)
	}
	return string(rs[start:end])
}
