// Package query filters and projects tables through a gota DataFrame.
//
// A table is loaded into a DataFrame with one series per column plus a hidden
// row index. Filtering and projection run on the DataFrame; the surviving row
// indexes and column names are then mapped back onto the source table so the
// result keeps the original column types and NULLs.
package query

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"dfpipe/internal/table"
)

// rowIndex names the hidden column that carries source row positions.
const rowIndex = "__dfpipe_row"

// textPrefix is prepended to every non-NULL text cell and text comparison
// value. gota reads the bare string "NaN" as NA; prefixed, only real NULLs
// are NA. The shared prefix keeps ordered comparisons intact.
const textPrefix = "v:"

// Cond is a single-column comparison. NULL cells never match.
type Cond struct {
	Column string
	// Op is one of == != > >= < <=. Empty means ==.
	Op    string
	Value any
}

var comparators = map[string]series.Comparator{
	"":   series.Eq,
	"==": series.Eq,
	"!=": series.Neq,
	">":  series.Greater,
	">=": series.GreaterEq,
	"<":  series.Less,
	"<=": series.LessEq,
}

// Filter keeps the rows of t matching c and, when project is non-empty,
// keeps only the projected columns in the given order. The filter column does
// not need to be part of the projection.
func Filter(t *table.Table, c Cond, project ...string) (*table.Table, error) {
	cmp, ok := comparators[c.Op]
	if !ok {
		return nil, fmt.Errorf("query: unknown operator %q", c.Op)
	}
	col, err := t.Column(c.Column)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	want, err := comparando(col.Type, c.Value)
	if err != nil {
		return nil, fmt.Errorf("query: column %s: %w", col.Name, err)
	}

	df := toFrame(t).Filter(dataframe.F{
		Colname:    col.Name,
		Comparator: cmp,
		Comparando: want,
	})
	if df.Err != nil {
		return nil, fmt.Errorf("query: filter %s %s %v: %w", col.Name, cmp, c.Value, df.Err)
	}

	out, err := fromFrame(t, df)
	if err != nil {
		return nil, err
	}
	if len(project) == 0 {
		return out, nil
	}
	return Select(out, project...)
}

// Select projects the named columns of t. Names resolve case-insensitively.
func Select(t *table.Table, names ...string) (*table.Table, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("query: select needs at least one column")
	}
	resolved := make([]string, 0, len(names)+1)
	for _, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		resolved = append(resolved, c.Name)
	}
	resolved = append(resolved, rowIndex)

	df := toFrame(t).Select(resolved)
	if df.Err != nil {
		return nil, fmt.Errorf("query: select %v: %w", names, df.Err)
	}
	return fromFrame(t, df)
}

// toFrame builds one series per column. Integer columns become Int series so
// ordered comparisons are numeric; everything else is compared as prefixed
// text.
func toFrame(t *table.Table) dataframe.DataFrame {
	cols := make([]series.Series, 0, len(t.Schema)+1)
	for i, c := range t.Schema {
		vals := make([]interface{}, len(t.Rows))
		typ := series.String
		if isIntegral(c.Type) {
			typ = series.Int
		}
		for r, row := range t.Rows {
			switch v := row[i].(type) {
			case nil:
				vals[r] = nil
			case int64:
				vals[r] = int(v)
			default:
				vals[r] = textPrefix + table.FormatValue(c.Type, v)
			}
		}
		cols = append(cols, series.New(vals, typ, c.Name))
	}
	idx := make([]int, len(t.Rows))
	for r := range idx {
		idx[r] = r
	}
	cols = append(cols, series.New(idx, series.Int, rowIndex))
	return dataframe.New(cols...)
}

// fromFrame rebuilds a typed table from the rows and columns left in df.
func fromFrame(src *table.Table, df dataframe.DataFrame) (*table.Table, error) {
	rows, err := df.Col(rowIndex).Int()
	if err != nil {
		return nil, fmt.Errorf("query: row index: %w", err)
	}
	var names []string
	for _, n := range df.Names() {
		if n != rowIndex {
			names = append(names, n)
		}
	}
	picked := src.Filter(func([]any) bool { return false })
	for _, r := range rows {
		picked.Rows = append(picked.Rows, append([]any(nil), src.Rows[r]...))
	}
	return picked.Select(names...)
}

func isIntegral(t table.Type) bool {
	return t == table.Integer || t == table.Long
}

// comparando converts a config value to the element type of the column's
// series. JSON numbers arrive as float64.
func comparando(typ table.Type, v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("comparison value must not be null")
	}
	if isIntegral(typ) {
		switch x := v.(type) {
		case int:
			return x, nil
		case int64:
			return int(x), nil
		case float64:
			if x != math.Trunc(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("value %v is not a whole number", x)
			}
			return int(x), nil
		case string:
			n, err := strconv.Atoi(x)
			if err != nil {
				return nil, fmt.Errorf("value %q is not an integer", x)
			}
			return n, nil
		}
		return nil, fmt.Errorf("value %v (%T) is not an integer", v, v)
	}
	switch x := v.(type) {
	case string:
		return textPrefix + x, nil
	case float64:
		return textPrefix + strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return textPrefix + table.FormatValue(typ, x), nil
	}
}
