// Package table is the in-memory tabular model the pipeline operates on.
//
// A Table is an ordered schema plus positional rows. Values are nil (NULL),
// string, int64 (integer/long) or time.Time (date/timestamp, UTC). Every
// operation returns a new *Table; inputs are never mutated, so a step can
// derive from a table that an earlier step still shows or joins.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is a logical column type. Names follow the Spark SQL simple type
// strings so schema printouts read the same.
type Type string

const (
	String    Type = "string"
	Integer   Type = "integer"
	Long      Type = "long"
	Date      Type = "date"
	Timestamp Type = "timestamp"
)

// ParseType maps a config type name onto a Type. Unknown names are an error.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string", "text":
		return String, nil
	case "int", "integer":
		return Integer, nil
	case "long", "bigint":
		return Long, nil
	case "date":
		return Date, nil
	case "timestamp", "datetime":
		return Timestamp, nil
	}
	return "", fmt.Errorf("table: unknown type %q", s)
}

// Column describes one field of a schema.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
}

// Table is an immutable, named, in-memory dataset.
type Table struct {
	Name   string
	Schema []Column
	Rows   [][]any
}

// New builds a table and checks every row against the schema width.
func New(name string, schema []Column, rows [][]any) (*Table, error) {
	for i, r := range rows {
		if len(r) != len(schema) {
			return nil, fmt.Errorf("table %s: row %d has %d values, schema has %d columns", name, i, len(r), len(schema))
		}
	}
	return &Table{
		Name:   name,
		Schema: append([]Column(nil), schema...),
		Rows:   copyRows(rows),
	}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Names returns the column names in schema order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Schema))
	for i, c := range t.Schema {
		out[i] = c.Name
	}
	return out
}

// Index resolves a column name. An exact match wins; otherwise the lookup is
// case-insensitive. Returns -1 when the name is unknown or ambiguous.
func (t *Table) Index(name string) int {
	for i, c := range t.Schema {
		if c.Name == name {
			return i
		}
	}
	found := -1
	for i, c := range t.Schema {
		if strings.EqualFold(c.Name, name) {
			if found >= 0 {
				return -1
			}
			found = i
		}
	}
	return found
}

// Column returns the column definition for name.
func (t *Table) Column(name string) (Column, error) {
	i := t.Index(name)
	if i < 0 {
		return Column{}, fmt.Errorf("table %s: cannot resolve column %q among [%s]", t.Name, name, strings.Join(t.Names(), ", "))
	}
	return t.Schema[i], nil
}

// Value returns the cell at row r for column name.
func (t *Table) Value(r int, name string) (any, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("table %s: cannot resolve column %q", t.Name, name)
	}
	if r < 0 || r >= len(t.Rows) {
		return nil, fmt.Errorf("table %s: row %d out of range", t.Name, r)
	}
	return t.Rows[r][i], nil
}

// Rename returns a copy of t with the table renamed.
func (t *Table) Rename(name string) *Table {
	out := t.clone()
	out.Name = name
	return out
}

// RenameColumn returns a copy of t with column from renamed to to. Renaming a
// missing column is a no-op, as withColumnRenamed is in Spark.
func (t *Table) RenameColumn(from, to string) *Table {
	out := t.clone()
	if i := t.Index(from); i >= 0 {
		out.Schema[i].Name = to
	}
	return out
}

// WithColumn returns a copy of t with col computed per row by fn. When a
// column of the same name exists it is replaced in place; otherwise col is
// appended.
func (t *Table) WithColumn(col Column, fn func(row []any) (any, error)) (*Table, error) {
	pos := t.Index(col.Name)
	schema := append([]Column(nil), t.Schema...)
	if pos < 0 {
		schema = append(schema, col)
	} else {
		schema[pos] = col
	}

	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		v, err := fn(r)
		if err != nil {
			return nil, fmt.Errorf("table %s: column %s row %d: %w", t.Name, col.Name, i, err)
		}
		nr := make([]any, len(schema))
		copy(nr, r)
		if pos < 0 {
			nr[len(schema)-1] = v
		} else {
			nr[pos] = v
		}
		rows[i] = nr
	}
	return &Table{Name: t.Name, Schema: schema, Rows: rows}, nil
}

// Select projects the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	schema := make([]Column, len(names))
	for i, n := range names {
		j := t.Index(n)
		if j < 0 {
			return nil, fmt.Errorf("table %s: cannot resolve column %q among [%s]", t.Name, n, strings.Join(t.Names(), ", "))
		}
		idx[i] = j
		schema[i] = t.Schema[j]
	}
	rows := make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]any, len(idx))
		for i, j := range idx {
			nr[i] = row[j]
		}
		rows[r] = nr
	}
	return &Table{Name: t.Name, Schema: schema, Rows: rows}, nil
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(row []any) bool) *Table {
	rows := make([][]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		if keep(r) {
			rows = append(rows, append([]any(nil), r...))
		}
	}
	return &Table{Name: t.Name, Schema: append([]Column(nil), t.Schema...), Rows: rows}
}

// Records returns the header followed by every row rendered with FormatValue.
// NULL renders as "null".
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Names())
	for _, r := range t.Rows {
		rec := make([]string, len(r))
		for i, v := range r {
			rec[i] = FormatValue(t.Schema[i].Type, v)
		}
		out = append(out, rec)
	}
	return out
}

// FormatValue renders a cell the way the console printer shows it.
func FormatValue(typ Type, v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if typ == Date {
			return x.UTC().Format("2006-01-02")
		}
		if x.Nanosecond() != 0 {
			return x.UTC().Format("2006-01-02 15:04:05.999999")
		}
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

func (t *Table) clone() *Table {
	return &Table{
		Name:   t.Name,
		Schema: append([]Column(nil), t.Schema...),
		Rows:   copyRows(t.Rows),
	}
}

func copyRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
