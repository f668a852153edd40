package builtin

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"dfpipe/internal/datetime"
	"dfpipe/internal/table"
)

// Coerce casts string columns to typed columns in place.
//
// Types maps column -> target type ("integer", "long", "date", "timestamp",
// "string"). Cells that fail to parse become NULL. Layout is an optional
// Spark-style pattern for date/timestamp columns; without it the permissive
// ParseTimestamp rules apply. Columns that are not strings are left alone.
type Coerce struct {
	Types  map[string]string
	Layout string
}

func (c Coerce) Apply(t *table.Table) (*table.Table, error) {
	if len(c.Types) == 0 {
		return t, nil
	}
	var pattern *datetime.Pattern
	if c.Layout != "" {
		p, err := datetime.Compile(c.Layout)
		if err != nil {
			return nil, fmt.Errorf("coerce: %w", err)
		}
		pattern = p
	}

	// Map iteration order is random; sort so errors are deterministic.
	fields := make([]string, 0, len(c.Types))
	for f := range c.Types {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := t
	for _, field := range fields {
		typ, err := table.ParseType(c.Types[field])
		if err != nil {
			return nil, fmt.Errorf("coerce %s: %w", field, err)
		}
		col, err := out.Column(field)
		if err != nil {
			return nil, fmt.Errorf("coerce: %w", err)
		}
		if col.Type != table.String {
			continue
		}
		i := out.Index(field)
		out, err = out.WithColumn(table.Column{Name: col.Name, Type: typ, Nullable: true}, func(row []any) (any, error) {
			s, ok := row[i].(string)
			if !ok {
				return row[i], nil
			}
			return castString(strings.TrimSpace(s), typ, pattern), nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// castString converts s to typ; unparsable or empty input yields nil.
func castString(s string, typ table.Type, pattern *datetime.Pattern) any {
	if s == "" && typ != table.String {
		return nil
	}
	switch typ {
	case table.Integer:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil
		}
		return n
	case table.Long:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return n
	case table.Date, table.Timestamp:
		if pattern != nil {
			ts, err := pattern.Parse(s)
			if err != nil {
				return nil
			}
			if typ == table.Date {
				return dateOf(ts)
			}
			return ts
		}
		ts, ok := ParseTimestamp(s)
		if !ok {
			return nil
		}
		if typ == table.Date {
			return dateOf(ts)
		}
		return ts
	default:
		return s
	}
}
