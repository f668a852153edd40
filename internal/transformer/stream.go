package transformer

import (
	"context"
	"time"

	"dfpipe/internal/table"
)

// StreamRows sends every row of t to out as database-ready values and returns
// when all rows are sent or ctx is canceled. It does not close out.
//
// A per-column conversion plan is compiled once so the hot loop does no type
// lookups: date cells are truncated to midnight UTC, timestamp cells are
// converted to UTC, everything else passes through. Each row is a fresh slice,
// so the receiver may keep it.
func StreamRows(ctx context.Context, t *table.Table, out chan<- []any) error {
	plan := compileExportPlan(t.Schema)

	for _, r := range t.Rows {
		row := make([]any, len(r))
		for i, v := range r {
			if v == nil {
				continue
			}
			row[i] = plan[i](v)
		}
		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func compileExportPlan(schema []table.Column) []func(any) any {
	plan := make([]func(any) any, len(schema))
	for i, c := range schema {
		switch c.Type {
		case table.Date:
			plan[i] = func(v any) any {
				if ts, ok := v.(time.Time); ok {
					y, m, d := ts.UTC().Date()
					return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
				}
				return v
			}
		case table.Timestamp:
			plan[i] = func(v any) any {
				if ts, ok := v.(time.Time); ok {
					return ts.UTC()
				}
				return v
			}
		default:
			plan[i] = func(v any) any { return v }
		}
	}
	return plan
}
