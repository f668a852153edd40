package builtin

import "dfpipe/internal/table"

// ToDate casts the input to a timestamp and keeps only its UTC calendar date.
// 2022-03-31T23:55:33 becomes the date 2022-03-31.
type ToDate struct {
	Input  string
	Output string
}

func (d ToDate) Apply(t *table.Table) (*table.Table, error) {
	return derive(t, d.Input, d.Output, table.Date, func(s string) any {
		ts, ok := ParseTimestamp(s)
		if !ok {
			return nil
		}
		return dateOf(ts)
	})
}
