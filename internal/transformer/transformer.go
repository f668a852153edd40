// Package transformer turns pipeline steps into table transformations.
package transformer

import (
	"fmt"

	"dfpipe/internal/config"
	"dfpipe/internal/query"
	"dfpipe/internal/table"
	"dfpipe/internal/transformer/builtin"
)

// Transformer derives a new table from an input table. Implementations must
// not mutate the input.
type Transformer interface {
	Apply(*table.Table) (*table.Table, error)
}

// Func adapts a plain function to Transformer.
type Func func(*table.Table) (*table.Table, error)

func (f Func) Apply(t *table.Table) (*table.Table, error) { return f(t) }

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(in *table.Table) (*table.Table, error) {
	out := in
	for i, t := range c {
		var err error
		if out, err = t.Apply(out); err != nil {
			return nil, fmt.Errorf("chain[%d]: %w", i, err)
		}
	}
	return out, nil
}

// identity is used for steps that only print.
var identity = Func(func(t *table.Table) (*table.Table, error) { return t, nil })

// Build maps a single-input step onto its transformer. Join steps need two
// tables and are resolved by the caller.
func Build(step config.Step) (Transformer, error) {
	o := step.Options
	switch step.Kind {
	case "show":
		return identity, nil
	case "from_unixtime":
		return builtin.FromUnixTime{
			Input:   o.String("input", ""),
			Output:  o.String("output", ""),
			Digits:  o.Int("digits", 10),
			Pattern: o.String("pattern", builtin.DefaultTimestampPattern),
		}, nil
	case "to_date":
		return builtin.ToDate{Input: o.String("input", ""), Output: o.String("output", "")}, nil
	case "ltrim":
		return builtin.LTrim{Input: o.String("input", ""), Output: o.String("output", "")}, nil
	case "regexp_replace":
		return builtin.RegexpReplace{
			Input:       o.String("input", ""),
			Output:      o.String("output", ""),
			Pattern:     o.String("pattern", builtin.NullSentinel),
			Replacement: o.String("replacement", ""),
			Exact:       o.Bool("exact", false),
		}, nil
	case "rename_snake":
		return builtin.RenameSnake{Columns: o.StringSlice("columns")}, nil
	case "start_time_ms":
		return builtin.StartTimeMillis{Input: o.String("input", ""), Output: o.String("output", "")}, nil
	case "coerce":
		return builtin.Coerce{Types: o.StringMap("types"), Layout: o.String("layout", "")}, nil
	case "normalize":
		return builtin.Normalize{}, nil
	case "dedup":
		return builtin.DeDup{
			Keys:         o.StringSlice("keys"),
			Policy:       o.String("policy", ""),
			PreferFields: o.StringSlice("prefer_fields"),
		}, nil
	case "require":
		return builtin.Require{Fields: o.StringSlice("fields")}, nil
	case "filter":
		cond := query.Cond{
			Column: o.String("column", ""),
			Op:     o.String("op", ""),
			Value:  o.Any("value"),
		}
		project := o.StringSlice("select")
		return Func(func(t *table.Table) (*table.Table, error) {
			return query.Filter(t, cond, project...)
		}), nil
	case "select":
		cols := o.StringSlice("columns")
		return Func(func(t *table.Table) (*table.Table, error) {
			return query.Select(t, cols...)
		}), nil
	case "chain":
		subs, err := o.Steps("steps")
		if err != nil {
			return nil, err
		}
		if len(subs) == 0 {
			return nil, fmt.Errorf("chain step has no steps")
		}
		c := make(Chain, 0, len(subs))
		for i, sub := range subs {
			tr, err := Build(sub)
			if err != nil {
				return nil, fmt.Errorf("chain[%d] (%s): %w", i, sub.Kind, err)
			}
			c = append(c, tr)
		}
		return c, nil
	case "join":
		return nil, fmt.Errorf("join steps combine two tables and cannot be built as a single-table transformer")
	default:
		return nil, fmt.Errorf("unknown step kind %q", step.Kind)
	}
}
