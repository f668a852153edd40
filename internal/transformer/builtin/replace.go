package builtin

import (
	"fmt"
	"regexp"

	"dfpipe/internal/table"
)

// RegexpReplace rewrites every match of Pattern with Replacement.
//
// The default pattern "null" makes this the null-sentinel scrub: the literal
// text "null" is removed wherever it appears, so "nullify" becomes "ify".
// Exact restricts the rewrite to cells that match Pattern in full.
type RegexpReplace struct {
	Input       string
	Output      string
	Pattern     string
	Replacement string
	Exact       bool
}

// NullSentinel is the default pattern for RegexpReplace.
const NullSentinel = "null"

func (r RegexpReplace) Apply(t *table.Table) (*table.Table, error) {
	pattern := r.Pattern
	if pattern == "" {
		pattern = NullSentinel
	}
	if r.Exact {
		pattern = "^(?:" + pattern + ")$"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("regexp_replace: %w", err)
	}
	return derive(t, r.Input, r.Output, table.String, func(s string) any {
		return re.ReplaceAllString(s, r.Replacement)
	})
}
