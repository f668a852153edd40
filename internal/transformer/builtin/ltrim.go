package builtin

import (
	"strings"
	"unicode"

	"dfpipe/internal/table"
)

// LTrim removes leading whitespace only; trailing and inner spaces stay.
type LTrim struct {
	Input  string
	Output string
}

func (l LTrim) Apply(t *table.Table) (*table.Table, error) {
	return derive(t, l.Input, l.Output, table.String, func(s string) any {
		return strings.TrimLeftFunc(s, unicode.IsSpace)
	})
}
