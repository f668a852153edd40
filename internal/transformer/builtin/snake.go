package builtin

import (
	"regexp"
	"strings"

	"dfpipe/internal/table"
)

var (
	wordStart  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerUpper = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// CamelToSnake converts a camel-case identifier to snake case:
//
//	SourceId            -> source_id
//	getHTTPResponseCode -> get_http_response_code
//	HTTPResponseCodeXYZ -> http_response_code_xyz
func CamelToSnake(name string) string {
	name = wordStart.ReplaceAllString(name, "${1}_${2}")
	return strings.ToLower(lowerUpper.ReplaceAllString(name, "${1}_${2}"))
}

// RenameSnake renames Columns to their snake-case form. With no Columns it
// renames every column. Listed columns that do not exist are skipped.
type RenameSnake struct {
	Columns []string
}

func (r RenameSnake) Apply(t *table.Table) (*table.Table, error) {
	cols := r.Columns
	if len(cols) == 0 {
		cols = t.Names()
	}
	out := t
	for _, c := range cols {
		out = out.RenameColumn(c, CamelToSnake(c))
	}
	return out, nil
}
