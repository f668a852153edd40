// Package ddl is a small, dialect-neutral model for CREATE TABLE statements.
//
// Backends describe their dialect with a Style (identifier quoting, whether
// IF NOT EXISTS is available) and a type mapper; FromTable turns an in-memory
// table schema into a TableDef and BuildCreateTableSQL renders it.
package ddl

import (
	"fmt"
	"strings"

	"dfpipe/internal/table"
)

// Style captures the dialect differences the renderer cares about.
type Style struct {
	// Quote quotes one identifier segment. Nil leaves names as-is.
	Quote func(string) string
	// IfNotExists emits CREATE TABLE IF NOT EXISTS.
	IfNotExists bool
}

// QuoteDouble quotes an identifier ANSI style: "name", doubling embedded quotes.
func QuoteDouble(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteBracket quotes a SQL Server identifier: [name], doubling embedded ].
func QuoteBracket(id string) string {
	return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]`
}

// QuoteBacktick quotes a MySQL identifier: `name`, doubling embedded backticks.
func QuoteBacktick(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// QuoteFQN quotes each dot-separated segment of name. Empty segments are
// dropped.
func QuoteFQN(name string, quote func(string) string) string {
	if quote == nil {
		return name
	}
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...
//	  [PRIMARY KEY (<pk cols>)]
//	);
//
// Primary key columns are always NOT NULL.
func BuildCreateTableSQL(t TableDef, s Style) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: table %s has no columns", fqn)
	}
	quote := s.Quote
	if quote == nil {
		quote = func(id string) string { return id }
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	head := "CREATE TABLE "
	if s.IfNotExists {
		head += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", head, QuoteFQN(fqn, s.Quote), strings.Join(cols, ",\n  ")), nil
}

// FromTable builds a TableDef for t named fqn, mapping column types with
// mapType. Nullability follows the table schema.
func FromTable(t *table.Table, fqn string, mapType func(table.Type) string) TableDef {
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, len(t.Schema))}
	for i, c := range t.Schema {
		def.Columns[i] = ColumnDef{
			Name:     c.Name,
			SQLType:  mapType(c.Type),
			Nullable: c.Nullable,
		}
	}
	return def
}
