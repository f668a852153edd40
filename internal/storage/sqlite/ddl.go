package sqlite

import (
	"dfpipe/internal/ddl"
	"dfpipe/internal/table"
)

// MapType maps a column type onto a SQLite type affinity. Dates and
// timestamps are stored as ISO-8601 text.
func MapType(typ table.Type) string {
	switch typ {
	case table.Integer, table.Long:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS with double-quoted
// identifiers.
func CreateTableSQL(def ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(def, ddl.Style{Quote: ddl.QuoteDouble, IfNotExists: true})
}
