package postgres

import (
	"dfpipe/internal/ddl"
	"dfpipe/internal/table"
)

// MapType maps a column type onto a Postgres type.
func MapType(typ table.Type) string {
	switch typ {
	case table.Integer:
		return "INTEGER"
	case table.Long:
		return "BIGINT"
	case table.Date:
		return "DATE"
	case table.Timestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS with double-quoted
// identifiers.
func CreateTableSQL(def ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(def, ddl.Style{Quote: ddl.QuoteDouble, IfNotExists: true})
}
