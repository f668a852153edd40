package mysql

import (
	"dfpipe/internal/ddl"
	"dfpipe/internal/table"
)

// MapType maps a column type onto a MySQL column type.
func MapType(typ table.Type) string {
	switch typ {
	case table.Integer:
		return "INT"
	case table.Long:
		return "BIGINT"
	case table.Date:
		return "DATE"
	case table.Timestamp:
		return "DATETIME(6)"
	default:
		return "LONGTEXT"
	}
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS with backtick-quoted
// identifiers.
func CreateTableSQL(def ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(def, ddl.Style{Quote: ddl.QuoteBacktick, IfNotExists: true})
}
