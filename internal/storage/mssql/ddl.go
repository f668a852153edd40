package mssql

import (
	"fmt"
	"strings"

	"dfpipe/internal/ddl"
	"dfpipe/internal/table"
)

// MapType maps a column type onto a SQL Server type.
func MapType(typ table.Type) string {
	switch typ {
	case table.Integer:
		return "INT"
	case table.Long:
		return "BIGINT"
	case table.Date:
		return "DATE"
	case table.Timestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

// CreateTableSQL wraps CREATE TABLE in an OBJECT_ID guard, since T-SQL has no
// CREATE TABLE IF NOT EXISTS:
//
//	IF OBJECT_ID(N'[dbo].[t]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[t] (
//	    [col] TYPE
//	  );
//	END;
func CreateTableSQL(def ddl.TableDef) (string, error) {
	create, err := ddl.BuildCreateTableSQL(def, ddl.Style{Quote: ddl.QuoteBracket})
	if err != nil {
		return "", err
	}
	fqn := ddl.QuoteFQN(def.FQN, ddl.QuoteBracket)
	indented := "  " + strings.ReplaceAll(create, "\n", "\n  ")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s\nEND;",
		strings.ReplaceAll(fqn, "'", "''"), indented), nil
}
