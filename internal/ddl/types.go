package ddl

// ColumnDef describes one column of a table definition. Name is unquoted;
// quoting happens at render time.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string // raw SQL expression
}

// TableDef is a table name (optionally schema-qualified, "schema.table") and
// its ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
