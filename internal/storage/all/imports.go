// Package all enables every built-in storage backend. Import it for side
// effects in the wiring layer:
//
//	import _ "dfpipe/internal/storage/all"
//
// after which storage.New accepts "sqlite", "postgres", "mssql" and "mysql".
package all

import (
	_ "dfpipe/internal/storage/mssql"
	_ "dfpipe/internal/storage/mysql"
	_ "dfpipe/internal/storage/postgres"
	_ "dfpipe/internal/storage/sqlite"
)
