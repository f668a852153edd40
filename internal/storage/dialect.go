package storage

import (
	"context"
	"fmt"
	"sync"

	"dfpipe/internal/ddl"
	"dfpipe/internal/table"
)

// Dialect describes how a backend renders tables.
type Dialect struct {
	// MapType maps a logical column type to a SQL type.
	MapType func(table.Type) string
	// CreateTable renders the DDL that creates def when it does not exist.
	CreateTable func(def ddl.TableDef) (string, error)
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect installs (or replaces) the dialect for kind.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

func lookupDialect(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok || d.MapType == nil || d.CreateTable == nil {
		return Dialect{}, fmt.Errorf("storage: no dialect registered for kind %q", kind)
	}
	return d, nil
}

// CreateTableSQL renders the DDL for t under fqn in kind's dialect.
func CreateTableSQL(kind string, t *table.Table, fqn string) (string, error) {
	d, err := lookupDialect(kind)
	if err != nil {
		return "", err
	}
	return d.CreateTable(ddl.FromTable(t, fqn, d.MapType))
}

// EnsureTable creates the destination for t under fqn if it does not exist.
func EnsureTable(ctx context.Context, kind string, repo Repository, t *table.Table, fqn string) error {
	stmt, err := CreateTableSQL(kind, t, fqn)
	if err != nil {
		return fmt.Errorf("ensure table %s: %w", fqn, err)
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure table %s: %w", fqn, err)
	}
	return nil
}
