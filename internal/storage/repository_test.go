package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"dfpipe/internal/ddl"
	"dfpipe/internal/table"
)

// fakeRepo records every call for assertions.
type fakeRepo struct {
	mu     sync.Mutex
	execs  []string
	copied map[string][][]any
	cols   map[string][]string
	failOn string
	closed bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{copied: map[string][][]any{}, cols: map[string][]string{}}
}

func (f *fakeRepo) CopyFrom(_ context.Context, tbl string, columns []string, rows [][]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tbl == f.failOn {
		return 0, errors.New("disk full")
	}
	f.cols[tbl] = columns
	f.copied[tbl] = append(f.copied[tbl], rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeRepo) Close() { f.closed = true }

func TestRegisterAndNew(t *testing.T) {
	t.Parallel()

	Register("fake-new", func(context.Context, Config) (Repository, error) {
		return newFakeRepo(), nil
	})
	repo, err := New(context.Background(), Config{Kind: "fake-new"})
	if err != nil || repo == nil {
		t.Fatalf("New=%v,%v", repo, err)
	}

	found := false
	for _, k := range ListKinds() {
		if k == "fake-new" {
			found = true
		}
	}
	if !found {
		t.Fatalf("fake-new missing from %v", ListKinds())
	}
}

func TestNew_UnsupportedAndFactoryError(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{Kind: "does-not-exist"}); err == nil ||
		!strings.Contains(err.Error(), "unsupported kind") {
		t.Fatalf("err=%v; want unsupported kind", err)
	}

	boom := errors.New("dial failed")
	Register("fake-broken", func(context.Context, Config) (Repository, error) { return nil, boom })
	if _, err := New(context.Background(), Config{Kind: "fake-broken"}); !errors.Is(err, boom) {
		t.Fatalf("err=%v; want wrapped %v", err, boom)
	}
}

func testDialect() Dialect {
	return Dialect{
		MapType: func(typ table.Type) string { return strings.ToUpper(string(typ)) },
		CreateTable: func(def ddl.TableDef) (string, error) {
			return ddl.BuildCreateTableSQL(def, ddl.Style{Quote: ddl.QuoteDouble, IfNotExists: true})
		},
	}
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	RegisterDialect("fake-ddl", testDialect())
	tb, _ := table.New("p", []table.Column{{Name: "id", Type: table.Integer}, {Name: "Brand", Type: table.String, Nullable: true}}, nil)

	got, err := CreateTableSQL("fake-ddl", tb, "out_p")
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"out_p\" (\n  \"id\" INTEGER NOT NULL,\n  \"Brand\" STRING\n);"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}

	if _, err := CreateTableSQL("no-dialect", tb, "x"); err == nil {
		t.Fatalf("expected missing dialect error")
	}
}
