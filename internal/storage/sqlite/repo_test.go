package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"dfpipe/internal/storage"
	"dfpipe/internal/table"
)

func newMemRepo(tb testing.TB) storage.Repository {
	tb.Helper()
	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: ":memory:"})
	if err != nil {
		tb.Fatalf("storage.New sqlite: %v", err)
	}
	tb.Cleanup(repo.Close)
	return repo
}

func TestMapType(t *testing.T) {
	t.Parallel()

	for typ, want := range map[table.Type]string{
		table.String:    "TEXT",
		table.Integer:   "INTEGER",
		table.Long:      "INTEGER",
		table.Date:      "TEXT",
		table.Timestamp: "TEXT",
	} {
		if got := MapType(typ); got != want {
			t.Errorf("MapType(%s)=%s; want %s", typ, got, want)
		}
	}
}

/*
TestExport_RoundTrip exports a joined-style table into an in-memory database
through the registered backend and reads it back.
*/
func TestExport_RoundTrip(t *testing.T) {
	repo := newMemRepo(t)
	ctx := context.Background()

	tb, err := table.New("joined", []table.Column{
		{Name: "Product_Number", Type: table.String, Nullable: true},
		{Name: "SourceId", Type: table.Integer, Nullable: true},
		{Name: "Issue_date_todate", Type: table.Date, Nullable: true},
	}, [][]any{
		{"0001", int64(150711), time.Date(2022, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"0002", nil, nil},
		{"0003", int64(150647), nil},
	})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}

	res, err := storage.ExportTables(ctx, repo, []*table.Table{tb}, storage.ExportOptions{
		Job:         "test",
		Kind:        "sqlite",
		TablePrefix: "out_",
		AutoCreate:  true,
		BatchSize:   2,
	})
	if err != nil {
		t.Fatalf("ExportTables: %v", err)
	}
	if len(res) != 1 || res[0].Rows != 3 || res[0].Batches != 2 {
		t.Fatalf("results=%+v", res)
	}

	db := repo.(*wrappedRepo).DB()
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "out_joined"`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count=%d; want 3", n)
	}

	var nulls int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "out_joined" WHERE "SourceId" IS NULL`).Scan(&nulls); err != nil {
		t.Fatalf("null count: %v", err)
	}
	if nulls != 1 {
		t.Fatalf("null SourceId rows=%d; want 1", nulls)
	}

	var id int64
	if err := db.QueryRowContext(ctx, `SELECT "SourceId" FROM "out_joined" WHERE "Product_Number" = '0003'`).Scan(&id); err != nil {
		t.Fatalf("select: %v", err)
	}
	if id != 150647 {
		t.Fatalf("SourceId=%d; want 150647", id)
	}

	// Re-running the DDL is a no-op thanks to IF NOT EXISTS.
	if err := storage.EnsureTable(ctx, "sqlite", repo, tb, "out_joined"); err != nil {
		t.Fatalf("EnsureTable again: %v", err)
	}
}

func TestCopyFrom_Errors(t *testing.T) {
	repo := newMemRepo(t)
	ctx := context.Background()

	if _, err := repo.CopyFrom(ctx, "t", nil, [][]any{{1}}); err == nil {
		t.Fatalf("expected error for empty columns")
	}
	if n, err := repo.CopyFrom(ctx, "t", []string{"a"}, nil); err != nil || n != 0 {
		t.Fatalf("empty rows: n=%d err=%v", n, err)
	}
	if _, err := repo.CopyFrom(ctx, "missing_table", []string{"a"}, [][]any{{1}}); err == nil ||
		!strings.Contains(err.Error(), "missing_table") {
		t.Fatalf("err=%v; want prepare error naming the table", err)
	}

	if err := repo.Exec(ctx, `CREATE TABLE "w" ("a" TEXT, "b" TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CopyFrom(ctx, "w", []string{"a", "b"}, [][]any{{"x"}}); err == nil {
		t.Fatalf("expected row width error")
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	if _, _, err := NewRepository(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}
