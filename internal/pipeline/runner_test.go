package pipeline

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"dfpipe/internal/config"
	"dfpipe/internal/dataset"
	"dfpipe/internal/storage"
	_ "dfpipe/internal/storage/sqlite"
	"dfpipe/internal/table"
)

func runDefault(t *testing.T) (*Result, string) {
	t.Helper()
	var buf bytes.Buffer
	res, err := New(&buf).Run(context.Background(), config.Default())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res, buf.String()
}

func cell(t *testing.T, tb *table.Table, row int, col string) string {
	t.Helper()
	i := tb.Index(col)
	if i < 0 {
		t.Fatalf("table %s has no column %q (have %v)", tb.Name, col, tb.Names())
	}
	return table.FormatValue(tb.Schema[i].Type, tb.Rows[row][i])
}

/*
TestRun_DefaultPrintsLabelsInOrder checks that every label of the built-in
pipeline is printed, in step order, and that label-less steps print nothing
extra.
*/
func TestRun_DefaultPrintsLabelsInOrder(t *testing.T) {
	_, out := runDefault(t)

	pos := 0
	for _, s := range config.Default().Steps {
		if s.Label == "" {
			continue
		}
		i := strings.Index(out[pos:], s.Label+"\n")
		if i < 0 {
			t.Fatalf("label %q missing or out of order in output:\n%s", s.Label, out)
		}
		pos += i + len(s.Label)
	}

	if got := strings.Count(out, "root\n"); got != 3 {
		t.Fatalf("schema trees=%d; want 3", got)
	}
	if !strings.HasPrefix(out, "Creating Product details dataframe\n+---") {
		t.Fatalf("unexpected start of output:\n%s", out[:80])
	}
}

func TestRun_DefaultDerivedColumns(t *testing.T) {
	res, _ := runDefault(t)

	p := res.Tables["product_derived"]
	if p == nil {
		t.Fatalf("product_derived missing from catalog")
	}
	tests := []struct {
		row  int
		col  string
		want string
	}{
		{0, "Issue_Date_timestamp", "2022-03-31T23:55:33"},
		{0, "Issue_date_todate", "2022-03-31"},
		{1, "Brand_without_space", "LG"},
		{2, "Brand_without_space", "Voltas"},
		{0, "Country_NoNull", "India"},
		{1, "Country_NoNull", ""},
	}
	for _, tc := range tests {
		if got := cell(t, p, tc.row, tc.col); got != tc.want {
			t.Errorf("product_derived[%d].%s=%q; want %q", tc.row, tc.col, got, tc.want)
		}
	}

	// The base table is untouched by derivations on the working copy.
	if n := len(res.Tables["product"].Schema); n != 6 {
		t.Fatalf("product has %d columns; want 6", n)
	}

	s := res.Tables["source_snake"]
	wantNames := []string{"source_id", "transaction_number", "language", "model_number", "start_time", "product_number", "start_time_ms"}
	if !reflect.DeepEqual(s.Names(), wantNames) {
		t.Fatalf("source_snake names=%v", s.Names())
	}
	if got := cell(t, s, 0, "start_time_ms"); got != "1640563200842" {
		t.Fatalf("start_time_ms=%q; want 1640563200842", got)
	}
}

func TestRun_DefaultJoinAndFilters(t *testing.T) {
	res, _ := runDefault(t)

	j := res.Tables["joined"]
	if j.Len() != 3 || len(j.Schema) != 12 {
		t.Fatalf("joined rows=%d cols=%d; want 3/12", j.Len(), len(j.Schema))
	}
	for i, row := range j.Rows {
		for c, v := range row {
			if v == nil {
				t.Fatalf("joined[%d].%s is null; every key matches", i, j.Schema[c].Name)
			}
		}
	}

	en := res.Tables["joined_en"]
	if en.Len() != 1 {
		t.Fatalf("joined_en rows=%d; want 1", en.Len())
	}
	if got := cell(t, en, 0, "SourceId"); got != "150711" {
		t.Fatalf("SourceId=%q; want 150711", got)
	}

	c := res.Tables["joined_en_country"]
	if !reflect.DeepEqual(c.Names(), []string{"Country"}) || !reflect.DeepEqual(c.Rows, [][]any{{"India"}}) {
		t.Fatalf("joined_en_country=%v %v", c.Names(), c.Rows)
	}
}

func TestRun_ExportsToSQLite(t *testing.T) {
	p := config.Default()
	p.Storage = config.Storage{
		Kind:   "sqlite",
		DB:     config.DBConfig{DSN: ":memory:", TablePrefix: "out_", AutoCreateTable: true},
		Tables: []string{"joined", "joined_en"},
	}
	p.Runtime.BatchSize = 2

	res, err := New(&bytes.Buffer{}).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []storage.ExportResult{
		{Table: "joined", Dest: "out_joined", Rows: 3, Batches: 2},
		{Table: "joined_en", Dest: "out_joined_en", Rows: 1, Batches: 1},
	}
	if !reflect.DeepEqual(res.Exported, want) {
		t.Fatalf("exported=%+v; want %+v", res.Exported, want)
	}
}

func TestRun_RepositoryError(t *testing.T) {
	p := config.Default()
	p.Storage = config.Storage{Kind: "sqlite", DB: config.DBConfig{DSN: "x.db"}, Tables: []string{"joined"}}

	r := New(&bytes.Buffer{})
	boom := errors.New("cannot connect")
	r.newRepository = func(context.Context, storage.Config) (storage.Repository, error) { return nil, boom }

	if _, err := r.Run(context.Background(), p); !errors.Is(err, boom) {
		t.Fatalf("err=%v; want %v", err, boom)
	}
}

func TestRun_InvalidPipeline(t *testing.T) {
	_, err := New(&bytes.Buffer{}).Run(context.Background(), config.Pipeline{})
	if err == nil || !strings.Contains(err.Error(), "invalid pipeline") {
		t.Fatalf("err=%v; want invalid pipeline", err)
	}
}

func TestRun_StepErrorNamesStep(t *testing.T) {
	p := config.Pipeline{
		Job:    "j",
		Tables: []config.TableSource{{Name: "product", Kind: "literal", Dataset: "product"}},
		Steps: []config.Step{
			{Kind: "ltrim", Table: "product", Options: config.Options{"input": "Missing", "output": "x"}},
		},
	}
	_, err := New(&bytes.Buffer{}).Run(context.Background(), p)
	if err == nil || !strings.HasPrefix(err.Error(), "step 0 (ltrim): ") {
		t.Fatalf("err=%v; want step 0 (ltrim) prefix", err)
	}
}

func TestRun_LoadErrorStops(t *testing.T) {
	r := New(&bytes.Buffer{})
	boom := errors.New("unreadable")
	r.loadTable = func(context.Context, config.TableSource) (*table.Table, dataset.Stats, error) {
		return nil, dataset.Stats{}, boom
	}
	if _, err := r.Run(context.Background(), config.Default()); !errors.Is(err, boom) {
		t.Fatalf("err=%v; want %v", err, boom)
	}
}

func TestRun_ChainStep(t *testing.T) {
	p := config.Pipeline{
		Job:    "j",
		Tables: []config.TableSource{{Name: "product", Kind: "literal", Dataset: "product"}},
		Steps: []config.Step{{
			Kind:  "chain",
			Label: "Cleaning Brand and Country",
			Table: "product",
			Into:  "product_clean",
			Show:  true,
			Options: config.Options{"steps": []any{
				map[string]any{"kind": "ltrim", "options": map[string]any{"input": "Brand"}},
				map[string]any{"kind": "regexp_replace", "options": map[string]any{"input": "Country"}},
				map[string]any{"kind": "select", "options": map[string]any{"columns": []any{"Brand", "Country"}}},
			}},
		}},
	}
	var buf bytes.Buffer
	res, err := New(&buf).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := [][]any{{"Samsung", "India"}, {"LG", ""}, {"Voltas", ""}}
	if got := res.Tables["product_clean"].Rows; !reflect.DeepEqual(got, want) {
		t.Fatalf("rows=%v; want %v", got, want)
	}
	if !strings.HasPrefix(buf.String(), "Cleaning Brand and Country\n+") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}
