package builtin

import (
	"reflect"
	"testing"

	"dfpipe/internal/table"
)

func inspections(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.New("inspections",
		[]table.Column{
			{Name: "pcv", Type: table.Integer, Nullable: true},
			{Name: "date_from", Type: table.String, Nullable: true},
			{Name: "reason", Type: table.String, Nullable: true},
			{Name: "rm_code", Type: table.String, Nullable: true},
		},
		[][]any{
			{int64(1), "2020-01-01", "", nil},
			{int64(1), "2020-01-01", "B", "x"},
			{int64(2), "2020-01-01", "C", nil},
			{int64(1), "2020-01-01", "D", nil},
		})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tb
}

func reasons(tb *table.Table) []any {
	out := make([]any, tb.Len())
	for i, r := range tb.Rows {
		out[i] = r[2]
	}
	return out
}

func TestDeDup_Policies(t *testing.T) {
	tests := []struct {
		policy string
		want   []any
	}{
		{"keep-first", []any{"", "C"}},
		{"keep-last", []any{"C", "D"}},
		{"", []any{"C", "D"}},
		{"most-complete", []any{"B", "C"}},
	}
	for _, tc := range tests {
		got, err := DeDup{Keys: []string{"PCV", "date_from"}, Policy: tc.policy}.Apply(inspections(t))
		if err != nil {
			t.Fatalf("%q: %v", tc.policy, err)
		}
		if !reflect.DeepEqual(reasons(got), tc.want) {
			t.Errorf("%q: reasons=%v; want %v", tc.policy, reasons(got), tc.want)
		}
	}
}

func TestDeDup_Errors(t *testing.T) {
	if _, err := (DeDup{Keys: []string{"nope"}}).Apply(inspections(t)); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if _, err := (DeDup{Keys: []string{"pcv"}, Policy: "random"}).Apply(inspections(t)); err == nil {
		t.Fatalf("expected unknown policy error")
	}
	in := inspections(t)
	out, err := DeDup{}.Apply(in)
	if err != nil || out != in {
		t.Fatalf("no keys should be a no-op")
	}
}

func TestRequire_DropsNullAndEmpty(t *testing.T) {
	out, err := Require{Fields: []string{"reason", "rm_code"}}.Apply(inspections(t))
	if err != nil {
		t.Fatalf("Require: %v", err)
	}
	if !reflect.DeepEqual(reasons(out), []any{"B"}) {
		t.Fatalf("reasons=%v; want [B]", reasons(out))
	}
	if _, err := (Require{Fields: []string{"nope"}}).Apply(inspections(t)); err == nil {
		t.Fatalf("expected unknown column error")
	}
}
