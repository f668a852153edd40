package query

import (
	"reflect"
	"testing"

	"dfpipe/internal/table"
)

func joinedSample(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.New("joined",
		[]table.Column{
			{Name: "Country", Type: table.String, Nullable: true},
			{Name: "Price", Type: table.Integer, Nullable: true},
			{Name: "SourceId", Type: table.Integer, Nullable: true},
			{Name: "Language", Type: table.String, Nullable: true},
		},
		[][]any{
			{"India", int64(20000), int64(150711), "EN"},
			{"null", int64(35000), int64(150439), "UK"},
			{"null", int64(45000), int64(150647), "ES"},
			{nil, nil, nil, nil},
		})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tb
}

/*
TestFilter_EqualityKeepsTypes verifies an == filter keeps matching rows with
their original int64 values and full schema.
*/
func TestFilter_EqualityKeepsTypes(t *testing.T) {
	out, err := Filter(joinedSample(t), Cond{Column: "Language", Op: "==", Value: "EN"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("rows=%d; want 1", out.Len())
	}
	if got := out.Rows[0][2]; got != int64(150711) {
		t.Fatalf("SourceId=%#v; want int64(150711)", got)
	}
	if !reflect.DeepEqual(out.Schema, joinedSample(t).Schema) {
		t.Fatalf("schema changed: %+v", out.Schema)
	}
}

/*
TestFilter_ProjectColumnNotInFilter projects a column other than the one being
filtered, like select('Country').filter(Language == "EN").
*/
func TestFilter_ProjectColumnNotInFilter(t *testing.T) {
	out, err := Filter(joinedSample(t), Cond{Column: "language", Value: "EN"}, "country")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"Country"}) {
		t.Fatalf("names=%v", got)
	}
	if out.Len() != 1 || out.Rows[0][0] != "India" {
		t.Fatalf("rows=%v", out.Rows)
	}
}

/*
TestFilter_NullNeverMatches checks that NULL cells fail both == and !=.
*/
func TestFilter_NullNeverMatches(t *testing.T) {
	out, err := Filter(joinedSample(t), Cond{Column: "Language", Op: "!=", Value: "EN"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("rows=%d; want 2 (NULL row excluded)", out.Len())
	}
}

/*
TestFilter_NumericComparison checks integer columns compare numerically and
accept JSON-style float64 and string comparison values.
*/
func TestFilter_NumericComparison(t *testing.T) {
	tests := []struct {
		op    string
		value any
		want  int
	}{
		{">", float64(30000), 2},
		{">=", "35000", 2},
		{"<", 35000, 1},
		{"==", int64(45000), 1},
	}
	for _, tc := range tests {
		out, err := Filter(joinedSample(t), Cond{Column: "Price", Op: tc.op, Value: tc.value})
		if err != nil {
			t.Fatalf("Filter(%s %v): %v", tc.op, tc.value, err)
		}
		if out.Len() != tc.want {
			t.Errorf("Price %s %v: rows=%d; want %d", tc.op, tc.value, out.Len(), tc.want)
		}
	}
}

/*
TestFilter_NaNTextIsNotNull keeps the literal text "NaN" distinct from NULL:
it matches == "NaN" and survives != "EN", while the NULL row matches neither.
*/
func TestFilter_NaNTextIsNotNull(t *testing.T) {
	tb, err := table.New("t", []table.Column{
		{Name: "Id", Type: table.Integer, Nullable: true},
		{Name: "Language", Type: table.String, Nullable: true},
	}, [][]any{
		{int64(1), "NaN"},
		{int64(2), nil},
		{int64(3), "EN"},
	})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}

	tests := []struct {
		op    string
		value string
		want  [][]any
	}{
		{"==", "NaN", [][]any{{int64(1), "NaN"}}},
		{"!=", "EN", [][]any{{int64(1), "NaN"}}},
		{"==", "EN", [][]any{{int64(3), "EN"}}},
		{"<", "ZZ", [][]any{{int64(3), "EN"}, {int64(1), "NaN"}}},
	}
	for _, tc := range tests {
		out, err := Filter(tb, Cond{Column: "Language", Op: tc.op, Value: tc.value})
		if err != nil {
			t.Fatalf("Filter(%s %q): %v", tc.op, tc.value, err)
		}
		if !sameRows(out.Rows, tc.want) {
			t.Errorf("Language %s %q: rows=%v; want %v", tc.op, tc.value, out.Rows, tc.want)
		}
	}
}

// sameRows compares row sets regardless of order.
func sameRows(got, want [][]any) bool {
	if len(got) != len(want) {
		return false
	}
	used := make([]bool, len(want))
	for _, g := range got {
		found := false
		for i, w := range want {
			if !used[i] && reflect.DeepEqual(g, w) {
				used[i], found = true, true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

/*
TestFilter_FractionalValueOnIntegerColumn rejects comparison values that would
otherwise be truncated onto an integer column.
*/
func TestFilter_FractionalValueOnIntegerColumn(t *testing.T) {
	tb := joinedSample(t)
	for _, op := range []string{"==", ">="} {
		if out, err := Filter(tb, Cond{Column: "Price", Op: op, Value: 20000.7}); err == nil {
			t.Fatalf("Price %s 20000.7: rows=%v; want error", op, out.Rows)
		}
	}
	out, err := Filter(tb, Cond{Column: "Price", Op: "==", Value: float64(20000)})
	if err != nil {
		t.Fatalf("whole float: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("rows=%d; want 1", out.Len())
	}
}

/*
TestFilter_Errors covers unknown operators, unknown columns and bad values.
*/
func TestFilter_Errors(t *testing.T) {
	tb := joinedSample(t)
	if _, err := Filter(tb, Cond{Column: "Language", Op: "~", Value: "EN"}); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
	if _, err := Filter(tb, Cond{Column: "Nope", Value: "EN"}); err == nil {
		t.Fatalf("expected error for unknown column")
	}
	if _, err := Filter(tb, Cond{Column: "Price", Value: "cheap"}); err == nil {
		t.Fatalf("expected error for non-integer comparison value")
	}
	if _, err := Filter(tb, Cond{Column: "Language"}); err == nil {
		t.Fatalf("expected error for null comparison value")
	}
}

/*
TestSelect_OrderAndValues verifies projection order and that NULLs survive.
*/
func TestSelect_OrderAndValues(t *testing.T) {
	out, err := Select(joinedSample(t), "Language", "Price")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"Language", "Price"}) {
		t.Fatalf("names=%v", got)
	}
	if out.Len() != 4 || out.Rows[3][0] != nil || out.Rows[3][1] != nil {
		t.Fatalf("rows=%v", out.Rows)
	}
	if out.Rows[0][1] != int64(20000) {
		t.Fatalf("Price=%#v", out.Rows[0][1])
	}
	if _, err := Select(joinedSample(t)); err == nil {
		t.Fatalf("expected error for empty projection")
	}
}
