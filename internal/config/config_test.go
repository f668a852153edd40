package config

import (
	"encoding/json"
	"reflect"
	"testing"
)

// -----------------------------------------------------------------------------
// Pipeline decoding tests
// -----------------------------------------------------------------------------
//
// These tests check that pipeline JSON maps onto the Go struct graph. They
// parse from strings to stay hermetic.

func TestPipeline_Decode(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "orders",
	  "tables": [
	    { "name": "product", "kind": "literal", "dataset": "product" },
	    { "name": "orders", "kind": "csv", "file": { "path": "testdata/orders.csv" },
	      "schema": [ { "name": "id", "type": "integer", "required": true } ],
	      "options": { "comma": ";" } }
	  ],
	  "steps": [
	    { "kind": "ltrim", "label": "trim", "table": "product", "into": "clean",
	      "show": true, "print_schema": true,
	      "options": { "input": "Brand", "output": "Brand_without_space" } },
	    { "kind": "rename_snake", "table": "orders", "options": { "columns": ["OrderId"] } }
	  ],
	  "storage": {
	    "kind": "sqlite",
	    "db": { "dsn": "file:out.db", "table_prefix": "main.", "auto_create_table": true },
	    "tables": ["clean"]
	  },
	  "runtime": { "show_rows": 5, "truncate": 12, "batch_size": 100 }
	}`

	var p Pipeline
	if err := json.Unmarshal([]byte(js), &p); err != nil {
		t.Fatalf("json.Unmarshal(Pipeline): %v", err)
	}

	if p.Job != "orders" || len(p.Tables) != 2 {
		t.Fatalf("decoded job/tables = %q/%d", p.Job, len(p.Tables))
	}
	csv := p.Tables[1]
	if csv.Kind != "csv" || csv.File.Path != "testdata/orders.csv" {
		t.Fatalf("csv table = %#v", csv)
	}
	if len(csv.Schema) != 1 || csv.Schema[0] != (Field{Name: "id", Type: "integer", Required: true}) {
		t.Fatalf("csv schema = %#v", csv.Schema)
	}
	if got := csv.Options.Rune("comma", ','); got != ';' {
		t.Fatalf("comma = %q, want ';'", got)
	}

	s := p.Steps[0]
	if s.Kind != "ltrim" || s.Label != "trim" || !s.Show || !s.PrintSchema {
		t.Fatalf("step[0] = %#v", s)
	}
	if s.Output() != "clean" || p.Steps[1].Output() != "orders" {
		t.Fatalf("Output() = %q / %q", s.Output(), p.Steps[1].Output())
	}
	if got := s.Options.String("output", ""); got != "Brand_without_space" {
		t.Fatalf("options.output = %q", got)
	}
	if got := p.Steps[1].Options.StringSlice("columns"); !reflect.DeepEqual(got, []string{"OrderId"}) {
		t.Fatalf("columns = %v", got)
	}

	if p.Storage.Kind != "sqlite" || p.Storage.DB.DSN != "file:out.db" || !p.Storage.DB.AutoCreateTable {
		t.Fatalf("storage = %#v", p.Storage)
	}
	if p.Storage.DB.TablePrefix != "main." || !reflect.DeepEqual(p.Storage.Tables, []string{"clean"}) {
		t.Fatalf("storage tables = %#v", p.Storage)
	}
	if p.Runtime != (RuntimeConfig{ShowRows: 5, Truncate: 12, BatchSize: 100}) {
		t.Fatalf("runtime = %#v", p.Runtime)
	}
}

/*
TestDefault_IsValid checks that the built-in pipeline passes the linter
without errors or warnings, and that step outputs chain as expected.
*/
func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	p := Default()
	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Fatalf("Default() issues: %+v", issues)
	}
	if len(p.Steps) != 11 {
		t.Fatalf("Default() has %d steps, want 11", len(p.Steps))
	}
	if got := p.Steps[1].Output(); got != "product_derived" {
		t.Fatalf("steps[1] output = %q", got)
	}
	if got := p.Steps[8].Options.String("right", ""); got != "source" {
		t.Fatalf("join right = %q, want base source table", got)
	}
}

// -----------------------------------------------------------------------------
// Options helper tests
// -----------------------------------------------------------------------------

func TestOptions_String_Bool_Int_Rune_DefaultsAndCoercion(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":  "hello",
		"b":  true,
		"i":  float64(42), // encoding/json decodes numbers as float64
		"i2": 7,
		"r":  ",",
		"r2": "ž",
	}

	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q, want hello", got)
	}
	if got := o.String("missing", "def"); got != "def" {
		t.Fatalf("String(missing) = %q, want def", got)
	}
	if got := o.String("b", "def"); got != "def" {
		t.Fatalf("String(b) = %q, want def for non-string", got)
	}
	if got := o.Bool("b", false); got != true {
		t.Fatalf("Bool(b) = %v, want true", got)
	}
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d, want 42", got)
	}
	if got := o.Int("i2", 0); got != 7 {
		t.Fatalf("Int(i2) = %d, want 7", got)
	}
	if got := o.Int("missing", 3); got != 3 {
		t.Fatalf("Int(missing) = %d, want 3", got)
	}
	if got := o.Rune("r", ';'); got != ',' {
		t.Fatalf("Rune(r) = %q, want ','", got)
	}
	if got := o.Rune("r2", 'x'); got != 'ž' {
		t.Fatalf("Rune(r2) = %q, want ž", got)
	}
}

func TestOptions_StringMap_StringSlice_Any(t *testing.T) {
	t.Parallel()

	o := Options{
		"m":  map[string]any{"A": "a", "X": 1}, // non-string value ignored
		"m2": map[string]string{"B": "b"},
		"s1": []any{"alpha", 3},
		"s2": []string{"gamma"},
	}

	if got := o.StringMap("m"); !reflect.DeepEqual(got, map[string]string{"A": "a"}) {
		t.Fatalf("StringMap(m) = %#v", got)
	}
	if got := o.StringMap("m2"); !reflect.DeepEqual(got, map[string]string{"B": "b"}) {
		t.Fatalf("StringMap(m2) = %#v", got)
	}
	if got := o.StringMap("missing"); got == nil || len(got) != 0 {
		t.Fatalf("StringMap(missing) = %#v, want empty map", got)
	}
	if got := o.StringSlice("s1"); !reflect.DeepEqual(got, []string{"alpha"}) {
		t.Fatalf("StringSlice(s1) = %#v", got)
	}
	if got := o.StringSlice("s2"); !reflect.DeepEqual(got, []string{"gamma"}) {
		t.Fatalf("StringSlice(s2) = %#v", got)
	}
	if got := o.StringSlice("missing"); got != nil {
		t.Fatalf("StringSlice(missing) = %#v, want nil", got)
	}
	if o.Any("missing") != nil {
		t.Fatalf("Any(missing) should be nil")
	}
}

func TestOptions_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"options": null}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts == nil || len(w.Opts) != 0 {
		t.Fatalf("Opts after null = %#v, want non-nil empty map", w.Opts)
	}

	w = wrapper{}
	if err := json.Unmarshal([]byte(`{"options": {"a":"x","n": 3}}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts.String("a", "") != "x" || w.Opts.Int("n", 0) != 3 {
		t.Fatalf("Opts = %#v", w.Opts)
	}

	if err := json.Unmarshal([]byte(`{"options": [1]}`), &w); err == nil {
		t.Fatalf("expected error for non-object options")
	}
}
