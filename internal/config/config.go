// Package config defines the JSON-serializable model of a dfpipe run: which
// tables exist, which steps transform them and in what order, and where the
// results may be exported. Decoding uses the standard library only; the
// Options bag gives typed access to step-specific settings.
//
// Example (trimmed):
//
//	{
//	  "job": "product_source",
//	  "tables": [
//	    { "name": "product", "kind": "literal", "dataset": "product" },
//	    { "name": "orders", "kind": "csv", "file": { "path": "orders.csv" },
//	      "schema": [ { "name": "id", "type": "integer" } ] }
//	  ],
//	  "steps": [
//	    { "kind": "ltrim", "table": "product", "into": "product_clean",
//	      "label": "Trimming brand", "show": true,
//	      "options": { "input": "Brand", "output": "Brand_without_space" } }
//	  ],
//	  "storage": { "kind": "sqlite", "db": { "dsn": "out.db", "auto_create_table": true },
//	               "tables": [ "product_clean" ] }
//	}
package config

import (
	"encoding/json"
	"fmt"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run; it labels metrics.
	Job string `json:"job"`

	// Tables declares the base tables loaded before the first step.
	Tables []TableSource `json:"tables"`

	// Steps run strictly in order. A step reads Table and stores its result
	// under Into (or back under Table when Into is empty).
	Steps []Step `json:"steps"`

	// Storage optionally exports named tables once every step has run.
	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
}

// TableSource declares one base table.
type TableSource struct {
	// Name is the catalog name steps refer to.
	Name string `json:"name"`

	// Kind selects the loader: "literal" (built-in dataset), "csv", or
	// "json" (NDJSON, or a root array with allow_arrays).
	Kind string `json:"kind"`

	// Dataset names the built-in dataset for the literal kind
	// ("product" or "source").
	Dataset string `json:"dataset"`

	// File carries the path for the csv and json kinds.
	File SourceFile `json:"file"`

	// Schema declares column types for file kinds. Columns missing from the
	// schema are read as nullable strings.
	Schema []Field `json:"schema"`

	// Options is interpreted by the loader. For csv:
	//   comma (string), trim_space (bool), normalize_header (bool),
	//   header_map (object), layout (string)
	// For json:
	//   allow_arrays (bool), layout (string)
	Options Options `json:"options"`
}

// SourceFile holds configuration for file-backed tables.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// Field is one declared column of a file-backed table.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // string | integer | long | date | timestamp
	Required bool   `json:"required"`
}

// Step is one pipeline operation.
type Step struct {
	// Kind selects the operation: from_unixtime, to_date, ltrim,
	// regexp_replace, rename_snake, start_time_ms, coerce, normalize, dedup,
	// require, join, filter, select, show, chain.
	Kind string `json:"kind"`

	// Label is printed on its own line before any output of the step.
	Label string `json:"label"`

	// Table is the input table.
	Table string `json:"table"`

	// Into names the output table. Empty means overwrite Table.
	Into string `json:"into"`

	// Show prints the output table; PrintSchema prints its schema tree.
	Show        bool `json:"show"`
	PrintSchema bool `json:"print_schema"`

	// Options is interpreted by the step kind.
	Options Options `json:"options"`
}

// Output returns the catalog name the step writes.
func (s Step) Output() string {
	if s.Into != "" {
		return s.Into
	}
	return s.Table
}

// Storage selects the sink that receives exported tables.
type Storage struct {
	// Kind selects the backend: "" / "none" (no export), "sqlite",
	// "postgres", "mssql", "mysql".
	Kind string `json:"kind"`

	DB DBConfig `json:"db"`

	// Tables lists the catalog tables to export, each into a database table
	// of the same name (prefixed with DB.TablePrefix).
	Tables []string `json:"tables"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn"`

	// TablePrefix is prepended to every exported table name, e.g. "main." or
	// "dbo.dfpipe_".
	TablePrefix string `json:"table_prefix"`

	// AutoCreateTable issues CREATE TABLE IF NOT EXISTS derived from the
	// table schema before loading.
	AutoCreateTable bool `json:"auto_create_table"`
}

// RuntimeConfig controls console rendering and export batching.
type RuntimeConfig struct {
	// ShowRows caps printed rows per table (0 = 20).
	ShowRows int `json:"show_rows"`
	// Truncate cuts long cells to this many characters (0 = never).
	Truncate int `json:"truncate"`
	// BatchSize is the number of rows per export batch (0 = 500).
	BatchSize int `json:"batch_size"`
}

// Options fetches typed values from free-form JSON objects. It performs only
// minimal coercion and returns the provided default when a key is absent or of
// an unexpected type. Values built in Go (Default) and values decoded from JSON
// read the same way.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for the csv comma.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	switch m := o[key].(type) {
	case map[string]any:
		for k, vv := range m {
			if s, ok := vv.(string); ok {
				res[k] = s
			}
		}
	case map[string]string:
		for k, s := range m {
			res[k] = s
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Steps decodes key as a list of sub-steps ({"kind": ..., "options": {...}}),
// as used by chain steps. Returns nil when the key is missing and an error
// when the value does not have that shape.
func (o Options) Steps(key string) ([]Step, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	if steps, ok := v.([]Step); ok {
		return steps, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("options.%s: %w", key, err)
	}
	var steps []Step
	if err := json.Unmarshal(b, &steps); err != nil {
		return nil, fmt.Errorf("options.%s: %w", key, err)
	}
	return steps, nil
}

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
