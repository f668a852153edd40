package config

import (
	"fmt"
	"regexp"
	"strings"

	"dfpipe/internal/datetime"
	"dfpipe/internal/join"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "steps[1].options.input"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Table references are resolved in step
// order: a step may only read a base table or the output of an earlier step.
//
//	issues := config.ValidatePipeline(p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	known, tableIssues := validateTables(p.Tables)
	issues = append(issues, tableIssues...)
	issues = append(issues, validateSteps(p.Steps, known)...)
	issues = append(issues, validateStorage(p.Storage, known)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateTables checks base table declarations and returns the set of
// declared names.
func validateTables(ts []TableSource) (map[string]struct{}, []Issue) {
	var issues []Issue
	names := make(map[string]struct{}, len(ts))

	if len(ts) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "tables",
			Message:  "at least one table must be declared",
		})
		return names, issues
	}

	for i, t := range ts {
		base := fmt.Sprintf("tables[%d]", i)
		if strings.TrimSpace(t.Name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".name",
				Message:  "table name must not be empty",
			})
		} else if _, dup := names[t.Name]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".name",
				Message:  fmt.Sprintf("duplicate table name %q", t.Name),
			})
		} else {
			names[t.Name] = struct{}{}
		}

		switch t.Kind {
		case "literal":
			switch t.Dataset {
			case "product", "source":
			default:
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     base + ".dataset",
					Message:  fmt.Sprintf("unknown literal dataset %q; want product or source", t.Dataset),
				})
			}
		case "csv", "json":
			if strings.TrimSpace(t.File.Path) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     base + ".file.path",
					Message:  t.Kind + " table requires a non-empty path",
				})
			}
			for j, f := range t.Schema {
				if strings.TrimSpace(f.Name) == "" {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Path:     fmt.Sprintf("%s.schema[%d].name", base, j),
						Message:  "field name must not be empty",
					})
				}
				if !knownType(f.Type) {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Path:     fmt.Sprintf("%s.schema[%d].type", base, j),
						Message:  fmt.Sprintf("unknown field type %q", f.Type),
					})
				}
			}
		case "":
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".kind",
				Message:  "table kind must not be empty",
			})
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".kind",
				Message:  fmt.Sprintf("unknown table kind %q; want literal, csv or json", t.Kind),
			})
		}
	}
	return names, issues
}

// knownType mirrors table.ParseType without importing the table package.
func knownType(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string", "text", "int", "integer", "long", "bigint", "date", "timestamp", "datetime":
		return true
	}
	return false
}

var stepKinds = map[string]struct{}{
	"from_unixtime":  {},
	"to_date":        {},
	"ltrim":          {},
	"regexp_replace": {},
	"rename_snake":   {},
	"start_time_ms":  {},
	"coerce":         {},
	"normalize":      {},
	"dedup":          {},
	"require":        {},
	"join":           {},
	"filter":         {},
	"select":         {},
	"show":           {},
	"chain":          {},
}

var filterOps = map[string]struct{}{
	"": {}, "==": {}, "!=": {}, ">": {}, ">=": {}, "<": {}, "<=": {},
}

// validateSteps validates the step list. tables is extended with every step
// output as the walk proceeds.
func validateSteps(steps []Step, tables map[string]struct{}) []Issue {
	var issues []Issue

	if len(steps) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "steps",
			Message:  "no steps configured; tables will be loaded and nothing printed",
		})
		return issues
	}

	for i, s := range steps {
		base := fmt.Sprintf("steps[%d]", i)
		if strings.TrimSpace(s.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".kind",
				Message:  "step kind must not be empty",
			})
			continue
		}
		if _, ok := stepKinds[s.Kind]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".kind",
				Message:  fmt.Sprintf("unknown step kind %q", s.Kind),
			})
			continue
		}
		if _, ok := tables[s.Table]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".table",
				Message:  fmt.Sprintf("table %q is not declared and not produced by an earlier step", s.Table),
			})
		}

		opt := func(key string) string { return fmt.Sprintf("%s.options.%s", base, key) }
		require := func(key string) {
			if strings.TrimSpace(s.Options.String(key, "")) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt(key),
					Message:  fmt.Sprintf("%s step requires option %q", s.Kind, key),
				})
			}
		}

		switch s.Kind {
		case "from_unixtime":
			require("input")
			if pat := s.Options.String("pattern", ""); pat != "" {
				if _, err := datetime.Compile(pat); err != nil {
					issues = append(issues, Issue{Severity: SeverityError, Path: opt("pattern"), Message: err.Error()})
				}
			}
			if s.Options.Int("digits", 10) <= 0 {
				issues = append(issues, Issue{Severity: SeverityError, Path: opt("digits"), Message: "digits must be positive"})
			}
		case "to_date", "ltrim", "start_time_ms":
			require("input")
		case "regexp_replace":
			require("input")
			if pat := s.Options.String("pattern", ""); pat != "" {
				if _, err := regexp.Compile(pat); err != nil {
					issues = append(issues, Issue{Severity: SeverityError, Path: opt("pattern"), Message: err.Error()})
				}
			}
		case "coerce":
			if len(s.Options.StringMap("types")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     opt("types"),
					Message:  "coerce step has no types; it will not change anything",
				})
			}
			for field, typ := range s.Options.StringMap("types") {
				if !knownType(typ) {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Path:     opt("types." + field),
						Message:  fmt.Sprintf("unknown type %q", typ),
					})
				}
			}
		case "join":
			require("left_on")
			require("right_on")
			right := s.Options.String("right", "")
			if right == "" {
				require("right")
			} else if _, ok := tables[right]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("right"),
					Message:  fmt.Sprintf("table %q is not declared and not produced by an earlier step", right),
				})
			}
			if _, err := join.ParseKind(s.Options.String("how", "")); err != nil {
				issues = append(issues, Issue{Severity: SeverityError, Path: opt("how"), Message: err.Error()})
			}
		case "filter":
			require("column")
			if s.Options.Any("value") == nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("value"),
					Message:  "filter step requires option \"value\"",
				})
			}
			if _, ok := filterOps[s.Options.String("op", "")]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("op"),
					Message:  fmt.Sprintf("unknown filter operator %q", s.Options.String("op", "")),
				})
			}
		case "dedup":
			if len(s.Options.StringSlice("keys")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("keys"),
					Message:  "dedup step requires a non-empty keys list",
				})
			}
			switch s.Options.String("policy", "") {
			case "", "keep-first", "keep-last", "most-complete":
			default:
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("policy"),
					Message:  fmt.Sprintf("unknown dedup policy %q", s.Options.String("policy", "")),
				})
			}
		case "require":
			if len(s.Options.StringSlice("fields")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     opt("fields"),
					Message:  "require step has no fields; it will not drop anything",
				})
			}
		case "chain":
			issues = append(issues, validateChain(s.Options, opt("steps"))...)
		case "select":
			if len(s.Options.StringSlice("columns")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("columns"),
					Message:  "select step requires a non-empty columns list",
				})
			}
		}

		tables[s.Output()] = struct{}{}
	}

	return issues
}

// validateChain checks the sub-steps of a chain step. Sub-steps run on the
// chain's table in order, so joins (two inputs) are not allowed.
func validateChain(o Options, path string) []Issue {
	subs, err := o.Steps("steps")
	if err != nil {
		return []Issue{{Severity: SeverityError, Path: path, Message: err.Error()}}
	}
	if len(subs) == 0 {
		return []Issue{{Severity: SeverityError, Path: path, Message: "chain step requires a non-empty steps list"}}
	}
	var issues []Issue
	for i, sub := range subs {
		p := fmt.Sprintf("%s[%d].kind", path, i)
		if _, ok := stepKinds[sub.Kind]; !ok {
			issues = append(issues, Issue{Severity: SeverityError, Path: p, Message: fmt.Sprintf("unknown step kind %q", sub.Kind)})
		} else if sub.Kind == "join" {
			issues = append(issues, Issue{Severity: SeverityError, Path: p, Message: "join cannot run inside a chain"})
		}
	}
	return issues
}

// validateStorage validates the export sink. Kind "" and "none" disable export.
func validateStorage(s Storage, tables map[string]struct{}) []Issue {
	var issues []Issue

	switch s.Kind {
	case "", "none":
		if len(s.Tables) > 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.tables",
				Message:  "storage.tables is set but storage.kind is empty; nothing will be exported",
			})
		}
		return issues
	case "sqlite", "postgres", "mssql", "mysql":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if len(s.Tables) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.tables",
			Message:  "storage.tables must list at least one table to export",
		})
	}
	for i, name := range s.Tables {
		if _, ok := tables[name]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("storage.tables[%d]", i),
				Message:  fmt.Sprintf("table %q is never loaded or produced", name),
			})
		}
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ShowRows < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.show_rows",
			Message:  "show_rows must not be negative",
		})
	}
	if r.Truncate < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.truncate",
			Message:  "truncate must not be negative",
		})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}

	return issues
}
