// Package dataset loads the base tables a pipeline starts from: the built-in
// literal tables, local CSV files and local JSON files.
//
// File-backed tables are read as nullable strings and then typed by the
// declared schema. Unparsable cells become NULL; rows missing a required
// field are dropped and counted as rejected.
package dataset

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"dfpipe/internal/config"
	"dfpipe/internal/datasource"
	"dfpipe/internal/datasource/file"
	csvparser "dfpipe/internal/parser/csv"
	jsonparser "dfpipe/internal/parser/json"
	"dfpipe/internal/table"
	"dfpipe/internal/transformer/builtin"
)

// maxLoggedErrors caps per-table row error log lines.
const maxLoggedErrors = 10

// Stats summarizes one load.
type Stats struct {
	// Loaded is the number of rows in the returned table.
	Loaded int
	// Rejected counts malformed input rows plus rows dropped for missing
	// required fields.
	Rejected int
}

// Load builds the table declared by src.
func Load(ctx context.Context, src config.TableSource) (*table.Table, Stats, error) {
	var (
		t        *table.Table
		rejected int
		err      error
	)
	switch src.Kind {
	case "literal":
		t, err = literal(src.Dataset)
	case "csv":
		t, rejected, err = loadCSV(ctx, src)
	case "json":
		t, rejected, err = loadJSON(ctx, src)
	default:
		err = fmt.Errorf("unknown table kind %q", src.Kind)
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load table %s: %w", src.Name, err)
	}

	before := t.Len()
	t, err = applySchema(t, src)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load table %s: %w", src.Name, err)
	}
	t.Name = src.Name
	return t, Stats{Loaded: t.Len(), Rejected: rejected + before - t.Len()}, nil
}

func literal(name string) (*table.Table, error) {
	switch name {
	case "product":
		return Product(), nil
	case "source":
		return Source(), nil
	}
	return nil, fmt.Errorf("unknown literal dataset %q", name)
}

func rowErrorLogger(name string, rejected *int) func(int, error) {
	return func(n int, err error) {
		*rejected++
		if *rejected <= maxLoggedErrors {
			log.Printf("dataset %s: skipping record %d: %v", name, n, err)
		}
	}
}

// loadCSV streams the file through the CSV parser on one goroutine and
// collects rows on another.
// source resolves where a file-backed table reads from.
func source(src config.TableSource) datasource.Source {
	return file.NewLocal(src.File.Path)
}

func loadCSV(ctx context.Context, src config.TableSource) (*table.Table, int, error) {
	rc, err := source(src).Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	var (
		header   []string
		rows     [][]any
		rejected int
	)
	rowCh := make(chan []string, 256)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rowCh)
		return csvparser.StreamCSV(gctx, rc, csvparser.FromConfigOptions(src.Options),
			func(h []string) error {
				header = h
				return nil
			},
			rowCh, rowErrorLogger(src.Name, &rejected))
	})
	g.Go(func() error {
		for rec := range rowCh {
			row := make([]any, len(rec))
			for i, v := range rec {
				if v != "" {
					row[i] = v
				}
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	t, err := table.New(src.Name, stringColumns(header), rows)
	return t, rejected, err
}

// loadJSON decodes NDJSON (or a root array) into a table. Columns are the
// declared schema fields in order, followed by any other keys sorted by name.
func loadJSON(ctx context.Context, src config.TableSource) (*table.Table, int, error) {
	rc, err := source(src).Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	var (
		recs     []jsonparser.Record
		rejected int
	)
	recCh := make(chan jsonparser.Record, 256)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(recCh)
		return jsonparser.StreamJSON(gctx, rc, jsonparser.FromConfigOptions(src.Options), recCh,
			rowErrorLogger(src.Name, &rejected))
	})
	g.Go(func() error {
		for r := range recCh {
			recs = append(recs, r)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var names []string
	seen := map[string]struct{}{}
	for _, f := range src.Schema {
		if _, dup := seen[f.Name]; !dup {
			names = append(names, f.Name)
			seen[f.Name] = struct{}{}
		}
	}
	for _, k := range jsonparser.Keys(recs) {
		if _, dup := seen[k]; !dup {
			names = append(names, k)
			seen[k] = struct{}{}
		}
	}

	rows := make([][]any, len(recs))
	for i, r := range recs {
		row := make([]any, len(names))
		for j, name := range names {
			row[j] = jsonparser.Text(r[name])
		}
		rows[i] = row
	}
	t, err := table.New(src.Name, stringColumns(names), rows)
	return t, rejected, err
}

func stringColumns(names []string) []table.Column {
	cols := make([]table.Column, len(names))
	for i, n := range names {
		cols[i] = table.Column{Name: n, Type: table.String, Nullable: true}
	}
	return cols
}

// applySchema casts declared columns, drops rows missing required fields and
// marks those columns non-nullable.
func applySchema(t *table.Table, src config.TableSource) (*table.Table, error) {
	if len(src.Schema) == 0 {
		return t, nil
	}

	types := map[string]string{}
	var required []string
	for _, f := range src.Schema {
		if t.Index(f.Name) < 0 {
			return nil, fmt.Errorf("schema field %q not found among columns %v", f.Name, t.Names())
		}
		if typ := strings.TrimSpace(f.Type); typ != "" {
			types[f.Name] = typ
		}
		if f.Required {
			required = append(required, f.Name)
		}
	}

	out, err := builtin.Coerce{Types: types, Layout: src.Options.String("layout", "")}.Apply(t)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 {
		return out, nil
	}
	out, err = builtin.Require{Fields: required}.Apply(out)
	if err != nil {
		return nil, err
	}

	schema := append([]table.Column(nil), out.Schema...)
	for _, f := range required {
		schema[out.Index(f)].Nullable = false
	}
	return &table.Table{Name: out.Name, Schema: schema, Rows: out.Rows}, nil
}
