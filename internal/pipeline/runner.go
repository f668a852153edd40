// Package pipeline executes a config.Pipeline: it loads the base tables into
// a catalog, runs every step in order against it, prints what each step asks
// for, and finally exports the requested tables.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"dfpipe/internal/config"
	"dfpipe/internal/dataset"
	"dfpipe/internal/join"
	"dfpipe/internal/metrics"
	"dfpipe/internal/storage"
	"dfpipe/internal/table"
	"dfpipe/internal/transformer"
)

// Result is what a run leaves behind.
type Result struct {
	// Tables is the final catalog, keyed by table name.
	Tables map[string]*table.Table
	// Exported lists one entry per exported table, in storage.tables order.
	Exported []storage.ExportResult
}

// Runner executes pipelines. The zero value is not usable; call New.
type Runner struct {
	out     io.Writer
	verbose bool

	// Test seams.
	loadTable     func(ctx context.Context, src config.TableSource) (*table.Table, dataset.Stats, error)
	newRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithVerbose turns on per-step progress logging.
func WithVerbose(v bool) Option { return func(r *Runner) { r.verbose = v } }

// New returns a Runner printing tables to out.
func New(out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		out:           out,
		loadTable:     dataset.Load,
		newRepository: storage.New,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run validates p and executes it. Errors name the failing table or step.
func (r *Runner) Run(ctx context.Context, p config.Pipeline) (*Result, error) {
	if issues := config.ValidatePipeline(p); config.HasErrors(issues) {
		msgs := make([]string, 0, len(issues))
		for _, iss := range issues {
			if iss.Severity == config.SeverityError {
				msgs = append(msgs, iss.Error())
			}
		}
		return nil, fmt.Errorf("invalid pipeline: %s", strings.Join(msgs, "; "))
	}

	catalog := make(map[string]*table.Table, len(p.Tables)+len(p.Steps))
	for _, src := range p.Tables {
		done := metrics.StartStep(p.Job, "load_"+src.Kind)
		t, st, err := r.loadTable(ctx, src)
		done(err)
		if err != nil {
			return nil, err
		}
		metrics.RecordRows(p.Job, src.Name, metrics.StageLoaded, st.Loaded)
		metrics.RecordRows(p.Job, src.Name, metrics.StageRejected, st.Rejected)
		if r.verbose {
			log.Printf("table %s: kind=%s rows=%d rejected=%d", src.Name, src.Kind, st.Loaded, st.Rejected)
		}
		catalog[src.Name] = t
	}

	show := table.ShowOptions{Rows: p.Runtime.ShowRows, Truncate: p.Runtime.Truncate}
	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		done := metrics.StartStep(p.Job, step.Kind)
		out, err := runStep(catalog, step)
		done(err)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Kind, err)
		}

		name := step.Output()
		if out.Name != name {
			cp := *out
			cp.Name = name
			out = &cp
		}
		catalog[name] = out
		metrics.RecordRows(p.Job, name, metrics.StageOutput, out.Len())
		if r.verbose {
			log.Printf("step %d (%s): %s -> %s rows=%d", i, step.Kind, step.Table, name, out.Len())
		}

		if err := r.print(step, out, show); err != nil {
			return nil, fmt.Errorf("step %d (%s): print: %w", i, step.Kind, err)
		}
	}

	res := &Result{Tables: catalog}
	exported, err := r.export(ctx, p, catalog)
	res.Exported = exported
	if err != nil {
		return res, err
	}
	return res, nil
}

func runStep(catalog map[string]*table.Table, step config.Step) (*table.Table, error) {
	in, ok := catalog[step.Table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", step.Table)
	}

	if step.Kind == "join" {
		o := step.Options
		rightName := o.String("right", "")
		right, ok := catalog[rightName]
		if !ok {
			return nil, fmt.Errorf("unknown right table %q", rightName)
		}
		kind, err := join.ParseKind(o.String("how", ""))
		if err != nil {
			return nil, err
		}
		return join.Tables(in, right, join.Spec{
			LeftOn:  o.String("left_on", ""),
			RightOn: o.String("right_on", ""),
			Kind:    kind,
		})
	}

	tr, err := transformer.Build(step)
	if err != nil {
		return nil, err
	}
	return tr.Apply(in)
}

// print writes the step label (when set), the table grid and the schema tree,
// in that order.
func (r *Runner) print(step config.Step, t *table.Table, opts table.ShowOptions) error {
	if step.Label != "" {
		if _, err := fmt.Fprintln(r.out, step.Label); err != nil {
			return err
		}
	}
	if step.Show {
		if err := table.Show(r.out, t, opts); err != nil {
			return err
		}
	}
	if step.PrintSchema {
		if err := table.PrintSchema(r.out, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) export(ctx context.Context, p config.Pipeline, catalog map[string]*table.Table) ([]storage.ExportResult, error) {
	s := p.Storage
	if s.Kind == "" || s.Kind == "none" || len(s.Tables) == 0 {
		return nil, nil
	}

	tables := make([]*table.Table, 0, len(s.Tables))
	for _, name := range s.Tables {
		t, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("export: unknown table %q", name)
		}
		tables = append(tables, t)
	}

	repo, err := r.newRepository(ctx, storage.Config{Kind: s.Kind, DSN: s.DB.DSN})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer repo.Close()

	done := metrics.StartStep(p.Job, "export")
	res, err := storage.ExportTables(ctx, repo, tables, storage.ExportOptions{
		Job:         p.Job,
		Kind:        s.Kind,
		TablePrefix: s.DB.TablePrefix,
		AutoCreate:  s.DB.AutoCreateTable,
		BatchSize:   p.Runtime.BatchSize,
	})
	done(err)
	if err != nil {
		return res, err
	}
	if r.verbose {
		for _, e := range res {
			log.Printf("export %s -> %s: rows=%d batches=%d", e.Table, e.Dest, e.Rows, e.Batches)
		}
	}
	return res, nil
}
