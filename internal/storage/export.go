package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"dfpipe/internal/metrics"
	"dfpipe/internal/table"
	"dfpipe/internal/transformer"
)

// DefaultBatchSize is used when ExportOptions.BatchSize is zero.
const DefaultBatchSize = 500

// ExportOptions controls ExportTables.
type ExportOptions struct {
	// Job labels metrics.
	Job string
	// Kind selects the dialect used for CREATE TABLE.
	Kind string
	// TablePrefix is prepended to every destination table name.
	TablePrefix string
	// AutoCreate creates missing destination tables first.
	AutoCreate bool
	// BatchSize caps rows per CopyFrom call.
	BatchSize int
	// Parallel caps how many tables load at once. Zero means all.
	Parallel int
}

// ExportResult reports one exported table.
type ExportResult struct {
	Table   string
	Dest    string
	Rows    int64
	Batches int
}

// ExportTables writes every table to repo. Each table runs its own
// producer (rows streamed in export form) and batch loader; the first error
// cancels the rest. Results come back in the order of tables.
func ExportTables(ctx context.Context, repo Repository, tables []*table.Table, opt ExportOptions) ([]ExportResult, error) {
	batchSize := opt.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if opt.AutoCreate {
		for _, t := range tables {
			if err := EnsureTable(ctx, opt.Kind, repo, t, opt.TablePrefix+t.Name); err != nil {
				return nil, err
			}
		}
	}

	results := make([]ExportResult, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	if opt.Parallel > 0 {
		g.SetLimit(opt.Parallel)
	}
	for i, t := range tables {
		i, t := i, t
		g.Go(func() error {
			dest := opt.TablePrefix + t.Name
			st, err := exportOne(gctx, repo, t, dest, batchSize)
			results[i] = ExportResult{Table: t.Name, Dest: dest, Rows: st.Rows, Batches: st.Batches}
			metrics.RecordRows(opt.Job, t.Name, metrics.StageExported, int(st.Rows))
			metrics.RecordBatches(opt.Job, t.Name, st.Batches)
			if err != nil {
				return fmt.Errorf("export %s: %w", t.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func exportOne(ctx context.Context, repo Repository, t *table.Table, dest string, batchSize int) (LoadStats, error) {
	rows := make(chan []any, batchSize)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		return transformer.StreamRows(gctx, t, rows)
	})

	var st LoadStats
	g.Go(func() error {
		var err error
		st, err = LoadBatches(gctx, dest, t.Names(), rows, batchSize,
			func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
				return repo.CopyFrom(ctx, dest, columns, batch)
			})
		return err
	})
	err := g.Wait()
	return st, err
}
