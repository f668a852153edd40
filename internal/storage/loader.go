package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn inserts rows (aligned to columns) and returns how many were written.
// It should cancel promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadStats is the outcome of one LoadBatches call.
type LoadStats struct {
	Rows    int64
	Batches int
}

// LoadBatches drains in, groups rows into batches of batchSize and calls
// copyFn for each non-empty batch. It returns what was written before the
// first error. name only labels the progress log lines.
func LoadBatches(
	ctx context.Context,
	name string,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (LoadStats, error) {
	if batchSize <= 0 {
		return LoadStats{}, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return LoadStats{}, fmt.Errorf("copyFn must not be nil")
	}

	var (
		st        LoadStats
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
		lastRows  int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		st.Rows += n
		// copyFn must not retain rows; the backing array is reused.
		batch = batch[:0]
		if err != nil {
			log.Printf("loader %s: copy failed after=%d total=%d err=%v", name, n, st.Rows, err)
			return err
		}

		st.Batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(st.Rows-lastRows) / since.Seconds()
		}
		log.Printf("loader %s: batch #%d rps=%.0f inserted=%d total=%d elapsed=%s",
			name, st.Batches, rps, n, st.Rows, now.Sub(start).Truncate(time.Millisecond))
		lastFlush = now
		lastRows = st.Rows
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return st, err
				}
				return st, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return st, err
				}
			}
		}
	}
}
