// Package metrics records operational metrics for dfpipe runs behind a
// pluggable backend.
//
// The global backend defaults to a no-op, so every Record* helper is safe to
// call whether or not a real backend was installed. Concrete systems live in
// subpackages (prompush, datadog) and are chosen by cmd/dfpipe.
//
// Metric names:
//
//	dfpipe_step_total              counter   job, step, status
//	dfpipe_step_duration_seconds   histogram job, step, status
//	dfpipe_rows_total              counter   job, table, stage
//	dfpipe_export_batches_total    counter   job, table
package metrics

import (
	"sync"
	"time"
)

const (
	StepTotal           = "dfpipe_step_total"
	StepDurationSeconds = "dfpipe_step_duration_seconds"
	RowsTotal           = "dfpipe_rows_total"
	ExportBatchesTotal  = "dfpipe_export_batches_total"
)

// Row stages reported through RecordRows.
const (
	StageLoaded   = "loaded"
	StageRejected = "rejected"
	StageOutput   = "output"
	StageExported = "exported"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one step execution and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// StartStep starts timing a step. Call the returned func with the step's
// error once it finishes.
func StartStep(job, step string) func(err error) {
	start := time.Now()
	return func(err error) {
		RecordStep(job, step, err, time.Since(start))
	}
}

// RecordRows adds n rows of a table at the given stage. Non-positive n is
// ignored.
func RecordRows(job, table, stage string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(n), Labels{
		"job":   job,
		"table": table,
		"stage": stage,
	})
}

// RecordBatches counts export batches flushed for a table.
func RecordBatches(job, table string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(ExportBatchesTotal, float64(n), Labels{
		"job":   job,
		"table": table,
	})
}
