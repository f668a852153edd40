// Package prompush is a Prometheus Pushgateway backend for the metrics
// package.
//
// dfpipe is a batch command, so nothing stays up long enough to be scraped.
// Collected series are pushed to a Pushgateway on Flush instead, grouped under
// the run's job name. The job label itself is therefore dropped from the
// series and carried by the grouping key.
package prompush

import (
	"fmt"

	"dfpipe/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend pushes dfpipe metrics to a Pushgateway.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	steps        *prometheus.CounterVec   // step, status
	stepDuration *prometheus.HistogramVec // step, status
	rows         *prometheus.CounterVec   // table, stage
	batches      *prometheus.CounterVec   // table
}

// NewBackend builds a backend pushing to gatewayURL under jobName
// (default "dfpipe").
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "dfpipe"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by step kind and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StepDurationSeconds,
			Help:    "Pipeline step duration in seconds by step kind and status.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"step", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows per table and stage (loaded, rejected, output, exported).",
		}, []string{"table", "stage"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.ExportBatchesTotal,
			Help: "Export batches flushed to storage per table.",
		}, []string{"table"}),
	}

	for _, c := range []prometheus.Collector{b.steps, b.stepDuration, b.rows, b.batches} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

// IncCounter routes known metric names to their collectors. Unknown names are
// ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.steps != nil {
			b.steps.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case metrics.RowsTotal:
		if b.rows != nil {
			b.rows.WithLabelValues(labels["table"], labels["stage"]).Add(delta)
		}
	case metrics.ExportBatchesTotal:
		if b.batches != nil {
			b.batches.WithLabelValues(labels["table"]).Add(delta)
		}
	}
}

// ObserveHistogram records step durations; other names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway, replacing the job's group.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
