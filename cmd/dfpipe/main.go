package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"dfpipe/internal/config"
	"dfpipe/internal/metrics"
	"dfpipe/internal/pipeline"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "dfpipe/internal/storage/all"
)

// main loads the pipeline (the built-in product/source pipeline when no
// config is given), optionally wires a metrics backend, runs it and prints
// every requested table to stdout.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		ddAddrFlg         string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "pipeline config JSON path (empty runs the built-in pipeline)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none); overrides env METRICS_BACKEND")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&ddAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DD_AGENT_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := loadPipeline(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	name := cfgPath
	if name == "" {
		name = "<built-in>"
	}
	if reportIssues(os.Stderr, config.ValidatePipeline(p)) {
		log.Printf("Configuration is invalid: %v", name)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", name)
		os.Exit(0)
	}

	mc := metricsConfig{
		Backend:        firstNonEmpty(metricsBackendFlg, os.Getenv("METRICS_BACKEND")),
		PushGatewayURL: firstNonEmpty(pushGatewayURLFlg, os.Getenv("PUSHGATEWAY_URL"), defaultPushGatewayURL),
		DogStatsDAddr:  firstNonEmpty(ddAddrFlg, os.Getenv("DD_AGENT_ADDR"), defaultDogStatsDAddr),
		Job:            p.Job,
	}
	if b, err := newMetricsBackend(mc); err != nil {
		log.Printf("metrics: %v; using nop", err)
	} else if b != nil {
		log.Printf("metrics: backend=%v job_name=%v", mc.Backend, mc.Job)
		metrics.SetBackend(b)
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush error: %v", err)
			}
		}()
	} else if *verbose {
		log.Printf("metrics: disabled (backend=%q)", mc.Backend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	start := time.Now()

	if *verbose {
		log.Printf("pipeline: job=%s tables=%d steps=%d storage=%s", p.Job, len(p.Tables), len(p.Steps), p.Storage.Kind)
	}

	res, err := pipeline.New(os.Stdout, pipeline.WithVerbose(*verbose)).Run(ctx, p)
	if err != nil {
		// Deferred flush would be skipped by os.Exit.
		_ = metrics.Flush()
		fatalf("%v", err)
	}

	if *verbose {
		for _, e := range res.Exported {
			log.Printf("exported %s -> %s (%d rows)", e.Table, e.Dest, e.Rows)
		}
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// loadPipeline decodes the pipeline at path, or returns the built-in one when
// path is empty.
func loadPipeline(path string) (config.Pipeline, error) {
	if path == "" {
		return config.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return config.Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p config.Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return config.Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	return p, nil
}

// reportIssues prints one line per issue and reports whether any of them
// blocks execution.
func reportIssues(w io.Writer, issues []config.Issue) bool {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	return config.HasErrors(issues)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
