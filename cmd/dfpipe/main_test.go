package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dfpipe/internal/config"
	"dfpipe/internal/metrics/prompush"
)

func TestLoadPipeline_EmptyPathIsBuiltIn(t *testing.T) {
	p, err := loadPipeline("")
	if err != nil {
		t.Fatalf("loadPipeline: %v", err)
	}
	if p.Job != config.Default().Job || len(p.Steps) != len(config.Default().Steps) {
		t.Fatalf("unexpected pipeline: job=%q steps=%d", p.Job, len(p.Steps))
	}
}

func TestLoadPipeline_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	body := `{
  "job": "csv_job",
  "tables": [{"name": "people", "kind": "csv", "file": {"path": "people.csv"}}],
  "steps": [{"kind": "show", "table": "people", "show": true}]
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := loadPipeline(path)
	if err != nil {
		t.Fatalf("loadPipeline: %v", err)
	}
	if p.Job != "csv_job" || len(p.Tables) != 1 || p.Tables[0].Kind != "csv" {
		t.Fatalf("unexpected pipeline: %+v", p)
	}

	if _, err := loadPipeline(filepath.Join(dir, "missing.json")); err == nil || !strings.HasPrefix(err.Error(), "open config") {
		t.Fatalf("err=%v; want open config error", err)
	}
	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte("{"), 0o644)
	if _, err := loadPipeline(bad); err == nil || !strings.HasPrefix(err.Error(), "decode config") {
		t.Fatalf("err=%v; want decode config error", err)
	}
}

func TestReportIssues(t *testing.T) {
	var buf bytes.Buffer
	blocked := reportIssues(&buf, []config.Issue{
		{Severity: config.SeverityWarning, Path: "storage.kind", Message: "unknown"},
		{Severity: config.SeverityError, Path: "steps[0].table", Message: "unknown table"},
	})
	if !blocked {
		t.Fatalf("expected blocking issue")
	}
	want := "warning: storage.kind: unknown\nerror: steps[0].table: unknown table\n"
	if buf.String() != want {
		t.Fatalf("output=%q; want %q", buf.String(), want)
	}
	if reportIssues(&bytes.Buffer{}, nil) {
		t.Fatalf("no issues must not block")
	}
}

func TestNewMetricsBackend(t *testing.T) {
	for _, name := range []string{"", "none"} {
		b, err := newMetricsBackend(metricsConfig{Backend: name})
		if b != nil || err != nil {
			t.Fatalf("backend %q: got %v, %v; want disabled", name, b, err)
		}
	}

	b, err := newMetricsBackend(metricsConfig{Backend: "pushgateway", PushGatewayURL: defaultPushGatewayURL, Job: "j"})
	if err != nil {
		t.Fatalf("pushgateway: %v", err)
	}
	if _, ok := b.(*prompush.Backend); !ok {
		t.Fatalf("pushgateway backend type %T", b)
	}

	if _, err := newMetricsBackend(metricsConfig{Backend: "pushgateway"}); err == nil {
		t.Fatalf("expected error without gateway URL")
	}
	if _, err := newMetricsBackend(metricsConfig{Backend: "graphite"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Fatalf("got %q", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Fatalf("got %q", got)
	}
}
