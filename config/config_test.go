package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchOriginalDeployment(t *testing.T) {
	cfg := Default()
	if cfg.Hunt.BaseURL != "https://gpay.app.goo.gl/" {
		t.Fatalf("unexpected base URL %q", cfg.Hunt.BaseURL)
	}
	if cfg.Hunt.CodeLength != 6 {
		t.Fatalf("unexpected code length %d", cfg.Hunt.CodeLength)
	}
	if len(cfg.Hunt.Patterns) != 3 {
		t.Fatalf("expected 3 required patterns, got %v", cfg.Hunt.Patterns)
	}
	if cfg.Probe.TimeoutSeconds != 8 {
		t.Fatalf("expected 8s probe timeout, got %d", cfg.Probe.TimeoutSeconds)
	}
	if cfg.Workers.Count < 1 || cfg.Workers.Count > 30 {
		t.Fatalf("worker auto-sizing out of range: %d", cfg.Workers.Count)
	}
	if cfg.Queue.Capacity != 100000 || cfg.Queue.BackoffThreshold != 10000 {
		t.Fatalf("unexpected queue sizing: %+v", cfg.Queue)
	}
	if cfg.Checkpoint.IntervalSeconds != 300 || cfg.Checkpoint.AutoSaveSeconds != 600 {
		t.Fatalf("unexpected checkpoint intervals: %+v", cfg.Checkpoint)
	}
}

func TestLoadOverridesAndFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	const body = `
system_name: box-a
probe:
  backend: curl
  timeout_seconds: 3
workers:
  count: 4
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Probe.Backend != "curl" || cfg.Probe.TimeoutSeconds != 3 {
		t.Fatalf("override not applied: %+v", cfg.Probe)
	}
	if cfg.Workers.Count != 4 {
		t.Fatalf("worker override not applied: %d", cfg.Workers.Count)
	}
	// Untouched sections keep defaults.
	if cfg.Results.BatchSize != 100 {
		t.Fatalf("defaults not filled for results: %+v", cfg.Results)
	}
	if got := cfg.LogFile(); got != "box-a-logs.txt" {
		t.Fatalf("expected system-name log prefix, got %q", got)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("probe:\n  backend: carrier-pigeon\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown probe backend")
	}
}

func TestLogFileWithoutSystemName(t *testing.T) {
	cfg := Default()
	if got := cfg.LogFile(); got != "logs.txt" {
		t.Fatalf("expected plain logs.txt, got %q", got)
	}
}
