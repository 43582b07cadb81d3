package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/willibrandon/mtlog"
)

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), mtlog.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Defaults()
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("Load() with missing file = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_OverlaysOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
input:
  filePath: custom.jsonl
  format: jsonl
sinks:
  rest:
    rateLimit: 10
dlq:
  maxRetries: 5
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path, mtlog.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Input.FilePath != "custom.jsonl" {
		t.Errorf("Input.FilePath = %q, want custom.jsonl", cfg.Input.FilePath)
	}
	if cfg.Sinks.REST.RateLimit != 10 {
		t.Errorf("Sinks.REST.RateLimit = %d, want 10", cfg.Sinks.REST.RateLimit)
	}
	if cfg.DLQ.MaxRetries != 5 {
		t.Errorf("DLQ.MaxRetries = %d, want 5", cfg.DLQ.MaxRetries)
	}
	// Untouched keys retain their documented defaults.
	if cfg.Sinks.GRPC.RateLimit != 200 {
		t.Errorf("Sinks.GRPC.RateLimit = %d, want untouched default 200", cfg.Sinks.GRPC.RateLimit)
	}
	if cfg.Queue.Capacity != 1000 {
		t.Errorf("Queue.Capacity = %d, want untouched default 1000", cfg.Queue.Capacity)
	}
}
