package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Store.Path != "data/varlog.db" {
		t.Errorf("expected default store path, got %s", cfg.Store.Path)
	}
	if cfg.Server.Name != "varlog" || cfg.Server.Transport != "stdio" {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Telemetry.Exporter != "stdout" {
		t.Errorf("expected stdout exporter default, got %s", cfg.Telemetry.Exporter)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "varlog.yaml")
	content := []byte("log:\n  level: debug\n  format: json\nstore:\n  path: /tmp/test.db\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("file values not applied: %+v", cfg.Log)
	}
	if cfg.Store.Path != "/tmp/test.db" {
		t.Errorf("expected overridden store path, got %s", cfg.Store.Path)
	}
	// Untouched sections keep defaults.
	if cfg.Server.Name != "varlog" {
		t.Errorf("expected default server name, got %s", cfg.Server.Name)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VARLOG_LOG_LEVEL", "error")
	t.Setenv("VARLOG_STORE_PATH", "/tmp/env.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected env log level, got %s", cfg.Log.Level)
	}
	if cfg.Store.Path != "/tmp/env.db" {
		t.Errorf("expected env store path, got %s", cfg.Store.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "varlog.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("scaffold failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load of scaffolded config failed: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("scaffolded config should round-trip defaults, got %+v", cfg.Log)
	}

	if err := WriteDefault(path); err == nil {
		t.Errorf("expected refusal to overwrite existing config")
	}
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "varlog.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	w, err := NewWatcher(path, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("watcher failed: %v", err)
	}

	var reloads atomic.Int32
	var lastLevel atomic.Value
	w.OnChange(func(cfg *Config) {
		reloads.Add(1)
		lastLevel.Store(cfg.Log.Level)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	// ModTime granularity can be coarse; ensure the rewrite looks newer.
	time.Sleep(1100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("watcher never reloaded")
		case <-time.After(20 * time.Millisecond):
		}
	}

	if w.Config().Log.Level != "debug" {
		t.Errorf("expected reloaded level debug, got %s", w.Config().Log.Level)
	}
	if lastLevel.Load() != "debug" {
		t.Errorf("listener saw level %v, expected debug", lastLevel.Load())
	}
}
