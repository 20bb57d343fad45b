package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.CacheSize() != 256 {
		t.Errorf("CacheSize() = %d", cfg.CacheSize())
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`
list:
  keyName: data-key
scheduler:
  frameInterval: 32ms
dev:
  port: 9000
  debounce: 250ms
cache:
  size: 10
  disabled: true
styles:
  - styles/base.yaml
`)
	if err := os.WriteFile(filepath.Join(dir, "htag.yaml"), data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := DefaultConfig()
	want.List.KeyName = "data-key"
	want.Scheduler.FrameInterval = 32 * time.Millisecond
	want.Dev.Port = 9000
	want.Dev.Debounce = 250 * time.Millisecond
	want.Cache = &CacheConfig{Size: 10, Disabled: true}
	want.Styles = []string{"styles/base.yaml"}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.CacheSize() != 0 {
		t.Error("a disabled cache should report size 0")
	}
	if cfg.Dev.Addr() != "localhost:9000" {
		t.Errorf("Addr() = %q", cfg.Dev.Addr())
	}
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`{"dev": {"host": "0.0.0.0"}}`)
	if err := os.WriteFile(filepath.Join(dir, "htag.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dev.Host != "0.0.0.0" || cfg.Dev.Port != 8080 {
		t.Errorf("unexpected dev config %+v", cfg.Dev)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "dev: [port"},
		{"port range", "dev:\n  port: 70000\n"},
		{"negative cache", "cache:\n  size: -1\n"},
		{"same list names", "list:\n  keyName: a\n  indexKeyName: a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dev.Port = 3000
	cfg.Styles = []string{"a.yaml"}

	if err := Save(cfg, dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
