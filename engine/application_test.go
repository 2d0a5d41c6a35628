package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kaelos/prism/engine/core"
)

func TestLoadApplicationConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadApplicationConfig: %v", err)
	}
	def := DefaultApplicationConfig()
	if cfg.Name != def.Name || cfg.StartWidth != def.StartWidth {
		t.Fatalf("got %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadApplicationConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.toml")
	data := []byte("Name = \"editor\"\nStartWidth = 1920\nLogLevel = \"debug\"\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadApplicationConfig(path)
	if err != nil {
		t.Fatalf("LoadApplicationConfig: %v", err)
	}
	if cfg.Name != "editor" {
		t.Fatalf("Name = %q, want editor", cfg.Name)
	}
	if cfg.StartWidth != 1920 {
		t.Fatalf("StartWidth = %d, want 1920", cfg.StartWidth)
	}
	if cfg.LogLevel != core.LogLevelDebug {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Untouched fields keep their defaults.
	if cfg.StartHeight != DefaultApplicationConfig().StartHeight {
		t.Fatalf("StartHeight = %d, want default", cfg.StartHeight)
	}
}

func TestLoadApplicationConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.toml")
	if err := os.WriteFile(path, []byte("Name = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadApplicationConfig(path); err == nil {
		t.Fatal("expected a parse error")
	}
}
