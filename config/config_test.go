package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.Name != "toolhub" {
		t.Errorf("Expected default name 'toolhub', got %q", cfg.Name)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Tools.DefaultTimeoutSeconds != 100 {
		t.Errorf("Expected 100 second default timeout, got %d", cfg.Tools.DefaultTimeoutSeconds)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must validate, got %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolhub.json")

	cfg := NewConfig()
	cfg.Tools.UnsafeMode = true
	cfg.Tools.DefaultTimeoutSeconds = 42
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !loaded.Tools.UnsafeMode {
		t.Error("Expected unsafe mode preserved")
	}
	if loaded.Tools.DefaultTimeoutSeconds != 42 {
		t.Errorf("Expected timeout 42, got %d", loaded.Tools.DefaultTimeoutSeconds)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Expected missing config file to fail")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected invalid JSON to fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TOOLHUB_LOG_LEVEL", "DEBUG")
	t.Setenv("TOOLHUB_UNSAFE_MODE", "true")
	t.Setenv("TOOLHUB_DEFAULT_TIMEOUT_SECONDS", "7")
	t.Setenv("TOOLHUB_OPS_PORT", "not-a-number")
	t.Setenv("TOOLHUB_UNPAYWALL_EMAIL", "lab@example.org")

	path := filepath.Join(t.TempDir(), "toolhub.json")
	if err := SaveConfig(NewConfig(), path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level override normalized to 'debug', got %q", cfg.Logging.Level)
	}
	if !cfg.Tools.UnsafeMode {
		t.Error("Expected unsafe mode override")
	}
	if cfg.Tools.DefaultTimeoutSeconds != 7 {
		t.Errorf("Expected timeout override 7, got %d", cfg.Tools.DefaultTimeoutSeconds)
	}
	if cfg.Ops.Port != 9070 {
		t.Errorf("Expected invalid port override ignored, got %d", cfg.Ops.Port)
	}
	if cfg.Tools.UnpaywallEmail != "lab@example.org" {
		t.Errorf("Expected unpaywall email override, got %q", cfg.Tools.UnpaywallEmail)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"negative timeout", func(c *Config) { c.Tools.DefaultTimeoutSeconds = -1 }},
		{"audit without path", func(c *Config) { c.Audit.Enabled = true; c.Audit.Path = "" }},
		{"ops bad port", func(c *Config) { c.Ops.Enabled = true; c.Ops.Port = 70000 }},
		{"ops empty host", func(c *Config) { c.Ops.Enabled = true; c.Ops.Host = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			cfg.Normalize()
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}

func TestEnsureDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "toolhub.json")

	if err := EnsureDefaultConfig(path); err != nil {
		t.Fatalf("EnsureDefaultConfig failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected config file created: %v", err)
	}

	// A second call must leave the existing file alone.
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.Tools.DefaultTimeoutSeconds = 55
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if err := EnsureDefaultConfig(path); err != nil {
		t.Fatalf("EnsureDefaultConfig failed on existing file: %v", err)
	}
	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if reloaded.Tools.DefaultTimeoutSeconds != 55 {
		t.Error("Expected existing config preserved")
	}
}
