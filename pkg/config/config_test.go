package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/sortinghat/pkg/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.BaseURL != "http://localhost:8000/api/v1" {
		t.Errorf("expected default base URL, got %q", cfg.API.BaseURL)
	}
	if cfg.UI.SplitRatio != 0.4 {
		t.Errorf("expected split ratio 0.4, got %f", cfg.UI.SplitRatio)
	}
	if cfg.Branch() != model.BranchSoftware {
		t.Errorf("expected software branch, got %q", cfg.Branch())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.UI.Indent != 2 {
		t.Errorf("expected default config, got indent %d", cfg.UI.Indent)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
api:
  base_url: https://hat.example.com/api/v1
  timeout: 45s
  model: gpt-4o-mini

ui:
  default_branch: hardware
  split_ratio: 0.5
  indent: 4

log:
  file: ~/logs/hat.log
  level: info
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "https://hat.example.com/api/v1" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.API.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.API.Model)
	}
	if cfg.Branch() != model.BranchHardware {
		t.Errorf("branch = %q", cfg.Branch())
	}
	if cfg.UI.SplitRatio != 0.5 || cfg.UI.Indent != 4 {
		t.Errorf("ui = %+v", cfg.UI)
	}
	// Path should have ~ expanded
	home, _ := os.UserHomeDir()
	if cfg.Log.File != filepath.Join(home, "logs/hat.log") {
		t.Errorf("expected expanded log path, got %q", cfg.Log.File)
	}
	if cfg.LogPath() != cfg.Log.File {
		t.Error("LogPath should prefer the configured file")
	}
}

func TestLoadFrom_PartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ui:\n  indent: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Indent != 3 || cfg.UI.SplitRatio != 0.4 || cfg.API.Timeout != 2*time.Minute {
		t.Errorf("unexpected merge: %+v", cfg)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFrom(path)
	if err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad url", func(c *Config) { c.API.BaseURL = "localhost:8000" }, "api.base_url"},
		{"ftp url", func(c *Config) { c.API.BaseURL = "ftp://x/y" }, "api.base_url"},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }, "api.timeout"},
		{"bad branch", func(c *Config) { c.UI.DefaultBranch = "firmware" }, "ui.default_branch"},
		{"ratio", func(c *Config) { c.UI.SplitRatio = 0.95 }, "ui.split_ratio"},
		{"indent", func(c *Config) { c.UI.Indent = 12 }, "ui.indent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UI.Indent = 99
	cfg.UI.SplitRatio = 0.01
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ui.indent") || !strings.Contains(err.Error(), "ui.split_ratio") {
		t.Errorf("expected both problems, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://backend:9000/api/v1")
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.API.BaseURL != "http://backend:9000/api/v1" {
		t.Errorf("env override not applied: %q", cfg.API.BaseURL)
	}

	t.Setenv(EnvAPIURL, "  ")
	cfg = DefaultConfig()
	cfg.ApplyEnv()
	if cfg.API.BaseURL != DefaultConfig().API.BaseURL {
		t.Error("blank env should be ignored")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.Model = "claude"
	cfg.UI.DefaultBranch = "hardware"
	cfg.API.Timeout = 30 * time.Second

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.API.Model != "claude" || got.Branch() != model.BranchHardware || got.API.Timeout != 30*time.Second {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgc")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdgs")
	if ConfigPath() != "/tmp/xdgc/sortinghat/config.yaml" {
		t.Errorf("ConfigPath = %q", ConfigPath())
	}
	if StateDir() != "/tmp/xdgs/sortinghat" {
		t.Errorf("StateDir = %q", StateDir())
	}
	if DefaultConfig().LogPath() != "/tmp/xdgs/sortinghat/hat.log" {
		t.Errorf("LogPath = %q", DefaultConfig().LogPath())
	}
}
