// Package config handles loading and saving hat configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/sortinghat/config.yaml
//   - State:   ~/.local/state/sortinghat/ (debug log)
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/sortinghat/pkg/model"
)

const appDir = "sortinghat"

// EnvAPIURL overrides api.base_url.
const EnvAPIURL = "SORTINGHAT_API_URL"

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"` // e.g. 90s; classification can be slow
	Model   string        `yaml:"model,omitempty"`   // LLM override sent with /classify
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultBranch string  `yaml:"default_branch,omitempty"` // software, hardware
	SplitRatio    float64 `yaml:"split_ratio,omitempty"`    // tree pane share (0.2-0.8)
	Indent        int     `yaml:"indent,omitempty"`         // columns per level (1-8)
}

// LogConfig controls the debug log sink.
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// Config is the top-level configuration for hat.
type Config struct {
	API APIConfig `yaml:"api,omitempty"`
	UI  UIConfig  `yaml:"ui,omitempty"`
	Log LogConfig `yaml:"log,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api/v1",
			Timeout: 2 * time.Minute,
		},
		UI: UIConfig{
			DefaultBranch: string(model.BranchSoftware),
			SplitRatio:    0.4,
			Indent:        2,
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// ConfigDir returns the XDG config directory for hat.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDir)
}

// StateDir returns the XDG state directory for hat.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appDir)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LogPath returns the debug log file, falling back to StateDir/hat.log.
func (c Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "hat.log")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides in place.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
}

// Validate checks field ranges. All problems are joined into one error.
func (c Config) Validate() error {
	var errs []error
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("api.base_url %q must be an http(s) URL", c.API.BaseURL))
		}
	}
	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout must not be negative"))
	}
	if c.UI.DefaultBranch != "" {
		if _, err := model.ParseBranch(c.UI.DefaultBranch); err != nil {
			errs = append(errs, fmt.Errorf("ui.default_branch: %w", err))
		}
	}
	if c.UI.SplitRatio != 0 && (c.UI.SplitRatio < 0.2 || c.UI.SplitRatio > 0.8) {
		errs = append(errs, fmt.Errorf("ui.split_ratio %.2f out of range 0.2-0.8", c.UI.SplitRatio))
	}
	if c.UI.Indent < 0 || c.UI.Indent > 8 {
		errs = append(errs, fmt.Errorf("ui.indent %d out of range 1-8", c.UI.Indent))
	}
	return errors.Join(errs...)
}

// Branch returns the configured default branch, or software.
func (c Config) Branch() model.Branch {
	b, err := model.ParseBranch(c.UI.DefaultBranch)
	if err != nil {
		return model.BranchSoftware
	}
	return b
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
