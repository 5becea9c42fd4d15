// Package config loads the pulse YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
	"github.com/eliteGoblin/focusd/pulse/internal/infra"
	"github.com/eliteGoblin/focusd/pulse/internal/policy"
)

// Config holds all pulse configuration.
type Config struct {
	// DataDir holds state, key and log files.
	DataDir string `yaml:"data_dir"`

	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Refresh RefreshConfig `yaml:"refresh"`

	// Timezone is an IANA name used for calendar-day math. Empty means the
	// system local zone.
	Timezone string `yaml:"timezone"`

	// Policies replace built-in mode entries, matched by mode.
	Policies []domain.ModePolicy `yaml:"policies,omitempty"`
}

// StoreConfig selects the state backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // file, sqlite, encrypted, memory
	Key     string `yaml:"key"`     // optional SQLCipher key, hex or base64
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// RefreshConfig configures the watch loop.
type RefreshConfig struct {
	Interval string `yaml:"interval"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dataDir := infra.DefaultDataDir()
	return &Config{
		DataDir: dataDir,
		Store: StoreConfig{
			Backend: infra.BackendFile,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dataDir, infra.LogFileName),
		},
		Refresh: RefreshConfig{
			Interval: policy.DefaultRefreshInterval.String(),
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults and
// applies environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.DataDir = infra.ExpandHome(cfg.DataDir)
	cfg.Logging.File = infra.ExpandHome(cfg.Logging.File)

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("PULSE_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if backend := os.Getenv("PULSE_STORE"); backend != "" {
		c.Store.Backend = strings.ToLower(backend)
	}
	if key := os.Getenv("PULSE_STORE_KEY"); key != "" {
		c.Store.Key = key
	}
	if level := os.Getenv("PULSE_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if tz := os.Getenv("PULSE_TZ"); tz != "" {
		c.Timezone = tz
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.DataDir == "" && c.Store.Backend != infra.BackendMemory {
		return fmt.Errorf("data_dir is required for store backend %q", c.Store.Backend)
	}
	if !slices.Contains(infra.Backends(), c.Store.Backend) {
		return fmt.Errorf("unknown store backend %q (want one of %s)",
			c.Store.Backend, strings.Join(infra.Backends(), ", "))
	}
	if c.Store.Key != "" {
		if _, err := infra.ParseKey(c.Store.Key); err != nil {
			return fmt.Errorf("invalid store.key: %w", err)
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}

	if _, err := c.RefreshInterval(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	for _, p := range c.Policies {
		if !p.Mode.Valid() {
			return fmt.Errorf("policies: %w: %q", domain.ErrUnknownMode, p.Mode)
		}
		if p.TaskCap < 1 || p.TimerMin < 1 || p.GraceDaysPerMonth < 0 {
			return fmt.Errorf("policies: %s has non-positive limits", p.Mode)
		}
		if !p.Animations.Valid() {
			return fmt.Errorf("policies: %s has invalid animations %q (want low, medium or high)", p.Mode, p.Animations)
		}
	}
	if _, err := c.PolicyRegistry(); err != nil {
		return err
	}
	return nil
}

// RefreshInterval parses refresh.interval.
func (c *Config) RefreshInterval() (time.Duration, error) {
	if c.Refresh.Interval == "" {
		return policy.DefaultRefreshInterval, nil
	}
	d, err := time.ParseDuration(c.Refresh.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid refresh.interval: %w", err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("refresh.interval must be at least 1s, got %s", d)
	}
	return d, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	return loc, nil
}

// PolicyRegistry builds the mode table: built-in entries with configured
// overrides applied. The merged table is validated as a whole.
func (c *Config) PolicyRegistry() (*policy.Registry, error) {
	reg := policy.NewRegistry()
	for _, p := range c.Policies {
		reg.Register(p)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("policies: %w", err)
	}
	return reg, nil
}

// StoreOptions maps the store section onto infra options.
func (c *Config) StoreOptions() infra.StoreOptions {
	return infra.StoreOptions{
		Backend: c.Store.Backend,
		DataDir: c.DataDir,
		Key:     c.Store.Key,
	}
}
