// Package config provides unified configuration loading for atomloop.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/atomloop/atomloop/internal/diagnosis"
	"github.com/atomloop/atomloop/internal/focus"
	"gopkg.in/yaml.v3"
)

// Config contains all atomloop configuration settings.
type Config struct {
	// Focus configures study-queue scoring (weights, threshold, budget).
	Focus focus.Config `json:"focus" yaml:"focus"`

	// Diagnosis configures the cognitive-diagnosis thresholds.
	Diagnosis diagnosis.Config `json:"diagnosis" yaml:"diagnosis"`

	// Logging configures operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Store configures where atom and review data live.
	Store StoreConfig `json:"store" yaml:"store"`
}

// LoggingConfig configures atomloop's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to .atomloop/decisions.jsonl.
	Level string `json:"level" yaml:"level"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	// Path overrides the default database location
	// (<root>/.atomloop/atomloop.db).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns a Config with the standard defaults.
func Default() *Config {
	return &Config{
		Focus:     focus.DefaultConfig(),
		Diagnosis: diagnosis.DefaultConfig(),
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load loads configuration from the default locations and environment
// variables. Order: defaults -> ~/.atomloop/config.yaml ->
// <root>/.atomloop/config.yaml -> environment variables.
func Load(root string) (*Config, error) {
	cfg := Default()

	paths := make([]string, 0, 2)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".atomloop", "config.yaml"))
	}
	if root != "" {
		paths = append(paths, filepath.Join(root, ".atomloop", "config.yaml"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := mergeFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file, applied on
// top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := mergeFile(cfg, path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid. Focus weights are
// checked here so a bad config fails at load time, never mid-session.
func (c *Config) Validate() error {
	if err := c.Focus.Validate(); err != nil {
		return err
	}

	validLevels := map[string]bool{"": true, "info": true, "debug": true, "trace": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if c.Diagnosis.StruggleFailureRate < 0 || c.Diagnosis.StruggleFailureRate > 1 {
		return fmt.Errorf("struggle_failure_rate must be between 0 and 1, got %f", c.Diagnosis.StruggleFailureRate)
	}
	if c.Diagnosis.CriticalFailureRate < 0 || c.Diagnosis.CriticalFailureRate > 1 {
		return fmt.Errorf("critical_failure_rate must be between 0 and 1, got %f", c.Diagnosis.CriticalFailureRate)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ATOMLOOP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ATOMLOOP_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("ATOMLOOP_DAILY_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Focus.DailyBudget = n
		}
	}
	if v := os.Getenv("ATOMLOOP_ACTIVATION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Focus.ActivationThreshold = f
		}
	}
	if v := os.Getenv("ATOMLOOP_DECAY_HALF_LIFE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Focus.DecayHalfLifeDays = n
		}
	}
}
