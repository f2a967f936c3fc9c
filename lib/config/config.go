// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for sum components.
//
// Configuration is loaded from a single file specified by:
//   - SUM_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// The config file may contain a production section that overrides
// base values when the environment is production.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development and integration tests.
	Development Environment = "development"
	// Production is for real agent/master deployments.
	Production Environment = "production"
)

// Config is the master configuration for a sum-embedding process.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Checkpoint configures where and how stream checkpoint logs are
	// stored.
	Checkpoint CheckpointConfig `yaml:"checkpoint"`

	// Retry configures the bounded exponential backoff used by the
	// retry scheduler.
	Retry RetryConfig `yaml:"retry"`

	// Production contains overrides applied when Environment ==
	// Production.
	Production *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Checkpoint *CheckpointConfig `yaml:"checkpoint,omitempty"`
	Retry      *RetryConfig      `yaml:"retry,omitempty"`
}

// CheckpointConfig configures the on-disk checkpoint log layout.
type CheckpointConfig struct {
	// Root is the base directory under which per-stream checkpoint
	// files are created. A concrete path-for-stream-id function joins
	// a stream's identifier onto this root; the manager itself treats
	// path resolution as an injected collaborator.
	Root string `yaml:"root"`

	// Enabled is the default checkpoint flag used by callers that
	// don't decide per-update whether to persist. Individual update()
	// calls may still override this per stream.
	Enabled bool `yaml:"enabled"`
}

// RetryConfig configures the bounded exponential backoff applied to
// unacknowledged updates at the head of a stream's pending queue.
type RetryConfig struct {
	// Min is the initial and post-ack retry interval.
	Min time.Duration `yaml:"min"`

	// Max caps the exponential backoff.
	Max time.Duration `yaml:"max"`
}

// Default returns the default configuration. These defaults exist
// primarily to ensure all fields have sensible zero-values, not as a
// fallback — the config file is required in production use.
func Default() *Config {
	homeDirectory, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Checkpoint: CheckpointConfig{
			Root:    filepath.Join(homeDirectory, ".cache", "sum", "checkpoints"),
			Enabled: true,
		},
		Retry: RetryConfig{
			Min: 10 * time.Second,
			Max: 10 * time.Minute,
		},
	}
}

// Load loads configuration from the SUM_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults — if SUM_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("SUM_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SUM_CONFIG environment variable not set; " +
			"set it to the path of your sum.yaml config file, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values — this ensures deterministic,
// auditable configuration. The only expansion performed is ${HOME} and
// similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the production overrides section
// when Environment == Production.
func (c *Config) applyEnvironmentOverrides() {
	if c.Environment != Production || c.Production == nil {
		return
	}

	overrides := c.Production
	if overrides.Checkpoint != nil {
		if overrides.Checkpoint.Root != "" {
			c.Checkpoint.Root = overrides.Checkpoint.Root
		}
		// Enabled is a bool, always applied from overrides.
		c.Checkpoint.Enabled = overrides.Checkpoint.Enabled
	}
	if overrides.Retry != nil {
		if overrides.Retry.Min > 0 {
			c.Retry.Min = overrides.Retry.Min
		}
		if overrides.Retry.Max > 0 {
			c.Retry.Max = overrides.Retry.Max
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Checkpoint.Root = expandVars(c.Checkpoint.Root, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Checkpoint.Root == "" {
		errs = append(errs, fmt.Errorf("checkpoint.root is required"))
	}
	if c.Retry.Min <= 0 {
		errs = append(errs, fmt.Errorf("retry.min must be positive"))
	}
	if c.Retry.Max < c.Retry.Min {
		errs = append(errs, fmt.Errorf("retry.max must be >= retry.min"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsureCheckpointRoot creates the checkpoint root directory if it
// doesn't already exist.
func (c *Config) EnsureCheckpointRoot() error {
	if c.Checkpoint.Root == "" {
		return nil
	}
	if err := os.MkdirAll(c.Checkpoint.Root, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Checkpoint.Root, err)
	}
	return nil
}

// PathForStream returns the checkpoint file path for a given stream
// id, joined onto Checkpoint.Root. This is a ready-made PathFunc
// (see the manager package) for embedders that want one checkpoint
// file per stream directly under the configured root.
func (c *Config) PathForStream(streamID string) string {
	return filepath.Join(c.Checkpoint.Root, streamID+".log")
}
