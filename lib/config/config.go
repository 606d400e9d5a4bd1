// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Taskdeck
// components.
//
// Configuration is loaded from a single YAML file specified by:
//   - TASKDECK_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The config file is
// the single source of truth; environment variables never override
// values. The only expansion performed is ${HOME}-style path
// variables for portability.
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

// Config is the master configuration for the board service.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Service configures the board service socket and claim policy.
	Service ServiceConfig `yaml:"service"`

	// Boards lists the boards to serve. At least one is required.
	Boards []BoardConfig `yaml:"boards"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for Taskdeck data.
	Root string `yaml:"root"`

	// State is where runtime state (history journals) is stored.
	State string `yaml:"state"`

	// Run is where the service socket is created.
	Run string `yaml:"run"`
}

// ServiceConfig configures the board service.
type ServiceConfig struct {
	// SocketPath is the Unix socket the service listens on.
	// Default: ${TASKDECK_ROOT}/run/taskdeck.sock
	SocketPath string `yaml:"socket_path"`

	// ClaimTTL is the claim lease duration, in Go duration syntax.
	// Default: 60m. Claims not completed, unclaimed, or sent to
	// review within this window lapse back to the pool.
	ClaimTTL string `yaml:"claim_ttl"`
}

// BoardConfig describes one board the service maintains.
type BoardConfig struct {
	// Name is the board name used in requests. Required.
	Name string `yaml:"name"`

	// SeedFile is an optional JSONC file of tasks loaded into the
	// board at startup.
	SeedFile string `yaml:"seed_file"`
}

// Default returns the default configuration. These defaults ensure
// all fields have sensible values before the config file is merged
// in; the file itself is still required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "taskdeck")

	return &Config{
		Paths: PathsConfig{
			Root:  defaultRoot,
			State: filepath.Join(defaultRoot, "state"),
			Run:   filepath.Join(defaultRoot, "run"),
		},
		Service: ServiceConfig{
			SocketPath: filepath.Join(defaultRoot, "run", "taskdeck.sock"),
			ClaimTTL:   "60m",
		},
	}
}

// Load loads configuration from the TASKDECK_CONFIG environment
// variable. Fails if it is unset: there are no fallback locations.
func Load() (*Config, error) {
	configPath := os.Getenv("TASKDECK_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("TASKDECK_CONFIG environment variable not set; " +
			"set it to the path of your taskdeck.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"TASKDECK_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["TASKDECK_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Run = expandVars(c.Paths.Run, vars)
	c.Service.SocketPath = expandVars(c.Service.SocketPath, vars)
	for i := range c.Boards {
		c.Boards[i].SeedFile = expandVars(c.Boards[i].SeedFile, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

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

// ClaimTTL parses the configured claim lease duration.
func (c *Config) ClaimTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Service.ClaimTTL)
	if err != nil {
		return 0, fmt.Errorf("service.claim_ttl: %w", err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("service.claim_ttl must be positive, got %s", ttl)
	}
	return ttl, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Service.SocketPath == "" {
		errs = append(errs, fmt.Errorf("service.socket_path is required"))
	}
	if _, err := c.ClaimTTL(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Boards) == 0 {
		errs = append(errs, fmt.Errorf("at least one board is required"))
	}
	seen := make(map[string]bool)
	for i, board := range c.Boards {
		if board.Name == "" {
			errs = append(errs, fmt.Errorf("boards[%d].name is required", i))
			continue
		}
		if seen[board.Name] {
			errs = append(errs, fmt.Errorf("duplicate board name %q", board.Name))
		}
		seen[board.Name] = true
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.State, c.Paths.Run} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
