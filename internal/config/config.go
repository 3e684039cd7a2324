// Package config loads the daemon's configuration from an optional YAML
// file with environment-variable overrides on top.
//
// Precedence, lowest to highest: built-in defaults → config file → env.
// The one setting that actually matters for security is StorePath: when
// it is missing or points nowhere, the server still starts, but with a
// disabled backend that refuses every call — fail closed, never open.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the daemon needs at startup.
type Config struct {
	// Port the HTTP API listens on.
	Port int `yaml:"port"`

	// StorePath is the filesystem path to the game server's SQLite
	// account database. Read-only; the file is never created here.
	StorePath string `yaml:"store_path"`

	// SessionSecret signs the host's session tokens (HS256).
	SessionSecret string `yaml:"session_secret"`

	// SessionTTL is the session token lifetime.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:       8080,
		SessionTTL: 15 * time.Minute,
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped silently when path is empty, an error when a given path is
// unreadable or malformed), then environment overrides.
//
// Env variables: PORT, STORE_PATH, SESSION_SECRET, SESSION_TTL (Go
// duration syntax, e.g. "30m").
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: invalid port %d", cfg.Port)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = Default().SessionTTL
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid SESSION_TTL %q", v)
		}
		cfg.SessionTTL = ttl
	}
	return nil
}

// ErrNoStorePath reports that no account database was configured.
var ErrNoStorePath = errors.New("config: no store path configured")

// RequireStorePath validates that a store path is configured and points
// at an existing file. Callers that can run degraded (disabled backend)
// check this and log; callers that cannot, fail startup.
func (c Config) RequireStorePath() error {
	if c.StorePath == "" {
		return ErrNoStorePath
	}
	if _, err := os.Stat(c.StorePath); err != nil {
		return fmt.Errorf("config: store path: %w", err)
	}
	return nil
}
