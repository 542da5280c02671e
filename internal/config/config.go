// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsboard Contributors

// Package config loads Opsboard configuration from defaults, an optional
// YAML file and command-line flags, in that order of precedence.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/opsboard/opsboard/internal/xdg"
)

// Config is the process-wide configuration. Secrets are explicit fields;
// nothing in the core reads the ambient environment directly.
type Config struct {
	DatabaseURL  string        `koanf:"database_url"`
	TokenSecret  string        `koanf:"token_secret"`
	MetricsAddr  string        `koanf:"metrics_addr"`
	ReapInterval time.Duration `koanf:"reap_interval"`
	Log          Log           `koanf:"log"`
	Lockout      Lockout       `koanf:"lockout"`
}

// Log configures the structured logger.
type Log struct {
	Format string `koanf:"format"` // "json" or "text"
	Level  string `koanf:"level"`  // debug, info, warn, error
}

// Lockout configures the brute-force defense policy.
type Lockout struct {
	MaxFailedAttempts int           `koanf:"max_failed_attempts"`
	LockDuration      time.Duration `koanf:"lock_duration"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		MetricsAddr:  "127.0.0.1:9100",
		ReapInterval: 15 * time.Minute,
		Log: Log{
			Format: "json",
			Level:  "info",
		},
		Lockout: Lockout{
			MaxFailedAttempts: 5,
			LockDuration:      30 * time.Minute,
		},
	}
}

// Load builds the configuration. path points to a YAML file; when empty,
// the default XDG location is used if it exists. flags, when non-nil, are
// bound last and win over file values.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	explicit := path != ""
	if path == "" {
		path = xdg.ConfigFile()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	} else if explicit {
		return nil, oops.Code("CONFIG_FILE_MISSING").With("path", path).Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	return cfg, nil
}

// Validate checks that fields every command needs are present and sane.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be 'json' or 'text'")
	}
	if c.Lockout.MaxFailedAttempts < 1 {
		return oops.Code("CONFIG_INVALID").Errorf("lockout.max_failed_attempts must be at least 1")
	}
	if c.Lockout.LockDuration <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("lockout.lock_duration must be positive")
	}
	return nil
}

// RequireTokenSecret validates the signing secret for commands that mint
// or verify tokens.
func (c *Config) RequireTokenSecret() error {
	if c.TokenSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("token_secret is required")
	}
	return nil
}
