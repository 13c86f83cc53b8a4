package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variable names. The secret is environment-only; tenant and
// client IDs may come from either the file or the environment, with the
// environment winning.
const (
	EnvTenantID     = "HOLDCTL_TENANT_ID"
	EnvClientID     = "HOLDCTL_CLIENT_ID"
	EnvClientSecret = "HOLDCTL_CLIENT_SECRET"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Load reads and parses a TOML config file, applies environment overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with defaults plus environment overrides. Supports the
// zero-config case where everything comes from flags and environment.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		applyEnv(cfg)

		return cfg, nil
	}

	return Load(path)
}

// applyEnv overlays environment variables on the loaded config.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvTenantID); v != "" {
		cfg.Auth.TenantID = v
	}

	if v := os.Getenv(EnvClientID); v != "" {
		cfg.Auth.ClientID = v
	}
}

// ClientSecret returns the client secret from the environment. The secret
// is never stored on Config and never read from the config file.
func ClientSecret() string {
	return os.Getenv(EnvClientSecret)
}

// Validate checks a Config for values that would misbehave at runtime.
func Validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}

	if cfg.API.Timeout != "" {
		if _, err := time.ParseDuration(cfg.API.Timeout); err != nil {
			return fmt.Errorf("api.timeout: %w", err)
		}
	}

	if cfg.Run.BatchSize < 0 {
		return errors.New("run.batch_size must not be negative")
	}

	if cfg.Run.Concurrency < 0 {
		return errors.New("run.concurrency must not be negative")
	}

	if cfg.Run.MaxErrors < 0 {
		return errors.New("run.max_errors must not be negative")
	}

	if !slices.Contains(validLogLevels, cfg.Logging.LogLevel) {
		return fmt.Errorf("logging.log_level must be one of %v, got %q", validLogLevels, cfg.Logging.LogLevel)
	}

	return nil
}
