// Package config implements TOML configuration loading, validation, and
// the license-eligibility table for holdctl. Layering is defaults ->
// config file -> environment -> CLI flags; flags always win.
package config

import "time"

// Config is the top-level structure parsed from a TOML file.
type Config struct {
	Auth    AuthConfig    `toml:"auth"`
	API     APIConfig     `toml:"api"`
	Run     RunConfig     `toml:"run"`
	Logging LoggingConfig `toml:"logging"`
}

// AuthConfig identifies the app registration. The client secret is never
// read from the config file; it comes from the environment so the file can
// live in configuration management.
type AuthConfig struct {
	TenantID string `toml:"tenant_id"`
	ClientID string `toml:"client_id"`
}

// APIConfig controls the HTTP client.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// RunConfig controls the bulk operation. Zero values for batch_size and
// concurrency mean "let the advisor decide from the population size".
type RunConfig struct {
	BatchSize         int    `toml:"batch_size"`
	Concurrency       int    `toml:"concurrency"`
	MaxErrors         int    `toml:"max_errors"`
	ContinueOnErrors  bool   `toml:"continue_on_errors"`
	MemoryHintMB      int    `toml:"memory_hint_mb"`
	BandwidthHintMbps int    `toml:"bandwidth_hint_mbps"`
	ReportDir         string `toml:"report_dir"`
	HistoryDB         string `toml:"history_db"`
	LicensesFile      string `toml:"licenses_file"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel string `toml:"log_level"`
}

// APITimeout returns the parsed request timeout. Validate rejects
// malformed values, so the default fallback only covers callers that
// bypassed validation.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return defaultAPITimeoutDuration
	}

	return d
}
