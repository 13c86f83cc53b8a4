package config

import "time"

// Default values for configuration options, the bottom layer of the
// override chain. Chosen so a bare config file with only [auth] filled in
// produces a safe run.
const (
	defaultBaseURL            = "https://outlook.office365.com/adminapi/v1.0"
	defaultAPITimeout         = "30s"
	defaultAPITimeoutDuration = 30 * time.Second
	defaultMaxErrors          = 10
	defaultReportDir          = "reports"
	defaultHistoryDB          = "holdctl-history.db"
	defaultLogLevel           = "info"
)

// DefaultConfig returns a Config populated with all default values. Used
// both as the starting point for TOML decoding (unset fields retain
// defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultAPITimeout,
		},
		Run: RunConfig{
			MaxErrors: defaultMaxErrors,
			ReportDir: defaultReportDir,
			HistoryDB: defaultHistoryDB,
		},
		Logging: LoggingConfig{
			LogLevel: defaultLogLevel,
		},
	}
}
