package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewH15/BulkLitigationHoldManager/internal/config"
)

// Flag globals are bound by newRootCmd(), which resets them to zero values.
// Tests set globals after building the command, or let Cobra parse args.

func saveRootFlags(t *testing.T) {
	t.Helper()

	oldVerbose := flagVerbose
	oldQuiet := flagQuiet
	oldConfig := flagConfigPath

	t.Cleanup(func() {
		flagVerbose = oldVerbose
		flagQuiet = oldQuiet
		flagConfigPath = oldConfig
	})
}

func TestBuildLoggerDefault(t *testing.T) {
	saveRootFlags(t)

	flagVerbose = false
	flagQuiet = false

	logger := buildLogger(config.DefaultConfig())

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLoggerConfigLevel(t *testing.T) {
	saveRootFlags(t)

	flagVerbose = false
	flagQuiet = false

	cfg := config.DefaultConfig()
	cfg.Logging.LogLevel = "warn"

	logger := buildLogger(cfg)

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
}

func TestBuildLoggerVerboseWins(t *testing.T) {
	saveRootFlags(t)

	flagVerbose = true
	flagQuiet = false

	cfg := config.DefaultConfig()
	cfg.Logging.LogLevel = "error"

	logger := buildLogger(cfg)

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLoggerQuiet(t *testing.T) {
	saveRootFlags(t)

	flagVerbose = false
	flagQuiet = true

	logger := buildLogger(config.DefaultConfig())

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelError))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
}

func TestBuildLoggerNilConfig(t *testing.T) {
	saveRootFlags(t)

	flagVerbose = false
	flagQuiet = false

	logger := buildLogger(nil)

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
}

func TestNewRootCmdSubcommands(t *testing.T) {
	cmd := newRootCmd()

	require.Equal(t, "holdctl", cmd.Use)
	assert.True(t, cmd.SilenceErrors)
	assert.True(t, cmd.SilenceUsage)

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Contains(t, names, "run")
	assert.Contains(t, names, "advise")
	assert.Contains(t, names, "licenses")
	assert.Contains(t, names, "history")
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	saveRootFlags(t)

	flagConfigPath = t.TempDir() + "/nonexistent.toml"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().API.BaseURL, cfg.API.BaseURL)
}
