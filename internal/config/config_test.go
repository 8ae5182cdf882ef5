package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysboard/sysboard/internal/config"
)

// Load parses os.Args; strip the test binary's own flags first.
func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"sysboard"}, args...)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sysboard.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	resetArgs(t)
	t.Setenv("SYSBOARD_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultListen, cfg.Listen, "Expected default listen address")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default log level")
	assert.Equal(t, config.DefaultTopN, cfg.TopN, "Expected default top_processes")
	assert.Equal(t, config.DefaultMaxCores, cfg.MaxCores, "Expected default max_cores")
	assert.Equal(t, config.DefaultQueueSize, cfg.QueueSize, "Expected default queue_size")
	assert.False(t, cfg.History, "Expected history disabled by default")
}

func TestLoadConfigFile(t *testing.T) {
	resetArgs(t)
	configPath := writeConfig(t, `
listen = "0.0.0.0:9000"
log_level = "debug"
top_processes = 10
history = true
history_db = "/tmp/sysboard-test/history.db"

[intervals]
cpu = 5
disk = 30
`)
	t.Setenv("SYSBOARD_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen, "Expected listen 0.0.0.0:9000")
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.Equal(t, 10, cfg.TopN, "Expected TopN 10")
	assert.True(t, cfg.History, "Expected History true")
	assert.Equal(t, "/tmp/sysboard-test/history.db", cfg.HistoryDB)
	assert.Equal(t, 5, cfg.Intervals["cpu"], "Expected cpu interval 5")
	assert.Equal(t, 30, cfg.Intervals["disk"], "Expected disk interval 30")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	resetArgs(t)
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("SYSBOARD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	resetArgs(t)
	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("SYSBOARD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_log_level")
}

func TestInvalidInterval(t *testing.T) {
	resetArgs(t)
	configPath := writeConfig(t, `
[intervals]
cpu = 0
`)
	t.Setenv("SYSBOARD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_interval")
}

func TestInvalidHeartbeat(t *testing.T) {
	resetArgs(t)
	configPath := writeConfig(t, `
heartbeat = 0
`)
	t.Setenv("SYSBOARD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heartbeat")
}

func TestNegativeGrace(t *testing.T) {
	resetArgs(t)
	configPath := writeConfig(t, `
grace = -1
`)
	t.Setenv("SYSBOARD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grace")
}

func TestFlagsOverrideFile(t *testing.T) {
	resetArgs(t, "--log-level", "debug", "--listen", "127.0.0.1:1234")
	configPath := writeConfig(t, `
listen = "0.0.0.0:9000"
log_level = "error"
`)
	t.Setenv("SYSBOARD_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel set by flag")
	assert.Equal(t, "127.0.0.1:1234", cfg.Listen, "Expected listen set by flag")
}
