package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, time.Hour, cfg.History)
	assert.True(t, cfg.ArchiveEnabled)
	assert.Equal(t, ".", cfg.ArchiveDir)
	assert.Equal(t, 10*time.Minute, cfg.ArchiveInterval())
	assert.Equal(t, []string{"loop", "sr", "ram"}, cfg.BlockDeviceExcludePrefixes)
	assert.Equal(t, []string{"lo"}, cfg.NetworkDeviceExcludePrefixes)
	assert.Empty(t, cfg.PreloadArchives)
	assert.Equal(t, "/proc", cfg.ProcPath)
	assert.Equal(t, "127.0.0.1:7443", cfg.ProbeListenAddr)
	assert.Empty(t, cfg.MetricsListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3600, cfg.HistoryCapacity())
}

func TestLoadFile_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PROCSTAT_POLL_INTERVAL", "5s")
	t.Setenv("PROCSTAT_ARCHIVE_ENABLED", "false")
	t.Setenv("PROCSTAT_ARCHIVE_INTERVAL_MINUTES", "1")
	t.Setenv("PROCSTAT_BLOCKDEVICE_EXCLUDE_PREFIXES", "dm-")
	t.Setenv("PROCSTAT_PRELOAD_ARCHIVES", "a, b,,c")
	t.Setenv("PROCSTAT_LOG_LEVEL", "DEBUG")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.False(t, cfg.ArchiveEnabled)
	assert.Equal(t, time.Minute, cfg.ArchiveInterval())
	assert.Equal(t, []string{"dm-"}, cfg.BlockDeviceExcludePrefixes)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.PreloadArchives)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 720, cfg.HistoryCapacity())
}

func TestLoadFile_YAMLThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procstat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
poll_interval: 2s
history_size: 50
archive_dir: /var/lib/procstat
archive_retention: 72h
log_json: true
`), 0o644))
	t.Setenv("PROCSTAT_ARCHIVE_DIR", "/tmp/override")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 50, cfg.HistoryCapacity())
	assert.Equal(t, "/tmp/override", cfg.ArchiveDir)
	assert.Equal(t, 72*time.Hour, cfg.ArchiveRetention)
	assert.True(t, cfg.LogJSON)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := LoadFile("")
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"poll interval", func(c *Config) { c.PollInterval = 0 }, "poll_interval"},
		{"archive interval", func(c *Config) { c.ArchiveIntervalMinutes = 0 }, "archive_interval_minutes"},
		{"archive dir", func(c *Config) { c.ArchiveDir = " " }, "archive_dir"},
		{"history", func(c *Config) { c.History = 0 }, "history"},
		{"retention", func(c *Config) { c.ArchiveRetention = time.Hour; c.ArchivePruneSchedule = "" }, "archive_prune_schedule"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdown_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestHistoryCapacity_RoundsUp(t *testing.T) {
	cfg := Config{PollInterval: 7 * time.Second, History: time.Minute}
	assert.Equal(t, 9, cfg.HistoryCapacity())

	cfg = Config{PollInterval: time.Hour, History: time.Second}
	assert.Equal(t, 1, cfg.HistoryCapacity())
}

func TestArchiveIntervalAligned(t *testing.T) {
	assert.True(t, Config{ArchiveIntervalMinutes: 15}.ArchiveIntervalAligned())
	assert.False(t, Config{ArchiveIntervalMinutes: 7}.ArchiveIntervalAligned())
}
