package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "PROCSTAT_"
	// EnvConfigFile names an optional YAML file layered between defaults and environment.
	EnvConfigFile = EnvPrefix + "CONFIG"
)

type Config struct {
	PollInterval                 time.Duration `koanf:"poll_interval"`
	History                      time.Duration `koanf:"history"`
	HistorySize                  int           `koanf:"history_size"`
	ArchiveEnabled               bool          `koanf:"archive_enabled"`
	ArchiveDir                   string        `koanf:"archive_dir"`
	ArchiveIntervalMinutes       int           `koanf:"archive_interval_minutes"`
	ArchiveRetention             time.Duration `koanf:"archive_retention"`
	ArchivePruneSchedule         string        `koanf:"archive_prune_schedule"`
	PreloadArchives              []string      `koanf:"preload_archives"`
	ProcPath                     string        `koanf:"proc_path"`
	SysPath                      string        `koanf:"sys_path"`
	BlockDeviceExcludePrefixes   []string      `koanf:"blockdevice_exclude_prefixes"`
	NetworkDeviceExcludePrefixes []string      `koanf:"networkdevice_exclude_prefixes"`
	UnavailableRecheck           time.Duration `koanf:"unavailable_recheck"`
	CollectorErrorBackoff        time.Duration `koanf:"collector_error_backoff"`
	LibvirtURI                   string        `koanf:"libvirt_uri"`
	ProbeListenAddr              string        `koanf:"probe_listen_addr"`
	MetricsListenAddr            string        `koanf:"metrics_listen_addr"`
	ShutdownTimeout              time.Duration `koanf:"shutdown_timeout"`
	LogLevel                     string        `koanf:"log_level"`
	LogJSON                      bool          `koanf:"log_json"`
}

func defaults() map[string]any {
	return map[string]any{
		"poll_interval":                  "1s",
		"history":                        "1h",
		"history_size":                   0,
		"archive_enabled":                true,
		"archive_dir":                    ".",
		"archive_interval_minutes":       10,
		"archive_retention":              "0s",
		"archive_prune_schedule":         "@every 1h",
		"preload_archives":               "",
		"proc_path":                      "/proc",
		"sys_path":                       "/sys",
		"blockdevice_exclude_prefixes":   "loop,sr,ram",
		"networkdevice_exclude_prefixes": "lo",
		"unavailable_recheck":            "10m",
		"collector_error_backoff":        "1500ms",
		"libvirt_uri":                    "",
		"probe_listen_addr":              "127.0.0.1:7443",
		"metrics_listen_addr":            "",
		"shutdown_timeout":               "10s",
		"log_level":                      "info",
		"log_json":                       false,
	}
}

// Load layers compiled defaults, the YAML file named by PROCSTAT_CONFIG and PROCSTAT_*
// environment variables, in that order.
func Load() (Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv(EnvConfigFile)))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file layer.
func LoadFile(path string) (Config, error) {
	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.PreloadArchives = cleanList(c.PreloadArchives)
	c.BlockDeviceExcludePrefixes = cleanList(c.BlockDeviceExcludePrefixes)
	c.NetworkDeviceExcludePrefixes = cleanList(c.NetworkDeviceExcludePrefixes)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be > 0")
	}
	if c.HistorySize < 0 {
		return errors.New("history_size must be >= 0")
	}
	if c.HistorySize == 0 && c.History <= 0 {
		return errors.New("history must be > 0 when history_size is not set")
	}
	if c.ArchiveIntervalMinutes <= 0 {
		return errors.New("archive_interval_minutes must be > 0")
	}
	if c.ArchiveEnabled && strings.TrimSpace(c.ArchiveDir) == "" {
		return errors.New("archive_dir is required when archiving is enabled")
	}
	if c.ArchiveRetention < 0 {
		return errors.New("archive_retention must be >= 0")
	}
	if c.ArchiveRetention > 0 && strings.TrimSpace(c.ArchivePruneSchedule) == "" {
		return errors.New("archive_prune_schedule is required when archive_retention is set")
	}
	if strings.TrimSpace(c.ProcPath) == "" {
		return errors.New("proc_path is required")
	}
	if strings.TrimSpace(c.SysPath) == "" {
		return errors.New("sys_path is required")
	}
	if c.UnavailableRecheck <= 0 {
		return errors.New("unavailable_recheck must be > 0")
	}
	if c.CollectorErrorBackoff < 0 {
		return errors.New("collector_error_backoff must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q", c.LogLevel)
	}
	return nil
}

// HistoryCapacity is the per-domain ring size: history_size when set, otherwise enough
// poll intervals to cover history.
func (c Config) HistoryCapacity() int {
	if c.HistorySize > 0 {
		return c.HistorySize
	}
	n := int(c.History / c.PollInterval)
	if c.History%c.PollInterval != 0 {
		n++
	}
	if n < 1 {
		return 1
	}
	return n
}

func (c Config) ArchiveInterval() time.Duration {
	return time.Duration(c.ArchiveIntervalMinutes) * time.Minute
}

// ArchiveIntervalAligned reports whether buckets line up with the hour.
func (c Config) ArchiveIntervalAligned() bool {
	return c.ArchiveIntervalMinutes > 0 && 60%c.ArchiveIntervalMinutes == 0
}
