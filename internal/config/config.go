package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pbnjay/memory"
	"gopkg.in/yaml.v2"
)

// Limits on the cached-I/O-unit soft cap. The derived default is
// clamped into this range; an explicit override is validated against
// it.
const (
	IOUnitLimitMin = 64
	IOUnitLimitMax = 100000
)

// Configuration is the complete lifecycle-core configuration.
type Configuration struct {
	Global GlobalConfig `yaml:"global"`
	Mount  MountConfig  `yaml:"mount"`
	Cache  CacheConfig  `yaml:"cache"`
}

// GlobalConfig holds process-wide settings.
type GlobalConfig struct {
	LogLevel    string `yaml:"log_level"`
	MetricsPort int    `yaml:"metrics_port"`
}

// MountConfig holds mount-orchestration settings.
type MountConfig struct {
	// DefaultLabel is mounted when a device spec carries no @LABEL.
	DefaultLabel string `yaml:"default_label"`
	// NameMax bounds label and entry name length.
	NameMax uint32 `yaml:"name_max"`
}

// CacheConfig holds cache-bookkeeping settings.
type CacheConfig struct {
	// IOUnitLimit is the process-wide soft cap on resident cached
	// I/O units. Zero derives it from system memory at startup.
	IOUnitLimit int `yaml:"io_unit_limit"`
}

// Default returns the built-in configuration.
func Default() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel:    "info",
			MetricsPort: 9641,
		},
		Mount: MountConfig{
			DefaultLabel: "DATA",
			NameMax:      255,
		},
		Cache: CacheConfig{
			IOUnitLimit: 0,
		},
	}
}

// Load reads a yaml configuration file, layers it over the defaults,
// applies environment overrides and validates the result.
func Load(path string) (*Configuration, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers HIVEFS_* environment overrides over the file values.
func (c *Configuration) applyEnv() {
	if v := os.Getenv("HIVEFS_LOG_LEVEL"); v != "" {
		c.Global.LogLevel = v
	}
	if v := os.Getenv("HIVEFS_DEFAULT_LABEL"); v != "" {
		c.Mount.DefaultLabel = v
	}
	if v := os.Getenv("HIVEFS_IO_UNIT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.IOUnitLimit = n
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Configuration) Validate() error {
	switch c.Global.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Global.LogLevel)
	}
	if c.Mount.DefaultLabel == "" {
		return fmt.Errorf("default label must not be empty")
	}
	if c.Mount.NameMax == 0 {
		return fmt.Errorf("name_max must be positive")
	}
	if c.Cache.IOUnitLimit != 0 &&
		(c.Cache.IOUnitLimit < IOUnitLimitMin || c.Cache.IOUnitLimit > IOUnitLimitMax) {
		return fmt.Errorf("io_unit_limit %d outside [%d, %d]",
			c.Cache.IOUnitLimit, IOUnitLimitMin, IOUnitLimitMax)
	}
	return nil
}

// EffectiveIOUnitLimit resolves the soft cap: the explicit override if
// set, otherwise a third of system memory divided into 64KiB units,
// clamped.
func (c *Configuration) EffectiveIOUnitLimit() int {
	if c.Cache.IOUnitLimit != 0 {
		return c.Cache.IOUnitLimit
	}
	derived := int(memory.TotalMemory() / 3 / (64 * 1024))
	if derived < IOUnitLimitMin {
		derived = IOUnitLimitMin
	}
	if derived > IOUnitLimitMax {
		derived = IOUnitLimitMax
	}
	return derived
}
