package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Global.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.Global.LogLevel)
	}
	if cfg.Global.MetricsPort != 9641 {
		t.Errorf("MetricsPort = %d, want 9641", cfg.Global.MetricsPort)
	}
	if cfg.Mount.DefaultLabel != "DATA" {
		t.Errorf("DefaultLabel = %q, want DATA", cfg.Mount.DefaultLabel)
	}
	if cfg.Mount.NameMax != 255 {
		t.Errorf("NameMax = %d, want 255", cfg.Mount.NameMax)
	}
	if cfg.Cache.IOUnitLimit != 0 {
		t.Errorf("IOUnitLimit = %d, want 0 (derived)", cfg.Cache.IOUnitLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hivefs.yaml")
	data := `
global:
  log_level: debug
mount:
  default_label: ROOT
cache:
  io_unit_limit: 256
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Global.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.Global.LogLevel)
	}
	if cfg.Mount.DefaultLabel != "ROOT" {
		t.Errorf("DefaultLabel = %q", cfg.Mount.DefaultLabel)
	}
	if cfg.Cache.IOUnitLimit != 256 {
		t.Errorf("IOUnitLimit = %d", cfg.Cache.IOUnitLimit)
	}
	// Unset fields keep their defaults.
	if cfg.Mount.NameMax != 255 {
		t.Errorf("NameMax = %d, want default 255", cfg.Mount.NameMax)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HIVEFS_LOG_LEVEL", "warn")
	t.Setenv("HIVEFS_DEFAULT_LABEL", "BOOT")
	t.Setenv("HIVEFS_IO_UNIT_LIMIT", "512")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Global.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.Global.LogLevel)
	}
	if cfg.Mount.DefaultLabel != "BOOT" {
		t.Errorf("DefaultLabel = %q", cfg.Mount.DefaultLabel)
	}
	if cfg.Cache.IOUnitLimit != 512 {
		t.Errorf("IOUnitLimit = %d", cfg.Cache.IOUnitLimit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Configuration)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Configuration) {}, ok: true},
		{name: "bad log level", mutate: func(c *Configuration) { c.Global.LogLevel = "verbose" }},
		{name: "empty label", mutate: func(c *Configuration) { c.Mount.DefaultLabel = "" }},
		{name: "zero name max", mutate: func(c *Configuration) { c.Mount.NameMax = 0 }},
		{name: "limit below floor", mutate: func(c *Configuration) { c.Cache.IOUnitLimit = 1 }},
		{name: "limit above ceiling", mutate: func(c *Configuration) { c.Cache.IOUnitLimit = IOUnitLimitMax + 1 }},
		{name: "limit in range", mutate: func(c *Configuration) { c.Cache.IOUnitLimit = 4096 }, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEffectiveIOUnitLimit(t *testing.T) {
	cfg := Default()
	cfg.Cache.IOUnitLimit = 777
	if got := cfg.EffectiveIOUnitLimit(); got != 777 {
		t.Fatalf("override ignored: %d", got)
	}

	cfg.Cache.IOUnitLimit = 0
	derived := cfg.EffectiveIOUnitLimit()
	if derived < IOUnitLimitMin || derived > IOUnitLimitMax {
		t.Fatalf("derived limit %d outside [%d, %d]", derived, IOUnitLimitMin, IOUnitLimitMax)
	}
}
