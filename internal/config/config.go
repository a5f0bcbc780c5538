// Package config loads hvml.toml, the per-process manifest naming an
// instance's endpoint and logging preferences, and applies the
// PURC_LOG_ENABLE / PURC_LOG_SYSLOG / TZ environment overrides over it.
// Grounded on the teacher's manifest package (maggie.toml via
// BurntSushi/toml), generalized from project metadata to instance
// bootstrap settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

const manifestName = "hvml.toml"

// Config is hvml.toml's decoded shape plus the directory it was loaded
// from.
type Config struct {
	Instance Instance `toml:"instance"`
	Log      Log      `toml:"log"`
	Queue    Queue    `toml:"queue"`
	Timezone string   `toml:"timezone"`

	// Dir is the directory hvml.toml was found in, set at load time.
	Dir string `toml:"-"`
}

// Instance names the endpoint an InitEx call should bind.
type Instance struct {
	Host   string `toml:"host"`
	App    string `toml:"app"`
	Runner string `toml:"runner"`
}

// Log mirrors the PURC_LOG_ENABLE / PURC_LOG_SYSLOG environment knobs
// spec.md §6 names, settable from the manifest and overridable from the
// environment.
type Log struct {
	Enable bool `toml:"enable"`
	Syslog bool `toml:"syslog"`
}

// Queue carries the move-buffer limit handed to InitEx as Options.QueueMax,
// which is recorded with the endpoint but not enforced.
type Queue struct {
	Max int `toml:"max"`
}

// Load parses hvml.toml from dir, applies defaults for anything the file
// left unset, then applies environment overrides.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, manifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	cfg.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// FindAndLoad walks up from startDir looking for hvml.toml, the way the
// teacher's manifest.FindAndLoad walks up for maggie.toml. If none is
// found by the filesystem root, it returns a default Config (with
// environment overrides still applied) rather than an error, since a
// manifest is convenience, not a hard requirement, for a bare InitEx call.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, manifestName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			cfg := &Config{}
			applyDefaults(cfg)
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		dir = parent
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Instance.Host == "" {
		cfg.Instance.Host = "localhost"
	}
	if cfg.Instance.App == "" {
		cfg.Instance.App = "cn.fmsoft.hvml.sample"
	}
	if cfg.Instance.Runner == "" {
		cfg.Instance.Runner = "main"
	}
}

// applyEnvOverrides reads PURC_LOG_ENABLE, PURC_LOG_SYSLOG, and TZ per
// spec.md §6, each overriding whatever the manifest (or defaults) set,
// only when actually present in the environment.
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("PURC_LOG_ENABLE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Enable = b
		}
	}
	if v, ok := os.LookupEnv("PURC_LOG_SYSLOG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Syslog = b
		}
	}
	if v, ok := os.LookupEnv("TZ"); ok && v != "" {
		cfg.Timezone = v
	}
}
