// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Data       DataConfig       `toml:"data"`
	Plan       PlanConfig       `toml:"plan"`
	Stats      StatsConfig      `toml:"stats"`
	Curriculum CurriculumConfig `toml:"curriculum"`
}

// DataConfig maps storage settings.
type DataConfig struct {
	DB *string `toml:"db"`
}

// PlanConfig maps study plan settings.
type PlanConfig struct {
	Sequential *bool `toml:"sequential"`
}

// StatsConfig maps report settings.
type StatsConfig struct {
	Weeks *int  `toml:"weeks"`
	Color *bool `toml:"color"`
}

// CurriculumConfig maps curriculum file settings.
type CurriculumConfig struct {
	File *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// DBPath returns the configured database path or the default one.
func (c FileConfig) DBPath() string {
	if c.Data.DB != nil && *c.Data.DB != "" {
		return *c.Data.DB
	}
	return DefaultDBPath()
}
