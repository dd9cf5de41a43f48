// Package config reads and writes the YAML run configuration shared by the
// commands.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	simhydro "hydro-terrain/internal/sims/hydrology"
	"hydro-terrain/internal/logging"
)

// Config is the on-disk run configuration.
type Config struct {
	LogLevel string          `yaml:"log_level"`
	Passes   int             `yaml:"passes"`
	World    simhydro.Config `yaml:"world"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Passes:   200,
		World:    simhydro.DefaultConfig(),
	}
}

// Load reads path over the defaults and validates the result. Fields missing
// from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports every out-of-range value.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Passes < 0 {
		errs = append(errs, fmt.Errorf("passes %d is negative", c.Passes))
	}
	w := c.World
	if w.Width < 2 || w.Height < 2 {
		errs = append(errs, fmt.Errorf("world size %dx%d must be at least 2x2", w.Width, w.Height))
	}
	if w.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("cell_size %g must be positive", w.CellSize))
	}
	if err := w.Noise.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := w.Erosion.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Merge copies file values into cfg for every setting whose flag was not set
// explicitly on the command line. explicit holds the flag names that were.
func Merge(cfg, fromFile *Config, explicit map[string]bool) {
	if !explicit["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
	if !explicit["passes"] {
		cfg.Passes = fromFile.Passes
	}
	if !explicit["w"] {
		cfg.World.Width = fromFile.World.Width
	}
	if !explicit["h"] {
		cfg.World.Height = fromFile.World.Height
	}
	cfg.World.CellSize = fromFile.World.CellSize
	if !explicit["seed"] {
		cfg.World.Seed = fromFile.World.Seed
	}
	if !explicit["terrain-seed"] {
		cfg.World.Noise.Seed = fromFile.World.Noise.Seed
	}
	cfg.World.Noise.BaseAmplitude = fromFile.World.Noise.BaseAmplitude
	cfg.World.Noise.BaseFrequency = fromFile.World.Noise.BaseFrequency
	if !explicit["noise"] {
		cfg.World.Noise.Kind = fromFile.World.Noise.Kind
	}
	erosion := fromFile.World.Erosion
	if explicit["preset"] {
		erosion = cfg.World.Erosion
	}
	if explicit["drops"] {
		erosion.DropsPerCycle = cfg.World.Erosion.DropsPerCycle
	}
	if explicit["max-drops"] {
		erosion.MaxDrops = cfg.World.Erosion.MaxDrops
	}
	cfg.World.Erosion = erosion
}
