package hydrology

import (
	"strconv"

	"hydro-terrain/internal/hydrology"
	"hydro-terrain/internal/terrain"
)

// Config controls the terrain grid, its noise and the erosion budget.
type Config struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	CellSize float32 `yaml:"cell_size"`

	// Seed drives droplet spawn positions. Terrain shape is set by Noise.Seed.
	Seed int64 `yaml:"seed"`

	Noise   terrain.NoiseConfig `yaml:"noise"`
	Erosion hydrology.Config    `yaml:"erosion"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:    256,
		Height:   256,
		CellSize: 1,
		Seed:     42,
		Noise:    terrain.DefaultNoiseConfig(),
		Erosion:  hydrology.DefaultConfig(),
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Erosion keys match hydrology.Fields and are clamped into range.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["preset"]; ok {
		if preset, err := hydrology.Preset(v); err == nil {
			c.Erosion = preset
		}
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["cell_size"]; ok {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil && parsed > 0 {
			c.CellSize = float32(parsed)
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["terrain_seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Noise.Seed = min(max(parsed, terrain.SeedMin), terrain.SeedMax)
		}
	}
	if v, ok := cfg["base_amplitude"]; ok {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			c.Noise.BaseAmplitude = float32(min(max(parsed, terrain.AmplitudeMin), terrain.AmplitudeMax))
		}
	}
	if v, ok := cfg["base_frequency"]; ok {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			c.Noise.BaseFrequency = float32(min(max(parsed, terrain.FrequencyMin), terrain.FrequencyMax))
		}
	}
	if v, ok := cfg["noise"]; ok {
		if _, err := terrain.NewPrimitive(terrain.NoiseKind(v), 0); err == nil {
			c.Noise.Kind = terrain.NoiseKind(v)
		}
	}
	for _, f := range hydrology.Fields() {
		v, ok := cfg[f.Key]
		if !ok {
			continue
		}
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.Erosion.Set(f.Key, parsed)
		}
	}
	return c
}
