package hydrology

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Config holds droplet physics constants and the drop budget.
type Config struct {
	DT             float32 `yaml:"dt"`
	Density        float32 `yaml:"density"`
	EvapRate       float32 `yaml:"evap_rate"`
	DepositionRate float32 `yaml:"deposition_rate"`
	MinVolume      float32 `yaml:"min_volume"`
	Friction       float32 `yaml:"friction"`
	DropsPerCycle  int     `yaml:"drops_per_cycle"`
	MaxDrops       int     `yaml:"max_drops"`

	// TotalDropsIssued counts droplets issued across passes. It is runtime
	// state and never persisted.
	TotalDropsIssued int `yaml:"-"`
}

// DefaultConfig returns the standard erosion parameters.
func DefaultConfig() Config {
	return Config{
		DT:             1.2,
		Density:        1.0,
		EvapRate:       0.001,
		DepositionRate: 0.1,
		MinVolume:      0.05,
		Friction:       0.05,
		DropsPerCycle:  1000,
		MaxDrops:       200_000,
	}
}

// SubtleErosion weathers terrain lightly: fewer, short-lived droplets that
// carry little sediment.
func SubtleErosion() Config {
	c := DefaultConfig()
	c.EvapRate = 0.005
	c.DepositionRate = 0.03
	c.Friction = 0.1
	c.DropsPerCycle = 400
	c.MaxDrops = 60_000
	return c
}

// HeavyErosion carves deep channels with long-lived droplets.
func HeavyErosion() Config {
	c := DefaultConfig()
	c.DT = 1.5
	c.EvapRate = 0.0005
	c.DepositionRate = 0.3
	c.Friction = 0.02
	c.DropsPerCycle = 2048
	c.MaxDrops = 400_000
	return c
}

var presets = map[string]func() Config{
	"default": DefaultConfig,
	"subtle":  SubtleErosion,
	"heavy":   HeavyErosion,
}

// Preset returns the named configuration.
func Preset(name string) (Config, error) {
	f, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("hydrology: unknown preset %q (have %v)", name, PresetNames())
	}
	return f(), nil
}

// PresetNames lists the available presets in lexical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exhausted reports whether the drop budget is spent.
func (c Config) Exhausted() bool { return c.TotalDropsIssued >= c.MaxDrops }

// Remaining returns how many droplets may still be issued.
func (c Config) Remaining() int { return max(c.MaxDrops-c.TotalDropsIssued, 0) }

// Field describes one tunable Config value and its allowed range.
type Field struct {
	Key   string
	Label string
	Int   bool
	Min   float64
	Max   float64
	Step  float64

	get func(*Config) float64
	set func(*Config, float64)
}

var fields = []Field{
	{Key: "dt", Label: "Time step", Min: 0.01, Max: 2.0, Step: 0.05,
		get: func(c *Config) float64 { return float64(c.DT) },
		set: func(c *Config, v float64) { c.DT = float32(v) }},
	{Key: "density", Label: "Density", Min: 0.1, Max: 3.0, Step: 0.1,
		get: func(c *Config) float64 { return float64(c.Density) },
		set: func(c *Config, v float64) { c.Density = float32(v) }},
	{Key: "deposition_rate", Label: "Deposition rate", Min: 0.01, Max: 1.0, Step: 0.01,
		get: func(c *Config) float64 { return float64(c.DepositionRate) },
		set: func(c *Config, v float64) { c.DepositionRate = float32(v) }},
	{Key: "evap_rate", Label: "Evaporation rate", Min: 0.0001, Max: 0.01, Step: 0.0001,
		get: func(c *Config) float64 { return float64(c.EvapRate) },
		set: func(c *Config, v float64) { c.EvapRate = float32(v) }},
	{Key: "friction", Label: "Friction", Min: 0.005, Max: 0.5, Step: 0.005,
		get: func(c *Config) float64 { return float64(c.Friction) },
		set: func(c *Config, v float64) { c.Friction = float32(v) }},
	{Key: "drops_per_cycle", Label: "Drops per cycle", Int: true, Min: 0, Max: 2048, Step: 64,
		get: func(c *Config) float64 { return float64(c.DropsPerCycle) },
		set: func(c *Config, v float64) { c.DropsPerCycle = int(math.Round(v)) }},
	{Key: "min_volume", Label: "Min volume", Min: 0.001, Max: 0.1, Step: 0.001,
		get: func(c *Config) float64 { return float64(c.MinVolume) },
		set: func(c *Config, v float64) { c.MinVolume = float32(v) }},
	{Key: "max_drops", Label: "Max drops", Int: true, Min: 0, Max: 400_000, Step: 10_000,
		get: func(c *Config) float64 { return float64(c.MaxDrops) },
		set: func(c *Config, v float64) { c.MaxDrops = int(math.Round(v)) }},
}

// Fields lists the tunable values in presentation order.
func Fields() []Field { return fields }

func lookupField(key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Get reads a tunable value by key.
func (c *Config) Get(key string) (float64, bool) {
	f, ok := lookupField(key)
	if !ok {
		return 0, false
	}
	return f.get(c), true
}

// Set writes a tunable value by key, clamped into its range. It reports false
// for unknown keys.
func (c *Config) Set(key string, v float64) bool {
	f, ok := lookupField(key)
	if !ok || math.IsNaN(v) {
		return false
	}
	f.set(c, min(max(v, f.Min), f.Max))
	return true
}

// Validate reports every tunable outside its range.
func (c Config) Validate() error {
	var errs []error
	for _, f := range fields {
		v := f.get(&c)
		// Compare in float32 so values that round-trip through the struct
		// are not rejected at the boundary.
		if !f.Int && (float32(v) < float32(f.Min) || float32(v) > float32(f.Max)) {
			errs = append(errs, fmt.Errorf("%s %g outside [%g, %g]", f.Key, v, f.Min, f.Max))
		}
		if f.Int && (v < f.Min || v > f.Max) {
			errs = append(errs, fmt.Errorf("%s %d outside [%g, %g]", f.Key, int(v), f.Min, f.Max))
		}
	}
	return errors.Join(errs...)
}

// Clamped returns a copy with every tunable pinned into range.
func (c Config) Clamped() Config {
	for _, f := range fields {
		c.Set(f.Key, f.get(&c))
	}
	return c
}

// StepBound is the maximum number of integration steps a droplet can take
// before evaporating below MinVolume. It returns -1 when volume never decays.
func StepBound(c Config) int {
	decay := 1 - float64(c.DT)*float64(c.EvapRate)
	if decay <= 0 {
		return 1
	}
	if decay >= 1 || c.MinVolume <= 0 {
		return -1
	}
	return int(math.Ceil(math.Log(float64(c.MinVolume))/math.Log(decay))) + 1
}
