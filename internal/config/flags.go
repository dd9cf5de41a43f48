package config

import (
	"flag"
	"fmt"

	"hydro-terrain/internal/hydrology"
)

// Options binds the run configuration to command-line flags. Flags set
// explicitly win over values from the -config file.
type Options struct {
	fs     *flag.FlagSet
	cfg    *Config
	path   string
	preset string
}

// Bind registers the shared world, erosion and logging flags on fs.
func Bind(fs *flag.FlagSet) *Options {
	o := &Options{fs: fs, cfg: DefaultConfig()}
	c := o.cfg
	fs.StringVar(&o.path, "config", "", "YAML run configuration")
	fs.StringVar(&o.preset, "preset", "", fmt.Sprintf("erosion preset %v", hydrology.PresetNames()))
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.IntVar(&c.Passes, "passes", c.Passes, "erosion passes to run (0 runs until the drop budget is spent)")
	fs.IntVar(&c.World.Width, "w", c.World.Width, "grid width in cells")
	fs.IntVar(&c.World.Height, "h", c.World.Height, "grid height in cells")
	fs.Int64Var(&c.World.Seed, "seed", c.World.Seed, "droplet spawn seed")
	fs.Int64Var(&c.World.Noise.Seed, "terrain-seed", c.World.Noise.Seed, "terrain noise seed")
	fs.StringVar((*string)(&c.World.Noise.Kind), "noise", string(c.World.Noise.Kind), "noise primitive: perlin or simplex")
	fs.IntVar(&c.World.Erosion.DropsPerCycle, "drops", c.World.Erosion.DropsPerCycle, "droplets per pass")
	fs.IntVar(&c.World.Erosion.MaxDrops, "max-drops", c.World.Erosion.MaxDrops, "total drop budget")
	return o
}

// Explicit returns the names of the flags set on the command line.
func Explicit(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// Resolve applies the preset, merges the config file when one was given and
// validates the result. Call it after fs.Parse.
func (o *Options) Resolve() (*Config, error) {
	explicit := Explicit(o.fs)
	cfg := *o.cfg
	if o.preset != "" {
		p, err := hydrology.Preset(o.preset)
		if err != nil {
			return nil, err
		}
		if explicit["drops"] {
			p.DropsPerCycle = cfg.World.Erosion.DropsPerCycle
		}
		if explicit["max-drops"] {
			p.MaxDrops = cfg.World.Erosion.MaxDrops
		}
		cfg.World.Erosion = p
	}
	if o.path != "" {
		fromFile, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		Merge(&cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return &cfg, nil
}
