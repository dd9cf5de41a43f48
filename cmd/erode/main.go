// Command erode builds a terrain, runs erosion passes headlessly and writes a
// hillshade PNG.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hydro-terrain/internal/config"
	"hydro-terrain/internal/hydrology"
	"hydro-terrain/internal/logging"
	"hydro-terrain/internal/render"
	simhydro "hydro-terrain/internal/sims/hydrology"
)

func main() {
	opts := config.Bind(flag.CommandLine)
	out := flag.String("out", "terrain.png", "hillshade PNG output path (empty to skip)")
	saveConfig := flag.String("save-config", "", "write the effective configuration to this YAML file")
	every := flag.Int("report", 20, "log progress every N passes")
	flag.Parse()

	cfg, err := opts.Resolve()
	if err != nil {
		logging.New("info", os.Stderr).Error("configuration", "error", err)
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel, os.Stdout)

	if *saveConfig != "" {
		if err := config.Save(cfg, *saveConfig); err != nil {
			log.Error("save config", "error", err)
			os.Exit(1)
		}
		log.Info("config written", "path", *saveConfig)
	}

	world := simhydro.NewWithConfig(cfg.World)
	world.SetLogger(log)
	lo, hi := world.Mesh().HeightRange()
	log.Info("terrain built",
		"size", cfg.World.Width, "by", cfg.World.Height,
		"noise", cfg.World.Noise.Kind,
		"min", lo, "max", hi,
		"step_bound", hydrology.StepBound(cfg.World.Erosion))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	before := world.Mesh().SumHeights()
	err = world.Run(ctx, cfg.Passes, func(pass int, stats hydrology.PassStats) {
		if *every > 0 && (pass+1)%*every == 0 {
			log.Info("pass", "n", pass+1, "drops", world.DropCount(), "steps", stats.Steps, "eroded", stats.Eroded, "deposited", stats.Deposited)
		}
		log.Debug("pass stats", "n", pass+1, "out_of_bounds", stats.OutOfBounds, "dirty_cells", stats.DirtyCells)
	})
	if err != nil {
		log.Warn("erosion interrupted", "error", err)
	}
	lo, hi = world.Mesh().HeightRange()
	log.Info("erosion finished",
		"drops", world.DropCount(),
		"budget", world.MaxDrops(),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"height_delta", world.Mesh().SumHeights()-before,
		"min", lo, "max", hi)

	if err := world.Mesh().Validate(); err != nil {
		log.Error("mesh invariant", "error", err)
		os.Exit(1)
	}

	if *out != "" {
		if err := render.WritePNG(*out, world.Cells(), world.Size(), world.Palette()); err != nil {
			log.Error("write hillshade", "error", err)
			os.Exit(1)
		}
		log.Info("hillshade written", "path", *out)
	}
}
