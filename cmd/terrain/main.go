//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"hydro-terrain/internal/app"
	"hydro-terrain/internal/config"
	"hydro-terrain/internal/logging"
	simhydro "hydro-terrain/internal/sims/hydrology"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	view := app.NewConfig()
	view.Bind(flag.CommandLine)
	opts := config.Bind(flag.CommandLine)
	flag.Parse()

	cfg, err := opts.Resolve()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	world := simhydro.NewWithConfig(cfg.World)
	world.SetLogger(logging.New(cfg.LogLevel, os.Stdout))

	game := app.New(world, view.Scale, cfg.World.Seed, view.HUDWidth)
	w, h := game.WindowSize()

	ebiten.SetWindowTitle("hydro-terrain: " + world.Name())
	ebiten.SetTPS(view.TPS)
	ebiten.SetWindowSize(w, h)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
