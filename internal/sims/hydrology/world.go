// Package hydrology exposes the eroding heightfield as an interactive grid
// simulation: one Step is one erosion pass.
package hydrology

import (
	"context"
	"errors"
	"log/slog"

	"hydro-terrain/internal/core"
	"hydro-terrain/internal/hydrology"
	"hydro-terrain/internal/terrain"
	pcore "hydro-terrain/pkg/core"
)

// World stores the terrain mesh and erosion state.
type World struct {
	cfg Config

	w, h int

	mesh    *terrain.Mesh
	sim     *hydrology.Simulator
	rng     *pcore.RNG
	initial []float32

	display    []uint8
	eroded     []float32
	deposited  []float32
	elevation  *core.Grid[float32]
	elevLo     float32
	elevHi     float32
	pendingMap bool

	last            hydrology.PassStats
	exhaustedLogged bool
	log             *slog.Logger
}

// New returns a world with the provided dimensions using defaults.
func New(w, h int) *World {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg)
}

// NewWithConfig returns a world built from cfg. The terrain is generated
// immediately.
func NewWithConfig(cfg Config) *World {
	if cfg.Width <= 0 {
		cfg.Width = 1
	}
	if cfg.Height <= 0 {
		cfg.Height = 1
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = 1
	}
	total := cfg.Width * cfg.Height
	w := &World{
		cfg:       cfg,
		w:         cfg.Width,
		h:         cfg.Height,
		rng:       pcore.NewRNG(cfg.Seed),
		display:   make([]uint8, total),
		eroded:    make([]float32, total),
		deposited: make([]float32, total),
		log:       slog.Default(),
	}
	w.sim = hydrology.NewSimulator(w.rng)
	w.RebuildTerrain()
	return w
}

// SetLogger replaces the logger used for pass and budget messages.
func (w *World) SetLogger(l *slog.Logger) {
	if l != nil {
		w.log = l
	}
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "hydrology" }

// Size reports the grid dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.w, H: w.h} }

// Cells exposes the hillshade display buffer; values index Palette.
func (w *World) Cells() []uint8 { return w.display }

// Mesh exposes the terrain mesh.
func (w *World) Mesh() *terrain.Mesh { return w.mesh }

// Config returns a copy of the current configuration.
func (w *World) Config() Config { return w.cfg }

// DropCount reports droplets issued since the last rebuild or reset.
func (w *World) DropCount() int { return w.cfg.Erosion.TotalDropsIssued }

// MaxDrops reports the drop budget.
func (w *World) MaxDrops() int { return w.cfg.Erosion.MaxDrops }

// LastPass returns the statistics of the most recent Step.
func (w *World) LastPass() hydrology.PassStats { return w.last }

// ErosionMask exposes per-cell removed height, normalized to [0,1].
func (w *World) ErosionMask() []float32 { return w.eroded }

// DepositionMask exposes per-cell added height, normalized to [0,1].
func (w *World) DepositionMask() []float32 { return w.deposited }

// ElevationField exposes the current lattice heights.
func (w *World) ElevationField() []float32 { return w.elevation.Cells() }

// FlowVectorAt returns the horizontal steering direction a droplet would
// take at grid position (x, y).
func (w *World) FlowVectorAt(x, y float64) (float64, float64) {
	cx, cy := w.elevation.Clamp(int(x), int(y))
	n := hydrology.SteeringNormal(w.mesh, cx, cy)
	return float64(n[0]), float64(n[2])
}

// Reset regenerates the terrain and restarts the droplet stream. A zero seed
// reuses the configured one.
func (w *World) Reset(seed int64) {
	effective := seed
	if effective == 0 {
		effective = w.cfg.Seed
	}
	w.rng.Reseed(effective)
	w.RebuildTerrain()
}

// RebuildTerrain samples fresh heights from the noise config and zeroes the
// drop counter.
func (w *World) RebuildTerrain() {
	mesh, err := terrain.BuildInitialTerrain(w.Size(), w.cfg.CellSize, w.cfg.Noise)
	if err != nil {
		w.log.Error("build terrain, falling back to perlin noise", "error", err)
		w.cfg.Noise.Kind = terrain.NoisePerlin
		mesh, _ = terrain.BuildInitialTerrain(w.Size(), w.cfg.CellSize, w.cfg.Noise)
	}
	w.mesh = mesh
	w.initial = mesh.Heights().Cells()
	w.elevLo, w.elevHi = mesh.HeightRange()
	w.cfg.Erosion.TotalDropsIssued = 0
	w.exhaustedLogged = false
	w.pendingMap = false
	w.last = hydrology.PassStats{}
	w.refresh()
}

// Step runs one erosion pass. A pending noise change rebuilds the terrain
// first.
func (w *World) Step() {
	if w.pendingMap {
		w.RebuildTerrain()
	}
	w.last = w.sim.Erode(w.mesh, &w.cfg.Erosion)
	if w.last.Skipped {
		if !w.exhaustedLogged {
			w.log.Info("drop budget exhausted", "drops", w.cfg.Erosion.TotalDropsIssued, "max", w.cfg.Erosion.MaxDrops)
			w.exhaustedLogged = true
		}
		return
	}
	w.log.Debug("erosion pass",
		"drops", w.last.Drops,
		"steps", w.last.Steps,
		"out_of_bounds", w.last.OutOfBounds,
		"eroded", w.last.Eroded,
		"deposited", w.last.Deposited,
		"dirty_cells", w.last.DirtyCells,
		"total", w.cfg.Erosion.TotalDropsIssued)
	w.refresh()
}

// Run steps until the drop budget is spent or limit passes have run. A limit
// of zero or less means no pass limit. Cancelling ctx stops between passes and
// returns its error.
func (w *World) Run(ctx context.Context, limit int, onPass func(pass int, stats hydrology.PassStats)) error {
	if w.pendingMap {
		w.RebuildTerrain()
	}
	inner, cancel := context.WithCancel(ctx)
	defer cancel()
	err := w.sim.Drain(inner, w.mesh, &w.cfg.Erosion, func(pass int, stats hydrology.PassStats) {
		w.last = stats
		if onPass != nil {
			onPass(pass, stats)
		}
		if limit > 0 && pass+1 >= limit {
			cancel()
		}
	})
	w.refresh()
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return nil
	}
	return err
}

func (w *World) refresh() {
	w.elevation = w.mesh.Heights()
	w.rebuildMasks()
	w.rebuildDisplay()
}

func (w *World) rebuildMasks() {
	var maxCut, maxFill float32
	heights := w.elevation.Cells()
	for i, h := range heights {
		d := w.initial[i] - h
		maxCut = max(maxCut, d)
		maxFill = max(maxFill, -d)
	}
	for i, h := range heights {
		d := w.initial[i] - h
		w.eroded[i], w.deposited[i] = 0, 0
		if d > 0 && maxCut > 0 {
			w.eroded[i] = d / maxCut
		}
		if d < 0 && maxFill > 0 {
			w.deposited[i] = -d / maxFill
		}
	}
}

func init() {
	core.Register("hydrology", func(cfg map[string]string) core.Sim {
		c := FromMap(cfg)
		return NewWithConfig(c)
	})
}
