package hydrology

import (
	"context"
	"math"

	"hydro-terrain/internal/terrain"
)

// Source yields uniform values in [0, 1).
type Source interface {
	Float32() float32
}

// Drop is a single water particle. Positions are in grid units.
type Drop struct {
	Pos      [2]float32
	Vel      [2]float32
	Volume   float32
	Sediment float32
}

// PassStats summarizes one erosion pass.
type PassStats struct {
	Skipped     bool
	Drops       int
	Steps       int
	OutOfBounds int
	// Eroded and Deposited total the height removed from and added to
	// lattice points.
	Eroded     float64
	Deposited  float64
	DirtyCells int
}

// Simulator runs droplet passes over a mesh. It is not safe for concurrent
// use; each goroutine needs its own Simulator and mesh.
type Simulator struct {
	src   Source
	dirty *terrain.CellSet
	cells int
}

// NewSimulator returns a Simulator drawing spawn positions from src.
func NewSimulator(src Source) *Simulator {
	return &Simulator{src: src}
}

// Erode runs one pass of cfg.DropsPerCycle droplets unless the drop budget is
// exhausted, in which case it does nothing. Droplets run sequentially and
// each sees the heights left by the previous one. Normals of every touched
// cell are rebuilt before Erode returns.
func (s *Simulator) Erode(m *terrain.Mesh, cfg *Config) PassStats {
	if cfg.Exhausted() {
		return PassStats{Skipped: true}
	}
	cfg.TotalDropsIssued += cfg.DropsPerCycle

	size := m.Size()
	if s.dirty == nil || s.cells != size.Cells() {
		s.cells = size.Cells()
		s.dirty = terrain.NewCellSet(s.cells)
	}

	var stats PassStats
	w, h := float32(size.W), float32(size.H)
	for i := 0; i < cfg.DropsPerCycle; i++ {
		d := Drop{
			Pos:    [2]float32{spawn(s.src.Float32(), w), spawn(s.src.Float32(), h)},
			Volume: 1,
		}
		s.run(m, cfg, &d, &stats)
		stats.Drops++
	}

	m.RecomputeCellNormals(s.dirty.Cells())
	stats.DirtyCells = s.dirty.Len()
	s.dirty.Reset()
	return stats
}

// Drain runs passes until the budget is exhausted, the pass size is zero or
// ctx is cancelled. onPass, when non-nil, is called after every pass.
func (s *Simulator) Drain(ctx context.Context, m *terrain.Mesh, cfg *Config, onPass func(pass int, stats PassStats)) error {
	for pass := 0; !cfg.Exhausted() && cfg.DropsPerCycle > 0; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats := s.Erode(m, cfg)
		if onPass != nil {
			onPass(pass, stats)
		}
	}
	return nil
}

func (s *Simulator) run(m *terrain.Mesh, cfg *Config, d *Drop, stats *PassStats) {
	for d.Volume > cfg.MinVolume {
		erosion, exited := s.step(m, cfg, d)
		stats.Steps++
		if exited {
			stats.OutOfBounds++
			return
		}
		if erosion > 0 {
			stats.Eroded += float64(erosion)
		} else {
			stats.Deposited -= float64(erosion)
		}
	}
}

// step advances d by one integration step. It returns the height removed
// from the droplet's previous lattice point, or exited=true when the droplet
// left the grid (in which case the terrain is untouched).
func (s *Simulator) step(m *terrain.Mesh, cfg *Config, d *Drop) (erosion float32, exited bool) {
	size := m.Size()
	px, py := int(d.Pos[0]), int(d.Pos[1])

	n := SteeringNormal(m, px, py)
	accel := cfg.DT / (d.Volume * cfg.Density)
	d.Vel[0] += accel * n[0]
	d.Vel[1] += accel * n[2]
	d.Pos[0] += cfg.DT * d.Vel[0]
	d.Pos[1] += cfg.DT * d.Vel[1]
	drag := 1 - cfg.DT*cfg.Friction
	d.Vel[0] *= drag
	d.Vel[1] *= drag

	// Written so NaN positions count as leaving the grid.
	if !(d.Pos[0] >= 0 && d.Pos[1] >= 0 && d.Pos[0] < float32(size.W) && d.Pos[1] < float32(size.H)) {
		return 0, true
	}

	nx, ny := int(d.Pos[0]), int(d.Pos[1])
	speed := float32(math.Hypot(float64(d.Vel[0]), float64(d.Vel[1])))
	maxSediment := d.Volume * speed * (m.Height(px, py) - m.Height(nx, ny))
	diff := max(maxSediment, 0) - d.Sediment
	erosion = cfg.DT * d.Volume * cfg.DepositionRate * diff

	if erosion != 0 {
		m.LowerPoint(px, py, erosion, s.dirty)
	}

	d.Sediment += cfg.DT * cfg.DepositionRate * diff
	d.Volume *= 1 - cfg.DT*cfg.EvapRate
	return erosion, false
}

// SteeringNormal returns the surface normal at lattice point (x, y) from a
// central-difference gradient of the lattice heights, with neighbour lookups
// clamped to the grid.
func SteeringNormal(m *terrain.Mesh, x, y int) [3]float32 {
	gx := (m.ClampedHeight(x+1, y) - m.ClampedHeight(x-1, y)) / 2
	gy := (m.ClampedHeight(x, y+1) - m.ClampedHeight(x, y-1)) / 2
	return terrain.Normalize([3]float32{-gx, 1, -gy})
}

// spawn scales u in [0,1) to [0,n), guarding against float32 rounding up to n.
func spawn(u, n float32) float32 {
	v := u * n
	if v >= n {
		return math.Nextafter32(n, 0)
	}
	return v
}
