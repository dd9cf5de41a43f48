package hydrology

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"hydro-terrain/internal/core"
	"hydro-terrain/internal/terrain"
	pcore "hydro-terrain/pkg/core"
)

func noiseMesh(t *testing.T, w, h int) *terrain.Mesh {
	t.Helper()
	m, err := terrain.BuildInitialTerrain(core.Size{W: w, H: h}, 1, terrain.DefaultNoiseConfig())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func flatMesh(w, h int) *terrain.Mesh {
	return terrain.Build(core.Size{W: w, H: h}, 1, terrain.HeightFunc(func(x, z float32) float32 { return 0 }))
}

func TestErodeZeroDropsIsNoop(t *testing.T) {
	m := noiseMesh(t, 16, 16)
	before := m.Clone()
	cfg := DefaultConfig()
	cfg.DropsPerCycle = 0

	stats := NewSimulator(pcore.NewRNG(1)).Erode(m, &cfg)
	if stats.Drops != 0 || stats.Steps != 0 {
		t.Fatalf("expected no droplets, got %+v", stats)
	}
	if cfg.TotalDropsIssued != 0 {
		t.Fatalf("drop counter advanced to %d", cfg.TotalDropsIssued)
	}
	if !slices.Equal(before.Positions, m.Positions) || !slices.Equal(before.Normals, m.Normals) {
		t.Fatal("mesh changed without droplets")
	}
}

func TestErodeRespectsBudget(t *testing.T) {
	const n = 50
	m := noiseMesh(t, 24, 24)
	cfg := DefaultConfig()
	cfg.DropsPerCycle = n
	cfg.MaxDrops = n
	sim := NewSimulator(pcore.NewRNG(2))

	first := sim.Erode(m, &cfg)
	if first.Skipped || first.Drops != n {
		t.Fatalf("first pass should issue %d drops, got %+v", n, first)
	}
	if cfg.TotalDropsIssued != n {
		t.Fatalf("counter = %d, want %d", cfg.TotalDropsIssued, n)
	}
	if !cfg.Exhausted() || cfg.Remaining() != 0 {
		t.Fatal("budget should be exhausted after first pass")
	}

	snapshot := m.Clone()
	second := sim.Erode(m, &cfg)
	if !second.Skipped {
		t.Fatalf("second pass should be skipped, got %+v", second)
	}
	if cfg.TotalDropsIssued != n {
		t.Fatalf("counter moved on skipped pass: %d", cfg.TotalDropsIssued)
	}
	if !slices.Equal(snapshot.Positions, m.Positions) {
		t.Fatal("mesh changed after budget exhausted")
	}
}

func TestErodeZeroBudgetIsNoop(t *testing.T) {
	m := noiseMesh(t, 8, 8)
	before := m.Clone()
	cfg := DefaultConfig()
	cfg.MaxDrops = 0

	stats := NewSimulator(pcore.NewRNG(3)).Erode(m, &cfg)
	if !stats.Skipped || cfg.TotalDropsIssued != 0 {
		t.Fatalf("expected skipped pass, got %+v counter=%d", stats, cfg.TotalDropsIssued)
	}
	if !slices.Equal(before.Positions, m.Positions) {
		t.Fatal("mesh changed with zero budget")
	}
}

func TestDropletVolumeDecreasesWithinBound(t *testing.T) {
	m := flatMesh(8, 8)
	cfg := DefaultConfig()
	cfg.DT = 1
	cfg.EvapRate = 0.01
	bound := StepBound(cfg)
	if bound <= 0 {
		t.Fatalf("expected finite bound, got %d", bound)
	}

	sim := NewSimulator(pcore.NewRNG(4))
	d := Drop{Pos: [2]float32{4.5, 4.5}, Volume: 1}
	steps := 0
	for d.Volume > cfg.MinVolume {
		prev := d.Volume
		if _, exited := sim.step(m, &cfg, &d); exited {
			t.Fatal("droplet on flat terrain should not move off the grid")
		}
		steps++
		if !(d.Volume < prev) {
			t.Fatalf("step %d: volume %v did not decrease from %v", steps, d.Volume, prev)
		}
		if steps > bound {
			t.Fatalf("droplet exceeded step bound %d", bound)
		}
	}
}

func TestPassStepsWithinBound(t *testing.T) {
	m := noiseMesh(t, 32, 32)
	cfg := DefaultConfig()
	cfg.DropsPerCycle = 100
	stats := NewSimulator(pcore.NewRNG(5)).Erode(m, &cfg)
	if limit := stats.Drops * StepBound(cfg); stats.Steps > limit {
		t.Fatalf("steps %d exceed %d droplets × bound", stats.Steps, stats.Drops)
	}
}

func TestFlatScenarioRemovesNothing(t *testing.T) {
	m := flatMesh(4, 4)
	before := m.SumHeights()
	cfg := DefaultConfig()
	cfg.DropsPerCycle = 1

	NewSimulator(pcore.NewRNG(6)).Erode(m, &cfg)
	after := m.SumHeights()
	if math.IsNaN(after) || math.IsInf(after, 0) {
		t.Fatalf("non-finite height sum %v", after)
	}
	if after-before > 0 {
		t.Fatalf("flat terrain gained material: %v -> %v", before, after)
	}
	for i, p := range m.Positions {
		if math.IsNaN(float64(p[1])) || math.IsInf(float64(p[1]), 0) {
			t.Fatalf("position %d not finite: %v", i, p)
		}
	}
}

func TestFlatGridScenario(t *testing.T) {
	noise := terrain.DefaultNoiseConfig()
	noise.BaseAmplitude = 0
	m, err := terrain.BuildInitialTerrain(core.Size{W: 4, H: 4}, 1, noise)
	if err != nil {
		t.Fatal(err)
	}
	before := m.SumHeights()
	cfg := DefaultConfig()
	cfg.DropsPerCycle = 50
	cfg.DT = 0.25
	cfg.Friction = 0.05
	cfg.EvapRate = 0.001
	cfg.DepositionRate = 0.1
	cfg.MinVolume = 0.05
	cfg.Density = 1.0

	stats := NewSimulator(pcore.NewRNG(96)).Erode(m, &cfg)
	if stats.Drops != 50 || cfg.TotalDropsIssued != 50 {
		t.Fatalf("drops = %d, counter = %d, want 50", stats.Drops, cfg.TotalDropsIssued)
	}
	if delta := m.SumHeights() - before; delta > 0 {
		t.Fatalf("summed height change %v, want <= 0", delta)
	}
	for i, p := range m.Positions {
		for _, v := range p {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("position %d not finite: %v", i, p)
			}
		}
	}
	if stats.Eroded == 0 && stats.Deposited == 0 && stats.DirtyCells != 0 {
		t.Fatalf("no material moved but %d cells marked dirty", stats.DirtyCells)
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestErodeKeepsDuplicatesAndNormalsConsistent(t *testing.T) {
	m := noiseMesh(t, 32, 32)
	before := m.Clone()
	cfg := DefaultConfig()
	cfg.DropsPerCycle = 300

	stats := NewSimulator(pcore.NewRNG(7)).Erode(m, &cfg)
	if stats.DirtyCells == 0 {
		t.Fatal("expected droplets to touch some cells")
	}
	if slices.Equal(before.Positions, m.Positions) {
		t.Fatal("expected erosion to change heights")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("shared corners diverged: %v", err)
	}
	full := m.Clone()
	full.RecomputeNormals()
	if !slices.Equal(full.Normals, m.Normals) {
		t.Fatal("dirty-cell normals differ from a full recompute")
	}
}

func TestErodeDeterministic(t *testing.T) {
	a := noiseMesh(t, 20, 20)
	b := a.Clone()
	cfgA, cfgB := DefaultConfig(), DefaultConfig()
	cfgA.DropsPerCycle, cfgB.DropsPerCycle = 200, 200

	NewSimulator(pcore.NewRNG(8)).Erode(a, &cfgA)
	NewSimulator(pcore.NewRNG(8)).Erode(b, &cfgB)
	if !slices.Equal(a.Positions, b.Positions) {
		t.Fatal("same seed produced different terrain")
	}
}

func TestSteeringNormalOnSlope(t *testing.T) {
	m := terrain.Build(core.Size{W: 5, H: 5}, 1, terrain.HeightFunc(func(x, z float32) float32 { return x }))
	n := SteeringNormal(m, 2, 2)
	s := float32(math.Sqrt2) / 2
	if math.Abs(float64(n[0]+s)) > 1e-6 || math.Abs(float64(n[1]-s)) > 1e-6 || n[2] != 0 {
		t.Fatalf("interior normal %v, want (-%v, %v, 0)", n, s, s)
	}
	edge := SteeringNormal(m, 0, 2)
	if !(edge[0] > n[0]) {
		t.Fatalf("clamped edge gradient should be shallower: edge %v interior %v", edge, n)
	}
}

func TestDropletOnSlopeRunsDownhillAndErodes(t *testing.T) {
	m := terrain.Build(core.Size{W: 32, H: 8}, 1, terrain.HeightFunc(func(x, z float32) float32 { return x * 0.5 }))
	before := m.SumHeights()
	cfg := DefaultConfig()
	sim := NewSimulator(pcore.NewRNG(9))
	d := Drop{Pos: [2]float32{28.5, 4.5}, Volume: 1}
	var stats PassStats
	sim.run(m, &cfg, &d, &stats)

	if stats.OutOfBounds != 1 {
		t.Fatalf("expected droplet to leave the downhill edge, stats %+v", stats)
	}
	if d.Vel[0] >= 0 {
		t.Fatalf("expected negative x velocity downhill, got %v", d.Vel)
	}
	if stats.Eroded <= 0 || m.SumHeights() >= before {
		t.Fatalf("expected net erosion, stats %+v", stats)
	}
}

func TestDrainStopsAtBudget(t *testing.T) {
	m := noiseMesh(t, 16, 16)
	cfg := DefaultConfig()
	cfg.DropsPerCycle = 30
	cfg.MaxDrops = 100
	passes := 0
	err := NewSimulator(pcore.NewRNG(10)).Drain(context.Background(), m, &cfg, func(int, PassStats) { passes++ })
	if err != nil {
		t.Fatal(err)
	}
	if passes != 4 || cfg.TotalDropsIssued != 120 {
		t.Fatalf("passes=%d issued=%d, want 4 and 120", passes, cfg.TotalDropsIssued)
	}
}

func TestDrainHonoursCancellation(t *testing.T) {
	m := noiseMesh(t, 8, 8)
	cfg := DefaultConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSimulator(pcore.NewRNG(11)).Drain(ctx, m, &cfg, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if cfg.TotalDropsIssued != 0 {
		t.Fatal("cancelled drain should not issue droplets")
	}
}
