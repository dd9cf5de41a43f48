package terrain

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"hydro-terrain/internal/core"
)

// VerticesPerCell is the number of unshared vertices emitted per grid cell:
// two triangles, three corners each.
const VerticesPerCell = 6

// parallelCells is the grid size below which normals are recomputed on the
// calling goroutine.
const parallelCells = 4096

// HeightSource yields terrain height at world coordinates.
type HeightSource interface {
	Sample(x, z float32) float32
}

// HeightFunc adapts a plain function to HeightSource.
type HeightFunc func(x, z float32) float32

// Sample calls f.
func (f HeightFunc) Sample(x, z float32) float32 { return f(x, z) }

// Mesh is a flat-shaded triangle-list heightfield. Cell i owns vertex slots
// i*6 through i*6+5 laid out as
//
//	0:(x,z) 1:(x,z+c) 2:(x+c,z+c) | 3:(x,z) 4:(x+c,z+c) 5:(x+c,z)
//
// Each lattice point is therefore duplicated in up to six slots across up to
// four cells. Normals are per-face and derived from Positions.
type Mesh struct {
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Indices   []uint32

	size     core.Size
	cellSize float32
}

// BuildInitialTerrain samples fractal noise over a W×H grid and returns the
// resulting mesh with normals computed.
func BuildInitialTerrain(size core.Size, cellSize float32, cfg NoiseConfig) (*Mesh, error) {
	s, err := NewSampler(cfg)
	if err != nil {
		return nil, err
	}
	return Build(size, cellSize, s), nil
}

// Build lays out the mesh for size with heights taken from src at each
// lattice corner. The grid is centred on the origin.
func Build(size core.Size, cellSize float32, src HeightSource) *Mesh {
	mustf(size.W > 0 && size.H > 0, "grid size %dx%d must be positive", size.W, size.H)
	mustf(cellSize > 0, "cell size %g must be positive", cellSize)

	n := size.Cells() * VerticesPerCell
	m := &Mesh{
		Positions: make([][3]float32, n),
		Normals:   make([][3]float32, n),
		UVs:       make([][2]float32, n),
		Indices:   make([]uint32, n),
		size:      size,
		cellSize:  cellSize,
	}

	// Corner coordinates and heights are computed once per lattice point so
	// every duplicate slot receives bit-identical values.
	xs := make([]float32, size.W+1)
	for i := range xs {
		xs[i] = float32(i)*cellSize - float32(size.W)*cellSize/2
	}
	zs := make([]float32, size.H+1)
	for i := range zs {
		zs[i] = float32(i)*cellSize - float32(size.H)*cellSize/2
	}
	stride := size.W + 1
	heights := make([]float32, stride*(size.H+1))
	for j, z := range zs {
		for i, x := range xs {
			heights[j*stride+i] = src.Sample(x, z)
		}
	}
	corner := func(i, j int) [3]float32 {
		return [3]float32{xs[i], heights[j*stride+i], zs[j]}
	}

	for y := 0; y < size.H; y++ {
		for x := 0; x < size.W; x++ {
			base := m.CellIndex(x, y) * VerticesPerCell
			m.Positions[base+0] = corner(x, y)
			m.Positions[base+1] = corner(x, y+1)
			m.Positions[base+2] = corner(x+1, y+1)
			m.Positions[base+3] = corner(x, y)
			m.Positions[base+4] = corner(x+1, y+1)
			m.Positions[base+5] = corner(x+1, y)
		}
	}
	for k := range m.Indices {
		m.Indices[k] = uint32(k)
		m.UVs[k] = [2]float32{float32(k % VerticesPerCell), 0}
	}
	m.RecomputeNormals()
	return m
}

// Size reports the grid dimensions in cells.
func (m *Mesh) Size() core.Size { return m.size }

// CellSize reports the world-space edge length of a cell.
func (m *Mesh) CellSize() float32 { return m.cellSize }

// CellIndex returns the linear index of cell (x, y).
func (m *Mesh) CellIndex(x, y int) int {
	mustf(x >= 0 && y >= 0 && x < m.size.W && y < m.size.H,
		"cell (%d,%d) outside %dx%d grid", x, y, m.size.W, m.size.H)
	return x + y*m.size.W
}

// Height returns the height of lattice point (x, y), read from slot 0 of the
// cell whose origin it is.
func (m *Mesh) Height(x, y int) float32 {
	return m.Positions[m.CellIndex(x, y)*VerticesPerCell][1]
}

// ClampedHeight is Height with coordinates pinned to the grid.
func (m *Mesh) ClampedHeight(x, y int) float32 {
	x = min(max(x, 0), m.size.W-1)
	y = min(max(y, 0), m.size.H-1)
	return m.Height(x, y)
}

// LowerPoint subtracts amount from every slot that references lattice point
// (x, y): slots 0 and 3 of cell (x,y), slot 5 of (x-1,y), slot 1 of (x,y-1)
// and slots 2 and 4 of (x-1,y-1). Touched cells are recorded in dirty when it
// is non-nil.
func (m *Mesh) LowerPoint(x, y int, amount float32, dirty *CellSet) {
	lower := func(cx, cy int, slots ...int) {
		c := m.CellIndex(cx, cy)
		base := c * VerticesPerCell
		for _, s := range slots {
			m.Positions[base+s][1] -= amount
		}
		if dirty != nil {
			dirty.Add(c)
		}
	}
	lower(x, y, 0, 3)
	if x > 0 {
		lower(x-1, y, 5)
	}
	if y > 0 {
		lower(x, y-1, 1)
	}
	if x > 0 && y > 0 {
		lower(x-1, y-1, 2, 4)
	}
}

// CellNormal returns the face normal stored on slot 0 of cell (x, y).
func (m *Mesh) CellNormal(x, y int) [3]float32 {
	return m.Normals[m.CellIndex(x, y)*VerticesPerCell]
}

// RecomputeNormals rebuilds every face normal from the current positions.
// Cells are independent, so large grids are split into row bands.
func (m *Mesh) RecomputeNormals() {
	m.checkLengths()
	h := m.size.H
	workers := runtime.GOMAXPROCS(0)
	if workers > h {
		workers = h
	}
	if workers <= 1 || m.size.Cells() < parallelCells {
		m.recomputeRows(0, h)
		return
	}
	const band = 16
	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		g.Go(func() error {
			m.recomputeRows(y0, y1)
			return nil
		})
	}
	// Bands write disjoint cells and never fail.
	g.Wait()
}

// RecomputeCellNormals rebuilds the normals of the listed cells only.
func (m *Mesh) RecomputeCellNormals(cells []int) {
	total := m.size.Cells()
	for _, c := range cells {
		mustf(c >= 0 && c < total, "cell index %d outside [0, %d)", c, total)
		m.recomputeCell(c)
	}
}

func (m *Mesh) recomputeRows(y0, y1 int) {
	for c := y0 * m.size.W; c < y1*m.size.W; c++ {
		m.recomputeCell(c)
	}
}

func (m *Mesh) recomputeCell(c int) {
	base := c * VerticesPerCell
	p := m.Positions
	n1 := faceNormal(p[base], p[base+1], p[base+2])
	n2 := faceNormal(p[base+3], p[base+4], p[base+5])
	m.Normals[base], m.Normals[base+1], m.Normals[base+2] = n1, n1, n1
	m.Normals[base+3], m.Normals[base+4], m.Normals[base+5] = n2, n2, n2
}

func faceNormal(v0, v1, v2 [3]float32) [3]float32 {
	return normalize(cross(sub(v1, v0), sub(v2, v0)))
}

// Heights copies the lattice heights into a W×H grid.
func (m *Mesh) Heights() *core.Grid[float32] {
	g := core.NewGrid[float32](m.size.W, m.size.H)
	for y := 0; y < m.size.H; y++ {
		for x := 0; x < m.size.W; x++ {
			g.Set(x, y, m.Height(x, y))
		}
	}
	return g
}

// HeightRange returns the lowest and highest lattice heights.
func (m *Mesh) HeightRange() (lo, hi float32) {
	lo, hi = float32(math.Inf(1)), float32(math.Inf(-1))
	for i := 0; i < m.size.Cells(); i++ {
		h := m.Positions[i*VerticesPerCell][1]
		lo = min(lo, h)
		hi = max(hi, h)
	}
	return lo, hi
}

// SumHeights totals the lattice heights in float64.
func (m *Mesh) SumHeights() float64 {
	var sum float64
	for i := 0; i < m.size.Cells(); i++ {
		sum += float64(m.Positions[i*VerticesPerCell][1])
	}
	return sum
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Positions: append([][3]float32(nil), m.Positions...),
		Normals:   append([][3]float32(nil), m.Normals...),
		UVs:       append([][2]float32(nil), m.UVs...),
		Indices:   append([]uint32(nil), m.Indices...),
		size:      m.size,
		cellSize:  m.cellSize,
	}
}

// Validate checks the structural invariants: matching array lengths,
// identity indices and bit-identical heights across duplicate slots.
func (m *Mesh) Validate() error {
	want := m.size.Cells() * VerticesPerCell
	var errs []error
	for name, n := range map[string]int{
		"positions": len(m.Positions),
		"normals":   len(m.Normals),
		"uvs":       len(m.UVs),
		"indices":   len(m.Indices),
	} {
		if n != want {
			errs = append(errs, fmt.Errorf("%s length %d, want %d", name, n, want))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for k, idx := range m.Indices {
		if idx != uint32(k) {
			errs = append(errs, fmt.Errorf("index %d maps to %d", k, idx))
			break
		}
	}
	for y := 0; y < m.size.H; y++ {
		for x := 0; x < m.size.W; x++ {
			base := m.CellIndex(x, y) * VerticesPerCell
			p := m.Positions
			if p[base][1] != p[base+3][1] || p[base+2][1] != p[base+4][1] {
				errs = append(errs, fmt.Errorf("cell (%d,%d) triangles disagree on shared corners", x, y))
			}
			if x+1 < m.size.W && p[base+5][1] != m.Height(x+1, y) {
				errs = append(errs, fmt.Errorf("cell (%d,%d) slot 5 disagrees with lattice point (%d,%d)", x, y, x+1, y))
			}
			if y+1 < m.size.H && p[base+1][1] != m.Height(x, y+1) {
				errs = append(errs, fmt.Errorf("cell (%d,%d) slot 1 disagrees with lattice point (%d,%d)", x, y, x, y+1))
			}
			if x+1 < m.size.W && y+1 < m.size.H && p[base+2][1] != m.Height(x+1, y+1) {
				errs = append(errs, fmt.Errorf("cell (%d,%d) slot 2 disagrees with lattice point (%d,%d)", x, y, x+1, y+1))
			}
		}
	}
	return errors.Join(errs...)
}

func (m *Mesh) checkLengths() {
	want := m.size.Cells() * VerticesPerCell
	mustf(len(m.Positions) == want && len(m.Normals) == want,
		"positions/normals length %d/%d, want %d", len(m.Positions), len(m.Normals), want)
}

func mustf(ok bool, format string, args ...any) {
	if !ok {
		panic("terrain: invariant violated: " + fmt.Sprintf(format, args...))
	}
}
