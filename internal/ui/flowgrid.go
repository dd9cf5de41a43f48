package ui

import (
	"math"

	"hydro-terrain/internal/core"
)

// flowSample anchors one arrow: cell-space centre and screen position.
type flowSample struct {
	cx, cy float64
	sx, sy float64
}

// flowGrid lays out arrow anchors roughly evenly over the grid, centred, and
// returns them with the spacing in cells.
func flowGrid(size core.Size, scale float64) ([]flowSample, int) {
	if size.W <= 0 || size.H <= 0 {
		return nil, 0
	}
	const (
		targetSamples = 360.0
		minSpacing    = 6
		maxSpacing    = 20
	)
	spacing := int(math.Sqrt(float64(size.W*size.H) / targetSamples))
	spacing = min(max(spacing, minSpacing), maxSpacing)

	countX := (size.W + spacing - 1) / spacing
	countY := (size.H + spacing - 1) / spacing
	startX := max((size.W-1-(countX-1)*spacing)/2, 0)
	startY := max((size.H-1-(countY-1)*spacing)/2, 0)

	samples := make([]flowSample, 0, countX*countY)
	for yi := 0; yi < countY; yi++ {
		cy := float64(min(startY+yi*spacing, size.H-1)) + 0.5
		for xi := 0; xi < countX; xi++ {
			cx := float64(min(startX+xi*spacing, size.W-1)) + 0.5
			samples = append(samples, flowSample{cx: cx, cy: cy, sx: cx * scale, sy: cy * scale})
		}
	}
	return samples, spacing
}
