package hydrology

import (
	"fmt"
	"image/color"

	"github.com/mazznoer/colorgrad"

	"hydro-terrain/internal/terrain"
)

const (
	displayShadeMask  = 0x0f
	displayBandShift  = 4
	displayLevels     = 16
	displayBandCount  = 16
	minShadeIntensity = 0.25
)

// sunDir points toward the light: low from the north-west.
var sunDir = terrain.Normalize([3]float32{-1, 1.5, -1})

var terrainPalette = buildTerrainPalette()

// Palette exposes the colors indexed by Cells.
func (w *World) Palette() []color.RGBA {
	return terrainPalette
}

// Display values pack an elevation band in the high nibble and a shade level
// in the low nibble.
func buildTerrainPalette() []color.RGBA {
	palette := make([]color.RGBA, displayBandCount*displayLevels)
	for i := range palette {
		band := i >> displayBandShift
		shade := i & displayShadeMask
		base := elevationRamp(float64(band) / float64(displayBandCount-1))
		k := minShadeIntensity + (1-minShadeIntensity)*float64(shade)/float64(displayLevels-1)
		palette[i] = color.RGBA{
			R: uint8(float64(base.R) * k),
			G: uint8(float64(base.G) * k),
			B: uint8(float64(base.B) * k),
			A: 255,
		}
	}
	return palette
}

var elevationGradient = mustGradient(
	color.RGBA{R: 46, G: 84, B: 60, A: 255},
	color.RGBA{R: 92, G: 128, B: 70, A: 255},
	color.RGBA{R: 140, G: 120, B: 84, A: 255},
	color.RGBA{R: 150, G: 146, B: 140, A: 255},
	color.RGBA{R: 238, G: 238, B: 242, A: 255},
)

func mustGradient(stops ...color.Color) colorgrad.Gradient {
	g, err := colorgrad.NewGradient().Colors(stops...).Build()
	if err != nil {
		panic(fmt.Sprintf("hydrology: elevation gradient: %v", err))
	}
	return g
}

func elevationRamp(t float64) color.RGBA {
	r, g, b, _ := elevationGradient.At(min(max(t, 0), 1)).RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
}

func (w *World) rebuildDisplay() {
	span := w.elevHi - w.elevLo
	normals := w.mesh.Normals
	for i, h := range w.elevation.Cells() {
		band := 0
		if span > 0 {
			t := (h - w.elevLo) / span
			band = int(t*float32(displayBandCount-1) + 0.5)
			band = min(max(band, 0), displayBandCount-1)
		}
		base := i * terrain.VerticesPerCell
		n1, n2 := normals[base], normals[base+3]
		lambert := 0.5 * (dot(n1, sunDir) + dot(n2, sunDir))
		shade := int(max(lambert, 0)*float32(displayLevels-1) + 0.5)
		shade = min(shade, displayLevels-1)
		w.display[i] = uint8(band<<displayBandShift | shade)
	}
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
