package ui

import (
	"image/color"
	"math"
)

// flowColor shades flow arrows from slow (blue) to steep (white).
func flowColor(t float64) color.RGBA {
	t = clamp01(t)
	r := uint8(math.Round(80 + 160*t))
	g := uint8(math.Round(170 + 75*t))
	b := uint8(math.Round(230 + 20*t))
	a := uint8(math.Round(150 + 90*t))
	return color.RGBA{R: r, G: g, B: b, A: a}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

func scaleColorComponent(value uint8, factor float64) uint8 {
	scaled := math.Round(float64(value) * factor)
	return uint8(min(max(scaled, 0), 255))
}

var elevationStops = []struct {
	t   float64
	col color.RGBA
}{
	{0.0, color.RGBA{R: 40, G: 60, B: 120, A: 150}},
	{0.25, color.RGBA{R: 70, G: 105, B: 160, A: 165}},
	{0.5, color.RGBA{R: 90, G: 150, B: 100, A: 185}},
	{0.75, color.RGBA{R: 190, G: 160, B: 80, A: 205}},
	{1.0, color.RGBA{R: 240, G: 235, B: 215, A: 215}},
}

func elevationColor(t float64) color.RGBA {
	t = clamp01(t)
	for i := 1; i < len(elevationStops); i++ {
		curr := elevationStops[i]
		if t <= curr.t {
			prev := elevationStops[i-1]
			local := (t - prev.t) / (curr.t - prev.t)
			return lerpRGBA(prev.col, curr.col, local)
		}
	}
	return elevationStops[len(elevationStops)-1].col
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: lerpComponent(a.R, b.R, t),
		G: lerpComponent(a.G, b.G, t),
		B: lerpComponent(a.B, b.B, t),
		A: lerpComponent(a.A, b.A, t),
	}
}

func lerpComponent(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// maskPixel converts a mask intensity into a tinted pixel with a soft alpha
// ramp. Zero intensity is fully transparent.
func maskPixel(intensity float64, tint color.RGBA) color.RGBA {
	const (
		maxAlpha      = 140.0
		glowBase      = 0.35
		glowRange     = 0.65
		intensityBias = 0.75
	)
	intensity = clamp01(intensity)
	if intensity == 0 {
		return color.RGBA{}
	}
	glow := glowBase + glowRange*math.Sqrt(intensity)
	return color.RGBA{
		R: scaleColorComponent(tint.R, glow),
		G: scaleColorComponent(tint.G, glow),
		B: scaleColorComponent(tint.B, glow),
		A: uint8(math.Round(maxAlpha * math.Pow(intensity, intensityBias))),
	}
}

// elevationPixels writes an elevation tint for a float height field into buf,
// fading flat areas so slopes stand out.
func elevationPixels(buf []byte, field []float32, w, h int) {
	if len(field) != w*h || len(field) == 0 {
		return
	}
	lo, hi := field[0], field[0]
	for _, v := range field {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := float64(hi - lo)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			t := 0.0
			slope := 0.0
			if span > 0 {
				t = float64(field[idx]-lo) / span
				v := field[idx]
				var maxDiff float32
				if x > 0 {
					maxDiff = max(maxDiff, absf(v-field[idx-1]))
				}
				if x+1 < w {
					maxDiff = max(maxDiff, absf(v-field[idx+1]))
				}
				if y > 0 {
					maxDiff = max(maxDiff, absf(v-field[idx-w]))
				}
				if y+1 < h {
					maxDiff = max(maxDiff, absf(v-field[idx+w]))
				}
				// Neighbour steps are small next to the full range; stretch them.
				slope = clamp01(float64(maxDiff) / span * 16)
			}
			col := elevationColor(t)
			alpha := float64(col.A) * (0.55 + 0.45*slope)
			base := idx * 4
			buf[base+0] = col.R
			buf[base+1] = col.G
			buf[base+2] = col.B
			buf[base+3] = uint8(math.Round(min(max(alpha, 0), 255)))
		}
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
