//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"hydro-terrain/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

type maskProvider interface {
	ErosionMask() []float32
	DepositionMask() []float32
}

type flowFieldProvider interface {
	FlowVectorAt(x, y float64) (float64, float64)
}

type elevationFieldProvider interface {
	ElevationField() []float32
}

var (
	erosionTint    = color.RGBA{R: 255, G: 120, B: 40}
	depositionTint = color.RGBA{R: 64, G: 164, B: 223}
)

// Overlay draws optional debugging visuals on top of the base simulation.
// Keys 1-4 toggle erosion, deposition, flow arrows and elevation.
type Overlay struct {
	sim            core.Sim
	scale          int
	showErosion    bool
	showDeposition bool
	showFlow       bool
	showElev       bool

	maskImg *ebiten.Image
	maskBuf []byte

	elevationImg *ebiten.Image
	elevationBuf []byte

	flowSamples []flowSample
	flowCache   core.Size
	flowScale   int
	flowSpan    float64
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	return &Overlay{sim: sim, scale: max(scale, 1)}
}

// Update toggles layers from the keyboard.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showErosion = !o.showErosion
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showDeposition = !o.showDeposition
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showFlow = !o.showFlow
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit4) {
		o.showElev = !o.showElev
	}
}

// Draw renders the enabled layers onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	total := size.Cells()
	if total == 0 {
		return
	}

	if o.showElev {
		if provider, ok := o.sim.(elevationFieldProvider); ok {
			o.drawElevation(screen, provider.ElevationField(), size)
		}
	}

	if provider, ok := o.sim.(maskProvider); ok && (o.showErosion || o.showDeposition) {
		if o.maskImg == nil || len(o.maskBuf) != 4*total {
			o.maskImg = ebiten.NewImage(size.W, size.H)
			o.maskBuf = make([]byte, 4*total)
		}
		if o.showErosion {
			o.drawMask(screen, provider.ErosionMask(), erosionTint)
		}
		if o.showDeposition {
			o.drawMask(screen, provider.DepositionMask(), depositionTint)
		}
	}

	if o.showFlow {
		if provider, ok := o.sim.(flowFieldProvider); ok {
			o.drawFlowField(screen, provider, size)
		}
	}
}

func (o *Overlay) drawMask(screen *ebiten.Image, mask []float32, tint color.RGBA) {
	if len(mask)*4 != len(o.maskBuf) {
		return
	}
	for i, v := range mask {
		px := maskPixel(float64(v), tint)
		base := i * 4
		o.maskBuf[base+0] = px.R
		o.maskBuf[base+1] = px.G
		o.maskBuf[base+2] = px.B
		o.maskBuf[base+3] = px.A
	}
	o.maskImg.ReplacePixels(o.maskBuf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(o.scale), float64(o.scale))
	screen.DrawImage(o.maskImg, op)
}

func (o *Overlay) drawElevation(screen *ebiten.Image, field []float32, size core.Size) {
	total := size.Cells()
	if len(field) != total {
		return
	}
	if o.elevationImg == nil || len(o.elevationBuf) != 4*total {
		o.elevationImg = ebiten.NewImage(size.W, size.H)
		o.elevationBuf = make([]byte, 4*total)
	}
	elevationPixels(o.elevationBuf, field, size.W, size.H)
	o.elevationImg.ReplacePixels(o.elevationBuf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(o.scale), float64(o.scale))
	screen.DrawImage(o.elevationImg, op)
}

func (o *Overlay) drawFlowField(screen *ebiten.Image, provider flowFieldProvider, size core.Size) {
	if !o.ensureFlowSamples(size) {
		return
	}

	const (
		flatThreshold = 0.02
		maxSlope      = 0.7
		headAngle     = math.Pi / 6
		flatDotScale  = 0.18
		minThickness  = 0.65
		maxThickness  = 1.05
	)
	scale := float64(o.scale)
	minLength := o.flowSpan * 0.35
	maxLength := o.flowSpan * 0.7
	flatDot := max(o.flowSpan*flatDotScale, scale*0.75)

	for _, sample := range o.flowSamples {
		vx, vy := provider.FlowVectorAt(sample.cx, sample.cy)
		slope := math.Hypot(vx, vy)
		if slope < flatThreshold {
			o.drawPoint(screen, sample.sx, sample.sy, flatDot, color.RGBA{R: 90, G: 130, B: 170, A: 120})
			continue
		}

		nx, ny := vx/slope, vy/slope
		normalized := clamp01(slope / maxSlope)
		length := minLength + (maxLength-minLength)*math.Sqrt(normalized)
		headLength := math.Min(length*0.3, scale*4.5)
		tailLength := length * 0.4
		tipX := sample.sx + nx*(length-tailLength)
		tipY := sample.sy + ny*(length-tailLength)
		tailX := sample.sx - nx*tailLength
		tailY := sample.sy - ny*tailLength

		thickness := max(scale*(minThickness+(maxThickness-minThickness)*normalized), 1)
		col := flowColor(normalized)
		o.drawLine(screen, tailX, tailY, tipX-nx*headLength, tipY-ny*headLength, thickness, col)

		angle := math.Atan2(ny, nx)
		o.drawLine(screen, tipX, tipY, tipX-math.Cos(angle+headAngle)*headLength, tipY-math.Sin(angle+headAngle)*headLength, thickness*0.85, col)
		o.drawLine(screen, tipX, tipY, tipX-math.Cos(angle-headAngle)*headLength, tipY-math.Sin(angle-headAngle)*headLength, thickness*0.85, col)
	}
}

func (o *Overlay) ensureFlowSamples(size core.Size) bool {
	if o.flowCache == size && o.flowScale == o.scale && len(o.flowSamples) > 0 {
		return true
	}
	samples, spacing := flowGrid(size, float64(o.scale))
	o.flowSamples = samples
	o.flowCache = size
	o.flowScale = o.scale
	o.flowSpan = float64(spacing * o.scale)
	return len(o.flowSamples) > 0
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if size <= 0 {
		return
	}
	vector.DrawFilledCircle(screen, float32(x), float32(y), float32(size*0.5), col, true)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if thickness <= 0 || math.Hypot(x2-x1, y2-y1) <= 1e-4 {
		return
	}
	vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), float32(thickness), col, true)
}
