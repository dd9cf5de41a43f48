package ui

import (
	"image/color"
	"testing"

	"hydro-terrain/internal/core"
)

func TestStepTargetClampsAndRounds(t *testing.T) {
	drops := core.RangeControl("drops_per_cycle", "Drops", core.ParamTypeInt, 0, 2048, 64)
	if got, ok := stepTarget(drops, 2000, 1); !ok || got != 2048 {
		t.Fatalf("step up = %v, %v", got, ok)
	}
	if _, ok := stepTarget(drops, 2048, 1); ok {
		t.Fatal("step past max should be rejected")
	}
	if got, ok := stepTarget(drops, 10, -1); !ok || got != 0 {
		t.Fatalf("step down = %v, %v", got, ok)
	}

	freq := core.RangeControl("base_frequency", "Freq", core.ParamTypeFloat, 0.0005, 0.05, 0.0005)
	if _, ok := stepTarget(freq, 0.0005, -1); ok {
		t.Fatal("float step below min should be rejected")
	}
	if got, ok := stepTarget(freq, 0.01, 1); !ok || got != 0.0105 {
		t.Fatalf("float step = %v, %v", got, ok)
	}
	if _, ok := stepTarget(freq, 0.01, 0); ok {
		t.Fatal("zero direction must not change value")
	}
}

func TestFormatValuePrecision(t *testing.T) {
	cases := []struct {
		ctrl core.ParameterControl
		v    float64
		want string
	}{
		{core.RangeControl("a", "", core.ParamTypeFloat, 0, 1, 0.0001), 0.00123, "0.0012"},
		{core.RangeControl("b", "", core.ParamTypeFloat, 0, 1, 0.005), 0.05, "0.050"},
		{core.RangeControl("c", "", core.ParamTypeFloat, 0, 1, 0.05), 1.2, "1.20"},
		{core.RangeControl("d", "", core.ParamTypeFloat, 0, 120, 1), 20, "20.0"},
		{core.RangeControl("e", "", core.ParamTypeInt, 0, 9, 1), 3.6, "4"},
	}
	for _, tc := range cases {
		if got := formatValue(tc.ctrl, tc.v); got != tc.want {
			t.Fatalf("formatValue(%s, %v) = %q, want %q", tc.ctrl.Key, tc.v, got, tc.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	intCtrl := core.RangeControl("k", "", core.ParamTypeInt, 0, 9, 1)
	if v, ok := parseValue(intCtrl, "7"); !ok || v != 7 {
		t.Fatalf("parse int = %v, %v", v, ok)
	}
	if _, ok := parseValue(intCtrl, "7.5"); ok {
		t.Fatal("int control must reject floats")
	}
}

func TestMaskPixel(t *testing.T) {
	if px := maskPixel(0, erosionTintForTest); px != (color.RGBA{}) {
		t.Fatalf("zero intensity should be transparent, got %v", px)
	}
	full := maskPixel(1, erosionTintForTest)
	if full.A != 140 || full.R != 255 {
		t.Fatalf("full intensity = %v", full)
	}
	if half := maskPixel(0.5, erosionTintForTest); half.A >= full.A || half.A == 0 {
		t.Fatalf("half intensity alpha %d", half.A)
	}
}

var erosionTintForTest = color.RGBA{R: 255, G: 120, B: 40}

func TestElevationColorEndpoints(t *testing.T) {
	if got := elevationColor(-1); got != elevationStops[0].col {
		t.Fatalf("low clamp = %v", got)
	}
	if got := elevationColor(2); got != elevationStops[len(elevationStops)-1].col {
		t.Fatalf("high clamp = %v", got)
	}
}

func TestElevationPixelsFlatField(t *testing.T) {
	field := make([]float32, 6)
	buf := make([]byte, 24)
	elevationPixels(buf, field, 3, 2)
	want := elevationStops[0].col
	for i := 0; i < 6; i++ {
		if buf[i*4] != want.R || buf[i*4+3] != uint8(float64(want.A)*0.55+0.5) {
			t.Fatalf("pixel %d = %v", i, buf[i*4:i*4+4])
		}
	}
}

func TestFlowGridCoversGrid(t *testing.T) {
	samples, spacing := flowGrid(core.Size{W: 256, H: 256}, 3)
	if spacing != 13 {
		t.Fatalf("spacing = %d", spacing)
	}
	for _, s := range samples {
		if s.cx < 0 || s.cx > 256 || s.cy < 0 || s.cy > 256 || s.sx != s.cx*3 {
			t.Fatalf("sample out of grid: %+v", s)
		}
	}
	if len(samples) != 20*20 {
		t.Fatalf("sample count %d", len(samples))
	}
	if s, _ := flowGrid(core.Size{}, 1); s != nil {
		t.Fatal("empty grid should have no samples")
	}
}
