package render

import (
	"bytes"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"hydro-terrain/internal/core"
)

func TestFillPaletteClampsIndex(t *testing.T) {
	palette := []color.RGBA{{R: 1, A: 255}, {G: 2, A: 255}}
	buf := make([]byte, 12)
	fillPaletteRGBA(buf, []uint8{0, 1, 9}, palette)
	want := []byte{1, 0, 0, 255, 0, 2, 0, 255, 0, 2, 0, 255}
	if !bytes.Equal(buf, want) {
		t.Fatalf("buf = %v, want %v", buf, want)
	}

	fillPaletteRGBA(buf, []uint8{0, 1, 2}, nil)
	if !bytes.Equal(buf, make([]byte, 12)) {
		t.Fatalf("empty palette should clear, got %v", buf)
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	size := core.Size{W: 3, H: 2}
	cells := []uint8{0, 64, 128, 192, 255, 10}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, cells, size, GrayPalette()); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("bounds %v", b)
	}
	r, _, _, _ := img.At(1, 1).RGBA()
	if uint8(r>>8) != 255 {
		t.Fatalf("pixel (1,1) red = %d", r>>8)
	}
}

func TestPaletteImageRejectsMismatch(t *testing.T) {
	if _, err := PaletteImage([]uint8{1, 2}, core.Size{W: 2, H: 2}, GrayPalette()); err == nil {
		t.Fatal("expected size mismatch error")
	}
	path := filepath.Join(t.TempDir(), "x.png")
	if err := WritePNG(path, nil, core.Size{W: 1, H: 1}, nil); err == nil {
		t.Fatal("expected error for empty cells")
	}
}

func TestHeightCells(t *testing.T) {
	got := HeightCells([]float32{-2, 0, 2})
	if !bytes.Equal(got, []byte{0, 128, 255}) {
		t.Fatalf("HeightCells = %v", got)
	}
	if flat := HeightCells([]float32{3, 3}); !bytes.Equal(flat, []byte{0, 0}) {
		t.Fatalf("flat field = %v", flat)
	}
}
