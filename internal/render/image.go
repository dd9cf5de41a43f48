package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"hydro-terrain/internal/core"
)

// PaletteImage renders cells into an RGBA image. Cell counts that do not match
// size are an error.
func PaletteImage(cells []uint8, size core.Size, palette []color.RGBA) (*image.RGBA, error) {
	if len(cells) != size.Cells() || len(cells) == 0 {
		return nil, fmt.Errorf("render: %d cells for a %dx%d grid", len(cells), size.W, size.H)
	}
	img := image.NewRGBA(image.Rect(0, 0, size.W, size.H))
	fillPaletteRGBA(img.Pix, cells, palette)
	return img, nil
}

// EncodePNG writes cells as a PNG image.
func EncodePNG(w io.Writer, cells []uint8, size core.Size, palette []color.RGBA) error {
	img, err := PaletteImage(cells, size, palette)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// WritePNG renders cells to a PNG file at path.
func WritePNG(path string, cells []uint8, size core.Size, palette []color.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodePNG(f, cells, size, palette); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// HeightCells quantizes a height field to 0..255 between its own extremes, for
// use with GrayPalette. A flat field maps to 0.
func HeightCells(field []float32) []uint8 {
	cells := make([]uint8, len(field))
	if len(field) == 0 {
		return cells
	}
	lo, hi := field[0], field[0]
	for _, v := range field {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi <= lo {
		return cells
	}
	scale := 255 / (hi - lo)
	for i, v := range field {
		cells[i] = uint8((v-lo)*scale + 0.5)
	}
	return cells
}
