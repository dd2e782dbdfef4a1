package world

import (
	"errors"
	"fmt"

	"tilemap/pkg/tiles"
)

// BytesPerPixel is the size of one encoded tile index: x, y and a reserved zero byte
const BytesPerPixel = 3

var ErrInvalidDimensions = errors.New("world: invalid dimensions")

// Raster holds one tile index per world pixel, packed as RGB triplets.
// Pixels are stored row-major with row 0 at the bottom of the world, the order
// in which a GPU texture upload fills rows from texture coordinate v = 0.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// Generate fills a width x height raster with the pattern, cycling through it
// pixel by pixel starting from the bottom row.
func Generate(width, height int, pattern tiles.Pattern) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(pattern) == 0 {
		return nil, tiles.ErrEmptyPattern
	}

	pix := make([]byte, BytesPerPixel*width*height)
	for i := 0; i < width*height; i++ {
		t := pattern.At(i)
		p := pix[i*BytesPerPixel : i*BytesPerPixel+BytesPerPixel]
		p[0] = t.X
		p[1] = t.Y
		p[2] = 0
	}

	return &Raster{Width: width, Height: height, Pix: pix}, nil
}

// At returns the tile index at a column and a bottom-based row
func (r *Raster) At(col, row int) tiles.TileIndex {
	i := (row*r.Width + col) * BytesPerPixel
	return tiles.TileIndex{X: r.Pix[i], Y: r.Pix[i+1]}
}

// Validate reports the first pixel whose index falls outside the grid.
// Out of range indices are not fatal for rendering; they sample whatever the
// atlas address mode yields.
func (r *Raster) Validate(grid tiles.Grid) error {
	for i := 0; i < r.Width*r.Height; i++ {
		t := tiles.TileIndex{X: r.Pix[i*BytesPerPixel], Y: r.Pix[i*BytesPerPixel+1]}
		if !grid.Contains(t) {
			return fmt.Errorf("%w: pixel (%d,%d)=%s for grid %s",
				tiles.ErrIndexOutOfRange, i%r.Width, i/r.Width, t, grid)
		}
	}
	return nil
}

// RGBA widens the raster to 4-byte texels for texture formats without a
// 3-channel variant. Alpha is opaque and ignored by the sampler.
func (r *Raster) RGBA() []byte {
	out := make([]byte, 4*r.Width*r.Height)
	for i := 0; i < r.Width*r.Height; i++ {
		copy(out[i*4:i*4+3], r.Pix[i*BytesPerPixel:i*BytesPerPixel+3])
		out[i*4+3] = 0xff
	}
	return out
}
