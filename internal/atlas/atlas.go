package atlas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"tilemap/pkg/tiles"
)

// BytesPerPixel is the size of one decoded atlas pixel
const BytesPerPixel = 3

var (
	ErrDecode                = errors.New("atlas: decode failed")
	ErrUnsupportedColorModel = errors.New("atlas: unsupported color model")
	ErrGridMismatch          = errors.New("atlas: dimensions do not divide into grid")
)

// Bitmap is a decoded RGB atlas with its rows stored bottom-up, so that the
// first row in Pix is the bottom row of the source image.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// Options controls how raw bytes are interpreted
type Options struct {
	// Format forces a decoder ("png", "bmp", "webp", "tga").
	// Empty sniffs the format from its magic bytes; tga has none and must be named.
	Format string
}

type decodeFunc func(io.Reader) (image.Image, error)

var decoders = map[string]decodeFunc{
	"png":  png.Decode,
	"bmp":  bmp.Decode,
	"webp": webp.Decode,
	"tga":  tga.Decode,
}

// FormatFromPath guesses the Options.Format from a file name extension
func FormatFromPath(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	ext := strings.ToLower(path[i+1:])
	if _, ok := decoders[ext]; ok {
		return ext
	}
	return ""
}

func sniff(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(raw, []byte("BM")):
		return "bmp"
	case len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WEBP":
		return "webp"
	}
	return ""
}

// Decode turns compressed image bytes into a flipped RGB bitmap
func Decode(raw []byte, opts Options) (*Bitmap, error) {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = sniff(raw)
		if format == "" {
			return nil, fmt.Errorf("%w: unrecognized image format", ErrDecode)
		}
	}

	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", ErrDecode, format)
	}

	img, err := decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}

	return FromImage(img)
}

// FromImage normalizes an image to RGB and flips its rows
func FromImage(img image.Image) (*Bitmap, error) {
	switch img.ColorModel() {
	case color.AlphaModel, color.Alpha16Model:
		return nil, fmt.Errorf("%w: alpha-only image", ErrUnsupportedColorModel)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	w, h := b.Dx(), b.Dy()
	pix := make([]byte, BytesPerPixel*w*h)
	for y := 0; y < h; y++ {
		// Source row y lands on destination row h-1-y.
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := pix[(h-1-y)*w*BytesPerPixel:]
		for x := 0; x < w; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}

	return &Bitmap{Width: w, Height: h, Pix: pix}, nil
}

// Row returns the bytes of a bottom-based row
func (b *Bitmap) Row(y int) []byte {
	stride := b.Width * BytesPerPixel
	return b.Pix[y*stride : (y+1)*stride]
}

// FitsGrid checks that the atlas splits evenly into grid cells
func (b *Bitmap) FitsGrid(grid tiles.Grid) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	if b.Width%grid.Columns != 0 || b.Height%grid.Rows != 0 {
		return fmt.Errorf("%w: %dx%d atlas, %s grid", ErrGridMismatch, b.Width, b.Height, grid)
	}
	return nil
}

// TileSize returns the pixel size of one grid cell
func (b *Bitmap) TileSize(grid tiles.Grid) (w, h int) {
	return b.Width / grid.Columns, b.Height / grid.Rows
}

// RGBA widens the bitmap to 4-byte texels, keeping the bottom-up row order
func (b *Bitmap) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i := 0; i < b.Width*b.Height; i++ {
		copy(img.Pix[i*4:i*4+3], b.Pix[i*3:i*3+3])
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// Mipmaps returns the full mip chain down to 1x1, level 0 first.
// Rows keep the bitmap's bottom-up order.
func (b *Bitmap) Mipmaps() []*image.RGBA {
	levels := []*image.RGBA{b.RGBA()}
	for {
		prev := levels[len(levels)-1]
		w, h := prev.Rect.Dx(), prev.Rect.Dy()
		if w == 1 && h == 1 {
			return levels
		}
		w, h = max(1, w/2), max(1, h/2)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		levels = append(levels, next)
	}
}

// MipLevelCount returns the number of levels Mipmaps produces
func MipLevelCount(width, height int) int {
	n := 1
	for width > 1 || height > 1 {
		width, height = max(1, width/2), max(1, height/2)
		n++
	}
	return n
}
