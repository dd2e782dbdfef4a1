package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"tilemap/internal/atlas"
	"tilemap/internal/geometry"
	"tilemap/internal/pipeline"
	"tilemap/internal/world"
	"tilemap/pkg/tiles"
)

var (
	red         = color.RGBA{R: 255, A: 255}
	green       = color.RGBA{G: 255, A: 255}
	blue        = color.RGBA{B: 255, A: 255}
	yellow      = color.RGBA{R: 255, G: 255, A: 255}
	transparent = color.RGBA{}
)

var tileColors = map[tiles.TileIndex]color.RGBA{
	{X: 0, Y: 0}: red,
	{X: 1, Y: 0}: green,
	{X: 0, Y: 1}: blue,
	{X: 1, Y: 1}: yellow,
}

// atlasPNG encodes a 4x4 atlas of 2x2 solid tiles, top row first as PNG stores it
func atlasPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, tileColors[tiles.TileIndex{X: uint8(x / 2), Y: uint8(1 - y/2)}])
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTextures(t *testing.T) *pipeline.Textures {
	t.Helper()
	bm, err := atlas.Decode(atlasPNG(t), atlas.Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pattern := tiles.Pattern{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	w, err := world.Generate(4, 4, pattern)
	if err != nil {
		t.Fatal(err)
	}
	tex, err := pipeline.NewTextures(w, bm, tiles.Grid{Columns: 2, Rows: 2})
	if err != nil {
		t.Fatal(err)
	}
	return tex
}

// blockCenter returns the screen pixel at the middle of world pixel (col, row)
// when the default quad covers a 128x128 target: 64 px across, 16 px per cell.
func blockCenter(col, row int) (x, y int) {
	return 32 + col*16 + 8, 96 - row*16 - 8
}

func TestRenderZoomOneReproducesPattern(t *testing.T) {
	tex := newTextures(t)
	img := Render(geometry.DefaultQuad(), tex, 1, Options{Width: 128, Height: 128})

	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			x, y := blockCenter(col, row)
			want := tileColors[tex.World.At(col, row)]
			if got := img.RGBAAt(x, y); got != want {
				t.Errorf("world (%d,%d) at screen (%d,%d) = %v, want %v", col, row, x, y, got, want)
			}
		}
	}
}

func TestRenderHasNoBlendedTexels(t *testing.T) {
	tex := newTextures(t)
	img := Render(geometry.DefaultQuad(), tex, 1, Options{Width: 128, Height: 128})

	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			c := img.RGBAAt(x, y)
			inside := x >= 32 && x < 96 && y >= 32 && y < 96
			if !inside {
				if c != transparent {
					t.Fatalf("pixel (%d,%d) outside the quad = %v", x, y, c)
				}
				continue
			}
			switch c {
			case red, green, blue, yellow:
			default:
				t.Fatalf("pixel (%d,%d) = %v is not a tile color", x, y, c)
			}
		}
	}
}

func TestRenderBlocksAreSolid(t *testing.T) {
	tex := newTextures(t)
	img := Render(geometry.DefaultQuad(), tex, 1, Options{Width: 128, Height: 128})

	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			want := tileColors[tex.World.At(col, row)]
			x0, y0 := 32+col*16, 96-(row+1)*16
			for y := y0; y < y0+16; y++ {
				for x := x0; x < x0+16; x++ {
					if got := img.RGBAAt(x, y); got != want {
						t.Fatalf("block (%d,%d) pixel (%d,%d) = %v, want %v", col, row, x, y, got, want)
					}
				}
			}
		}
	}
}

func TestRenderZoomInAnchorsBottomLeft(t *testing.T) {
	tex := newTextures(t)
	img := Render(geometry.DefaultQuad(), tex, 2, Options{Width: 128, Height: 128})

	// At zoom 2 the quad shows world cells [0,2)x[0,2), 32 px each.
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			x, y := 32+col*32+16, 96-row*32-16
			want := tileColors[tex.World.At(col, row)]
			if got := img.RGBAAt(x, y); got != want {
				t.Errorf("world (%d,%d) = %v, want %v", col, row, got, want)
			}
		}
	}
}

func TestRenderProvokingLastBreaksAnchor(t *testing.T) {
	tex := newTextures(t)
	first := Render(geometry.DefaultQuad(), tex, 2, Options{Width: 128, Height: 128})
	last := Render(geometry.DefaultQuad(), tex, 2, Options{
		Width:     128,
		Height:    128,
		Provoking: geometry.ProvokingLast,
	})

	if bytes.Equal(first.Pix, last.Pix) {
		t.Fatal("last-vertex convention rendered the same image; anchor is not provoking-vertex dependent")
	}
}

func TestRenderZoomOneIgnoresProvokingVertex(t *testing.T) {
	tex := newTextures(t)
	first := Render(geometry.DefaultQuad(), tex, 1, Options{Width: 64, Height: 64})
	last := Render(geometry.DefaultQuad(), tex, 1, Options{Width: 64, Height: 64, Provoking: geometry.ProvokingLast})

	if !bytes.Equal(first.Pix, last.Pix) {
		t.Error("at zoom 1 the anchor cancels out, images should match")
	}
}

func TestRenderZoomedOutStaysInsideQuad(t *testing.T) {
	tex := newTextures(t)
	img := Render(geometry.DefaultQuad(), tex, 0.05, Options{Width: 64, Height: 64, Clear: transparent})

	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			inside := x >= 16 && x < 48 && y >= 16 && y < 48
			if c := img.RGBAAt(x, y); inside == (c == transparent) {
				t.Fatalf("pixel (%d,%d) = %v, inside quad: %v", x, y, c, inside)
			}
		}
	}
}
