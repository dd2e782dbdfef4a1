package pipeline

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/paulmach/orb"

	"tilemap/internal/atlas"
	"tilemap/internal/world"
	"tilemap/pkg/tiles"
)

// Textures is a CPU copy of what the GPU program samples. It evaluates the
// fragment stage exactly as the shader does, for snapshots and tests.
// Both textures are Unorm, so filtering blends raw bytes here and on the GPU.
type Textures struct {
	World *world.Raster
	Mips  []*image.RGBA
	Grid  tiles.Grid
	Index SamplerPolicy
	Atlas SamplerPolicy
}

// NewTextures prepares the world raster and the atlas mip chain
func NewTextures(w *world.Raster, bm *atlas.Bitmap, grid tiles.Grid) (*Textures, error) {
	if w == nil || bm == nil {
		return nil, errors.New("pipeline: missing world or atlas")
	}
	if err := bm.FitsGrid(grid); err != nil {
		return nil, err
	}
	return &Textures{
		World: w,
		Mips:  bm.Mipmaps(),
		Grid:  grid,
		Index: IndexPolicy,
		Atlas: AtlasPolicy,
	}, nil
}

// WorldUV is step 1 of the program: zoom the quad UV around the anchor
func WorldUV(uv, anchor [2]float32, zoom float32) [2]float32 {
	return [2]float32{
		anchor[0] + (uv[0]-anchor[0])/zoom,
		anchor[1] + (uv[1]-anchor[1])/zoom,
	}
}

// VisibleSpan is the rectangle of world UV the unit quad shows at a zoom
func VisibleSpan(anchor [2]float32, zoom float32) orb.Bound {
	lo := WorldUV([2]float32{0, 0}, anchor, zoom)
	hi := WorldUV([2]float32{1, 1}, anchor, zoom)
	return orb.Bound{
		Min: orb.Point{float64(lo[0]), float64(lo[1])},
		Max: orb.Point{float64(hi[0]), float64(hi[1])},
	}
}

// DecodeIndex turns a normalized texel back into integer tile coordinates
func DecodeIndex(r, g float32) [2]float32 {
	return [2]float32{
		float32(math.Round(float64(r * 255))),
		float32(math.Round(float64(g * 255))),
	}
}

// AtlasUV is steps 3 and 4: the tile's cell plus the offset inside it
func AtlasUV(tile, worldUV [2]float32, worldW, worldH int, grid tiles.Grid) [2]float32 {
	return [2]float32{
		(tile[0] + fract(worldUV[0]*float32(worldW))) / float32(grid.Columns),
		(tile[1] + fract(worldUV[1]*float32(worldH))) / float32(grid.Rows),
	}
}

// LOD returns the atlas mip level selected for screen-space UV derivatives
// ddx and ddy, matching the gradients the shader passes to textureSampleGrad.
func (t *Textures) LOD(ddx, ddy [2]float32, zoom float32) float32 {
	sx := float32(t.World.Width) / (float32(t.Grid.Columns) * zoom)
	sy := float32(t.World.Height) / (float32(t.Grid.Rows) * zoom)
	aw := float32(t.Mips[0].Rect.Dx())
	ah := float32(t.Mips[0].Rect.Dy())

	lx := math.Hypot(float64(ddx[0]*sx*aw), float64(ddx[1]*sy*ah))
	ly := math.Hypot(float64(ddy[0]*sx*aw), float64(ddy[1]*sy*ah))
	rho := math.Max(lx, ly)
	if rho <= 0 {
		return float32(math.Inf(-1))
	}
	return float32(math.Log2(rho))
}

// Shade runs the fragment program for one fragment
func (t *Textures) Shade(uv, anchor [2]float32, zoom, lod float32) color.RGBA {
	worldUV := WorldUV(uv, anchor, zoom)

	idx := t.sampleIndex(worldUV)
	tile := DecodeIndex(float32(idx.X)/255, float32(idx.Y)/255)

	atlasUV := AtlasUV(tile, worldUV, t.World.Width, t.World.Height, t.Grid)
	return t.sampleAtlas(atlasUV, lod)
}

func (t *Textures) sampleIndex(uv [2]float32) tiles.TileIndex {
	w := t.World
	col := texelCoord(uv[0], w.Width, t.Index.Address)
	row := texelCoord(uv[1], w.Height, t.Index.Address)
	return w.At(col, row)
}

func (t *Textures) sampleAtlas(uv [2]float32, lod float32) color.RGBA {
	if lod <= 0 {
		return sampleLevel(t.Mips[0], uv, t.Atlas.Mag, t.Atlas.Address)
	}

	last := float32(len(t.Mips) - 1)
	if lod > last {
		lod = last
	}
	if t.Atlas.Mipmap == Nearest {
		return sampleLevel(t.Mips[int(lod+0.5)], uv, t.Atlas.Min, t.Atlas.Address)
	}

	lo := int(lod)
	hi := min(lo+1, len(t.Mips)-1)
	frac := lod - float32(lo)
	a := sampleLevel(t.Mips[lo], uv, t.Atlas.Min, t.Atlas.Address)
	b := sampleLevel(t.Mips[hi], uv, t.Atlas.Min, t.Atlas.Address)
	return lerpRGBA(a, b, frac)
}

func sampleLevel(img *image.RGBA, uv [2]float32, f Filter, mode AddressMode) color.RGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if f == Nearest {
		return img.RGBAAt(texelCoord(uv[0], w, mode), texelCoord(uv[1], h, mode))
	}

	fx := uv[0]*float32(w) - 0.5
	fy := uv[1]*float32(h) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	dx := fx - float32(x0)
	dy := fy - float32(y0)

	c00 := img.RGBAAt(address(x0, w, mode), address(y0, h, mode))
	c10 := img.RGBAAt(address(x0+1, w, mode), address(y0, h, mode))
	c01 := img.RGBAAt(address(x0, w, mode), address(y0+1, h, mode))
	c11 := img.RGBAAt(address(x0+1, w, mode), address(y0+1, h, mode))
	return lerpRGBA(lerpRGBA(c00, c10, dx), lerpRGBA(c01, c11, dx), dy)
}

// texelCoord is nearest-texel addressing for a normalized coordinate
func texelCoord(u float32, size int, mode AddressMode) int {
	return address(int(math.Floor(float64(u*float32(size)))), size, mode)
}

func address(i, size int, mode AddressMode) int {
	if mode == Repeat {
		i %= size
		if i < 0 {
			i += size
		}
		return i
	}
	return min(max(i, 0), size-1)
}

func fract(v float32) float32 {
	return v - float32(math.Floor(float64(v)))
}

func lerpRGBA(a, b color.RGBA, t float32) color.RGBA {
	l := func(x, y uint8) uint8 {
		return uint8(float32(x)+(float32(y)-float32(x))*t + 0.5)
	}
	return color.RGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}
