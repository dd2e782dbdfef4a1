package raster

import (
	"image"
	"image/color"

	"tilemap/internal/geometry"
	"tilemap/internal/pipeline"
)

// Options describes the software render target
type Options struct {
	Width     int
	Height    int
	Clear     color.RGBA
	Provoking geometry.ProvokingVertex
}

// Render draws the quad with the reference fragment program into a top-down
// image, as a framebuffer readback would return it.
func Render(q geometry.Quad, tex *pipeline.Textures, zoom float32, opts Options) *image.RGBA {
	w, h := opts.Width, opts.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4] = opts.Clear.R
		img.Pix[i*4+1] = opts.Clear.G
		img.Pix[i*4+2] = opts.Clear.B
		img.Pix[i*4+3] = opts.Clear.A
	}

	// One screen pixel step in quad UV. The mapping is affine, so the
	// derivatives are the same for every fragment.
	ddx := [2]float32{2 / float32(w) / q.Size[0], 0}
	ddy := [2]float32{0, 2 / float32(h) / q.Size[1]}
	lod := tex.LOD(ddx, ddy, zoom)

	covered := make([]bool, w*h)
	for _, tri := range q.Triangles() {
		anchor := q.UV(q.Vertices[q.Provoking(tri, opts.Provoking)].Position)

		var pts [3][2]float32
		for i, v := range tri {
			pts[i] = toScreen(q.Vertices[v].Position, w, h)
		}
		area := edge(pts[0], pts[1], pts[2])
		if area == 0 {
			continue
		}

		minX, minY, maxX, maxY := bounds(pts, w, h)
		for py := minY; py <= maxY; py++ {
			for px := minX; px <= maxX; px++ {
				if covered[py*w+px] {
					continue
				}
				p := [2]float32{float32(px) + 0.5, float32(py) + 0.5}
				w0 := edge(pts[1], pts[2], p) / area
				w1 := edge(pts[2], pts[0], p) / area
				w2 := edge(pts[0], pts[1], p) / area
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				covered[py*w+px] = true

				uv := q.UV(toNDC(p, w, h))
				img.SetRGBA(px, py, tex.Shade(uv, anchor, zoom, lod))
			}
		}
	}

	return img
}

func toScreen(ndc [2]float32, w, h int) [2]float32 {
	return [2]float32{
		(ndc[0] + 1) / 2 * float32(w),
		(1 - ndc[1]) / 2 * float32(h),
	}
}

func toNDC(p [2]float32, w, h int) [2]float32 {
	return [2]float32{
		p[0]/float32(w)*2 - 1,
		1 - p[1]/float32(h)*2,
	}
}

func edge(a, b, p [2]float32) float32 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

func bounds(pts [3][2]float32, w, h int) (minX, minY, maxX, maxY int) {
	lx, ly := pts[0][0], pts[0][1]
	hx, hy := lx, ly
	for _, p := range pts[1:] {
		lx, ly = min(lx, p[0]), min(ly, p[1])
		hx, hy = max(hx, p[0]), max(hy, p[1])
	}
	minX = max(int(lx), 0)
	minY = max(int(ly), 0)
	maxX = min(int(hx), w-1)
	maxY = min(int(hy), h-1)
	return minX, minY, maxX, maxY
}
