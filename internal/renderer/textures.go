package renderer

import (
	"fmt"
	"image"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"tilemap/internal/atlas"
	"tilemap/internal/pipeline"
	"tilemap/internal/world"
)

// gpuTexture holds a texture and the view the bind group samples
type gpuTexture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

func (t *gpuTexture) release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
	}
	if t.Texture != nil {
		t.Texture.Release()
	}
}

// Both textures are linear. The index texture must read back exactly n/255
// for every stored byte; the atlas mips are averaged on stored bytes.
const (
	indexFormat = wgpu.TextureFormat_RGBA8Unorm
	atlasFormat = wgpu.TextureFormat_RGBA8Unorm
)

// createIndexTexture uploads the world raster
func (r *Renderer) createIndexTexture(w *world.Raster) (*gpuTexture, error) {
	pix := w.RGBA()
	return r.createTexture("world_indices", indexFormat, []*image.RGBA{{
		Pix:    pix,
		Stride: 4 * w.Width,
		Rect:   image.Rect(0, 0, w.Width, w.Height),
	}})
}

// createTilemapTexture uploads the atlas with its full mip chain
func (r *Renderer) createTilemapTexture(bm *atlas.Bitmap) (*gpuTexture, error) {
	return r.createTexture("tilemap", atlasFormat, bm.Mipmaps())
}

func (r *Renderer) createTexture(label string, format wgpu.TextureFormat, levels []*image.RGBA) (*gpuTexture, error) {
	base := levels[0].Bounds()
	texture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(base.Dx()),
			Height:             uint32(base.Dy()),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(len(levels)),
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension_2D,
		Format:        format,
		Usage:         wgpu.TextureUsage_TextureBinding | wgpu.TextureUsage_CopyDst,
	})
	if err != nil {
		return nil, err
	}

	for level, img := range levels {
		err := r.queue.WriteTexture(
			&wgpu.ImageCopyTexture{Texture: texture, MipLevel: uint32(level), Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspect_All},
			img.Pix,
			&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: uint32(img.Stride), RowsPerImage: uint32(img.Bounds().Dy())},
			&wgpu.Extent3D{Width: uint32(img.Bounds().Dx()), Height: uint32(img.Bounds().Dy()), DepthOrArrayLayers: 1},
		)
		if err != nil {
			texture.Release()
			return nil, fmt.Errorf("write %s level %d: %w", label, level, err)
		}
	}

	view, err := texture.CreateView(&wgpu.TextureViewDescriptor{
		Format:          format,
		Dimension:       wgpu.TextureViewDimension_2D,
		BaseMipLevel:    0,
		MipLevelCount:   uint32(len(levels)),
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspect_All,
	})
	if err != nil {
		texture.Release()
		return nil, err
	}

	return &gpuTexture{Texture: texture, View: view}, nil
}

// createSampler turns a sampling policy into a device sampler covering levels mips
func (r *Renderer) createSampler(label string, p pipeline.SamplerPolicy, levels int) (*wgpu.Sampler, error) {
	address := wgpu.AddressMode_ClampToEdge
	if p.Address == pipeline.Repeat {
		address = wgpu.AddressMode_Repeat
	}

	magFilter, minFilter := wgpu.FilterMode_Nearest, wgpu.FilterMode_Nearest
	if p.Mag == pipeline.Linear {
		magFilter = wgpu.FilterMode_Linear
	}
	if p.Min == pipeline.Linear {
		minFilter = wgpu.FilterMode_Linear
	}
	mip := wgpu.MipmapFilterMode_Nearest
	if p.Mipmap == pipeline.Linear {
		mip = wgpu.MipmapFilterMode_Linear
	}

	sampler, err := r.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:          label,
		AddressModeU:   address,
		AddressModeV:   address,
		AddressModeW:   address,
		MagFilter:      magFilter,
		MinFilter:      minFilter,
		MipmapFilter:   mip,
		LodMinClamp:    0,
		LodMaxClamp:    float32(levels - 1),
		MaxAnisotrophy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sampler %s: %v", ErrGPUResource, label, err)
	}
	return sampler, nil
}
