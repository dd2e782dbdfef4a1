package renderer

import (
	"errors"
	"testing"

	"github.com/rajveermalviya/go-webgpu/wgpu"
)

func TestRenderWithoutSwapChain(t *testing.T) {
	// A failed resize leaves the renderer with no swap chain.
	r := &Renderer{}
	err := r.Render(1)
	if !errors.Is(err, ErrGPUResource) {
		t.Fatalf("Render err = %v, want ErrGPUResource", err)
	}
}

func TestResizeToZeroKeepsSize(t *testing.T) {
	r := &Renderer{width: 800, height: 600}
	for _, size := range [][2]uint32{{0, 0}, {0, 600}, {800, 0}} {
		if err := r.Resize(size[0], size[1]); err != nil {
			t.Errorf("Resize(%d, %d) = %v", size[0], size[1], err)
		}
	}
	if r.width != 800 || r.height != 600 {
		t.Errorf("size = %dx%d, want 800x600", r.width, r.height)
	}
}

func TestReleaseEmpty(t *testing.T) {
	r := &Renderer{}
	r.Release()
}

func TestTextureFormatsAreLinear(t *testing.T) {
	// The CPU reference blends raw bytes; an sRGB view would blend in linear light.
	for name, f := range map[string]wgpu.TextureFormat{"index": indexFormat, "atlas": atlasFormat} {
		if f != wgpu.TextureFormat_RGBA8Unorm {
			t.Errorf("%s format = %v, want RGBA8Unorm", name, f)
		}
	}
}
