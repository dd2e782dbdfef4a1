package app

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"tilemap/internal/log"
)

const instanceBackends = wgpu.InstanceBackend_Vulkan

// CreateSurface creates a WebGPU surface from a GLFW window on X11
func CreateSurface(instance *wgpu.Instance, window *glfw.Window) *wgpu.Surface {
	display := glfw.GetX11Display()
	if display == nil {
		log.Error("GetX11Display returned nil, is DISPLAY set?")
		return nil
	}

	surface := instance.CreateSurface(&wgpu.SurfaceDescriptor{
		Label: "TilemapSurface",
		XlibWindow: &wgpu.SurfaceDescriptorFromXlibWindow{
			Display: unsafe.Pointer(display),
			Window:  uint32(window.GetX11Window()),
		},
	})

	if surface == nil {
		log.Error("CreateSurface returned nil")
	}

	return surface
}
