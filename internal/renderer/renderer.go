package renderer

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"tilemap/internal/atlas"
	"tilemap/internal/geometry"
	"tilemap/internal/log"
	"tilemap/internal/pipeline"
	"tilemap/internal/scene"
)

// ErrGPUResource wraps failures creating device objects
var ErrGPUResource = errors.New("gpu resource creation failed")

// Options are the per-surface presentation settings
type Options struct {
	ClearColor wgpu.Color
	VSync      bool
}

// Renderer handles all WebGPU rendering
type Renderer struct {
	device          *wgpu.Device
	queue           *wgpu.Queue
	surface         *wgpu.Surface
	adapter         *wgpu.Adapter
	swapChain       *wgpu.SwapChain
	swapChainFormat wgpu.TextureFormat
	presentMode     wgpu.PresentMode
	pipeline        *wgpu.RenderPipeline
	bindGroupLayout *wgpu.BindGroupLayout

	indices        *gpuTexture
	tilemap        *gpuTexture
	indicesSampler *wgpu.Sampler
	tilemapSampler *wgpu.Sampler

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer

	scene *scene.Scene
	opts  Options

	width  uint32
	height uint32
}

// NewRenderer creates the pipeline and uploads the scene
func NewRenderer(adapter *wgpu.Adapter, device *wgpu.Device, queue *wgpu.Queue, surface *wgpu.Surface, width, height uint32, s *scene.Scene, opts Options) (*Renderer, error) {
	if s == nil || s.World == nil || s.Atlas == nil {
		return nil, errors.New("renderer: scene needs a world and an atlas")
	}

	r := &Renderer{
		adapter:     adapter,
		device:      device,
		queue:       queue,
		surface:     surface,
		width:       width,
		height:      height,
		scene:       s,
		opts:        opts,
		presentMode: wgpu.PresentMode_Fifo,
	}
	if !opts.VSync {
		r.presentMode = wgpu.PresentMode_Immediate
	}

	if err := r.init(); err != nil {
		r.Release()
		return nil, err
	}

	return r, nil
}

func (r *Renderer) init() error {
	r.swapChainFormat = r.surface.GetPreferredFormat(r.adapter)

	if err := r.createSwapChain(); err != nil {
		return err
	}

	if err := pipeline.Validate(); err != nil {
		// The driver compiles the module below and has the final word.
		log.Warnf("offline shader check: %v", err)
	}

	shader, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "tilemap_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: pipeline.Shader},
	})
	if err != nil {
		return fmt.Errorf("%w: shader: %v", ErrGPUResource, err)
	}
	defer shader.Release()

	r.indicesSampler, err = r.createSampler("indices_sampler", pipeline.IndexPolicy, 1)
	if err != nil {
		return err
	}
	levels := atlas.MipLevelCount(r.scene.Atlas.Width, r.scene.Atlas.Height)
	r.tilemapSampler, err = r.createSampler("tilemap_sampler", pipeline.AtlasPolicy, levels)
	if err != nil {
		return err
	}

	r.bindGroupLayout, err = r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "tilemap_bind_group_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    pipeline.BindingUniforms,
				Visibility: wgpu.ShaderStage_Vertex | wgpu.ShaderStage_Fragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingType_Uniform},
			},
			{
				Binding:    pipeline.BindingIndices,
				Visibility: wgpu.ShaderStage_Fragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleType_Float,
					ViewDimension: wgpu.TextureViewDimension_2D,
				},
			},
			{
				Binding:    pipeline.BindingIndicesSampler,
				Visibility: wgpu.ShaderStage_Fragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingType_Filtering},
			},
			{
				Binding:    pipeline.BindingTilemap,
				Visibility: wgpu.ShaderStage_Fragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleType_Float,
					ViewDimension: wgpu.TextureViewDimension_2D,
				},
			},
			{
				Binding:    pipeline.BindingTilemapSampler,
				Visibility: wgpu.ShaderStage_Fragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingType_Filtering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: bind group layout: %v", ErrGPUResource, err)
	}

	pipelineLayout, err := r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "tilemap_pipeline_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.bindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("%w: pipeline layout: %v", ErrGPUResource, err)
	}
	defer pipelineLayout.Release()

	r.pipeline, err = r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "tilemap_pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(geometry.Vertex{})),
				StepMode:    wgpu.VertexStepMode_Vertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormat_Float32x2, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    r.swapChainFormat,
				Blend:     &wgpu.BlendState_Replace,
				WriteMask: wgpu.ColorWriteMask_All,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopology_TriangleList,
			CullMode: wgpu.CullMode_None,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: pipeline: %v", ErrGPUResource, err)
	}

	if err := r.uploadScene(); err != nil {
		return err
	}

	log.WithField("format", r.swapChainFormat).Infof("pipeline ready: world %dx%d, atlas %dx%d (%s, %d mips)",
		r.scene.World.Width, r.scene.World.Height,
		r.scene.Atlas.Width, r.scene.Atlas.Height, r.scene.Grid, levels)
	return nil
}

// uploadScene creates the two textures and the static quad buffers
func (r *Renderer) uploadScene() error {
	var err error

	r.indices, err = r.createIndexTexture(r.scene.World)
	if err != nil {
		return fmt.Errorf("%w: index texture: %v", ErrGPUResource, err)
	}

	r.tilemap, err = r.createTilemapTexture(r.scene.Atlas)
	if err != nil {
		return fmt.Errorf("%w: tilemap texture: %v", ErrGPUResource, err)
	}

	r.vertexBuffer, err = r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "quad_vertices",
		Contents: wgpu.ToBytes(r.scene.Quad.Vertices[:]),
		Usage:    wgpu.BufferUsage_Vertex,
	})
	if err != nil {
		return fmt.Errorf("%w: vertex buffer: %v", ErrGPUResource, err)
	}

	r.indexBuffer, err = r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "quad_indices",
		Contents: wgpu.ToBytes(r.scene.Quad.Indices[:]),
		Usage:    wgpu.BufferUsage_Index,
	})
	if err != nil {
		return fmt.Errorf("%w: index buffer: %v", ErrGPUResource, err)
	}

	return nil
}

func (r *Renderer) createSwapChain() error {
	var err error
	r.swapChain, err = r.device.CreateSwapChain(r.surface, &wgpu.SwapChainDescriptor{
		Usage:       wgpu.TextureUsage_RenderAttachment,
		Format:      r.swapChainFormat,
		Width:       r.width,
		Height:      r.height,
		PresentMode: r.presentMode,
	})
	if err != nil && r.presentMode != wgpu.PresentMode_Fifo {
		// Fifo is the one mode every surface supports
		log.Warnf("present mode %v rejected, using fifo: %v", r.presentMode, err)
		r.presentMode = wgpu.PresentMode_Fifo
		return r.createSwapChain()
	}
	if err != nil {
		return fmt.Errorf("%w: swap chain %dx%d: %v", ErrGPUResource, r.width, r.height, err)
	}
	return nil
}

// Render draws one frame at the given zoom
func (r *Renderer) Render(zoom float32) error {
	if r.swapChain == nil {
		return fmt.Errorf("%w: no swap chain", ErrGPUResource)
	}
	view, err := r.swapChain.GetCurrentTextureView()
	if err != nil {
		return fmt.Errorf("%w: surface texture: %v", ErrGPUResource, err)
	}
	defer view.Release()

	uniforms := pipeline.NewUniforms(zoom, r.scene.Quad, r.scene.World.Width, r.scene.World.Height, r.scene.Grid)
	uniformBuffer, err := r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "tilemap_uniforms",
		Contents: wgpu.ToBytes([]pipeline.Uniforms{uniforms}),
		Usage:    wgpu.BufferUsage_Uniform,
	})
	if err != nil {
		return fmt.Errorf("%w: uniforms: %v", ErrGPUResource, err)
	}
	defer uniformBuffer.Release()

	bindGroup, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "tilemap_bind_group",
		Layout: r.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: pipeline.BindingUniforms, Buffer: uniformBuffer, Size: uint64(unsafe.Sizeof(pipeline.Uniforms{}))},
			{Binding: pipeline.BindingIndices, TextureView: r.indices.View},
			{Binding: pipeline.BindingIndicesSampler, Sampler: r.indicesSampler},
			{Binding: pipeline.BindingTilemap, TextureView: r.tilemap.View},
			{Binding: pipeline.BindingTilemapSampler, Sampler: r.tilemapSampler},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: bind group: %v", ErrGPUResource, err)
	}
	defer bindGroup.Release()

	encoder, err := r.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{})
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOp_Clear,
			StoreOp:    wgpu.StoreOp_Store,
			ClearValue: r.opts.ClearColor,
		}},
	})

	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.SetVertexBuffer(0, r.vertexBuffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(r.indexBuffer, wgpu.IndexFormat_Uint16, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(len(r.scene.Quad.Indices)), 1, 0, 0, 0)
	pass.End()

	cmdBuffer, err := encoder.Finish(&wgpu.CommandBufferDescriptor{})
	if err != nil {
		return err
	}
	defer cmdBuffer.Release()

	r.queue.Submit(cmdBuffer)
	r.swapChain.Present()

	return nil
}

// Resize recreates the swap chain. Textures and the pipeline are kept.
// A zero size (minimized window) keeps the current swap chain.
func (r *Renderer) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	r.width = width
	r.height = height

	if r.swapChain != nil {
		r.swapChain.Release()
		r.swapChain = nil
	}

	return r.createSwapChain()
}

// Release frees all GPU resources
func (r *Renderer) Release() {
	if r.indexBuffer != nil {
		r.indexBuffer.Release()
	}
	if r.vertexBuffer != nil {
		r.vertexBuffer.Release()
	}
	r.tilemap.release()
	r.indices.release()
	if r.tilemapSampler != nil {
		r.tilemapSampler.Release()
	}
	if r.indicesSampler != nil {
		r.indicesSampler.Release()
	}
	if r.pipeline != nil {
		r.pipeline.Release()
	}
	if r.bindGroupLayout != nil {
		r.bindGroupLayout.Release()
	}
	if r.swapChain != nil {
		r.swapChain.Release()
	}
}
