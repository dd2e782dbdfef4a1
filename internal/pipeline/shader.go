package pipeline

import (
	"fmt"

	"github.com/gogpu/naga"

	"tilemap/internal/geometry"
	"tilemap/pkg/tiles"
)

// Bind group 0 layout shared by the shader and the renderer.
const (
	BindingUniforms       = 0
	BindingIndices        = 1
	BindingIndicesSampler = 2
	BindingTilemap        = 3
	BindingTilemapSampler = 4
)

// Shader is the indexed tilemap program.
//
// The vertex stage derives the quad-local UV from the position and passes it
// twice: once interpolated, once flat. WebGPU takes flat values from the first
// vertex of each triangle, which the quad's index buffer makes the bottom-left
// corner, so the flat copy is the zoom anchor (0, 0) everywhere.
const Shader = `
struct Uniforms {
    zoom: f32,
    _pad0: f32,
    quadOffset: vec2<f32>,
    quadSize: vec2<f32>,
    worldSize: vec2<f32>,
    atlasGrid: vec2<f32>,
    _pad1: vec2<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var indices: texture_2d<f32>;
@group(0) @binding(2) var indicesSampler: sampler;
@group(0) @binding(3) var tilemap: texture_2d<f32>;
@group(0) @binding(4) var tilemapSampler: sampler;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) @interpolate(flat) anchor: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    let uv = (position - u.quadOffset) / u.quadSize;
    out.position = vec4<f32>(position, 0.0, 1.0);
    out.uv = uv;
    out.anchor = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    // Zoom around the anchor corner.
    let worldUV = in.anchor + (in.uv - in.anchor) / u.zoom;

    // Stored bytes come back as n/255; undo that to get the cell.
    let texel = textureSample(indices, indicesSampler, worldUV);
    let tile = round(texel.rg * 255.0);

    // Position inside the current world pixel picks the texel inside the cell.
    let cell = fract(worldUV * u.worldSize);
    let atlasUV = (tile + cell) / u.atlasGrid;

    // fract() jumps at every cell edge; take gradients from the continuous
    // world UV instead so the mip level stays stable across seams.
    let scale = u.worldSize / (u.atlasGrid * u.zoom);
    let ddx = dpdx(in.uv) * scale;
    let ddy = dpdy(in.uv) * scale;
    return textureSampleGrad(tilemap, tilemapSampler, atlasUV, ddx, ddy);
}
`

// Uniforms mirrors the WGSL Uniforms struct, 48 bytes
type Uniforms struct {
	Zoom       float32
	_          float32
	QuadOffset [2]float32
	QuadSize   [2]float32
	WorldSize  [2]float32
	AtlasGrid  [2]float32
	_          [2]float32
}

// NewUniforms fills the per-frame uniform block
func NewUniforms(zoom float32, quad geometry.Quad, worldW, worldH int, grid tiles.Grid) Uniforms {
	return Uniforms{
		Zoom:       zoom,
		QuadOffset: quad.Offset,
		QuadSize:   quad.Size,
		WorldSize:  [2]float32{float32(worldW), float32(worldH)},
		AtlasGrid:  [2]float32{float32(grid.Columns), float32(grid.Rows)},
	}
}

// Validate compiles the shader to SPIR-V without a device
func Validate() error {
	spirv, err := naga.Compile(Shader)
	if err != nil {
		return fmt.Errorf("shader validation failed: %w", err)
	}
	if len(spirv) == 0 {
		return fmt.Errorf("shader validation produced no output")
	}
	return nil
}
