package pipeline

// Filter is a texture filtering mode
type Filter int

const (
	Nearest Filter = iota
	Linear
)

func (f Filter) String() string {
	if f == Linear {
		return "linear"
	}
	return "nearest"
}

// AddressMode controls sampling outside [0,1]
type AddressMode int

const (
	ClampToEdge AddressMode = iota
	Repeat
)

// SamplerPolicy is the filtering of one texture binding, with the
// magnify and minify cases set independently.
type SamplerPolicy struct {
	Mag     Filter
	Min     Filter
	Mipmap  Filter
	Address AddressMode
}

// Interpolates reports whether any case blends neighbouring texels
func (p SamplerPolicy) Interpolates() bool {
	return p.Mag != Nearest || p.Min != Nearest || p.Mipmap != Nearest
}

// IndexPolicy samples the world index texture. It must never interpolate:
// a blend of two tile indices is not a tile index. The world repeats when
// zoomed out past its edges.
var IndexPolicy = SamplerPolicy{
	Mag:     Nearest,
	Min:     Nearest,
	Mipmap:  Nearest,
	Address: Repeat,
}

// AtlasPolicy samples the tilemap: crisp texels when zoomed in, trilinear
// smoothing when zoomed out.
var AtlasPolicy = SamplerPolicy{
	Mag:     Nearest,
	Min:     Linear,
	Mipmap:  Linear,
	Address: ClampToEdge,
}
