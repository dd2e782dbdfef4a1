package geometry

// Vertex is a quad corner in normalized device coordinates
type Vertex struct {
	Position [2]float32
}

// Corner names, in vertex buffer order:
//
//	0-1
//	|/|
//	3-2
const (
	TopLeft     = 0
	TopRight    = 1
	BottomRight = 2
	BottomLeft  = 3
)

// ProvokingVertex selects which vertex of a triangle supplies flat attributes
type ProvokingVertex int

const (
	ProvokingFirst ProvokingVertex = iota
	ProvokingLast
)

func (p ProvokingVertex) String() string {
	if p == ProvokingLast {
		return "last"
	}
	return "first"
}

// Indices lists the two triangles of the quad. The bottom-left corner opens
// both so that, with the first vertex provoking, every fragment sees the same
// flat anchor.
var Indices = [6]uint16{
	BottomLeft, TopRight, BottomRight,
	BottomLeft, TopLeft, TopRight,
}

// Quad is an axis-aligned rectangle split into two triangles
type Quad struct {
	Offset   [2]float32
	Size     [2]float32
	Vertices [4]Vertex
	Indices  [6]uint16
}

// NewQuad builds the quad spanning offset to offset+size
func NewQuad(offset, size [2]float32) Quad {
	x, y := offset[0], offset[1]
	w, h := size[0], size[1]
	return Quad{
		Offset: offset,
		Size:   size,
		Vertices: [4]Vertex{
			TopLeft:     {Position: [2]float32{x, y + h}},
			TopRight:    {Position: [2]float32{x + w, y + h}},
			BottomRight: {Position: [2]float32{x + w, y}},
			BottomLeft:  {Position: [2]float32{x, y}},
		},
		Indices: Indices,
	}
}

// DefaultQuad is the unit square centered on the origin
func DefaultQuad() Quad {
	return NewQuad([2]float32{-0.5, -0.5}, [2]float32{1, 1})
}

// UV maps a position inside the quad to [0,1]x[0,1], v growing upward
func (q Quad) UV(pos [2]float32) [2]float32 {
	return [2]float32{
		(pos[0] - q.Offset[0]) / q.Size[0],
		(pos[1] - q.Offset[1]) / q.Size[1],
	}
}

// Triangles returns the vertex indices of each triangle in draw order
func (q Quad) Triangles() [2][3]uint16 {
	return [2][3]uint16{
		{q.Indices[0], q.Indices[1], q.Indices[2]},
		{q.Indices[3], q.Indices[4], q.Indices[5]},
	}
}

// Provoking returns the vertex whose flat attributes a triangle uses
func (q Quad) Provoking(tri [3]uint16, p ProvokingVertex) uint16 {
	if p == ProvokingLast {
		return tri[2]
	}
	return tri[0]
}
