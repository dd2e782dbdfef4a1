package tiles

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPattern    = errors.New("tiles: empty pattern")
	ErrInvalidGrid     = errors.New("tiles: invalid grid")
	ErrIndexOutOfRange = errors.New("tiles: index out of range")
)

// MaxGridSide is the largest atlas grid side a byte channel can address.
const MaxGridSide = 256

// TileIndex selects one cell of the atlas grid.
// Y counts rows from the bottom of the atlas.
type TileIndex struct {
	X uint8
	Y uint8
}

func (t TileIndex) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}

// Grid is the number of tile columns and rows in an atlas
type Grid struct {
	Columns int
	Rows    int
}

// Validate checks that every cell of the grid is byte addressable
func (g Grid) Validate() error {
	if g.Columns <= 0 || g.Rows <= 0 || g.Columns > MaxGridSide || g.Rows > MaxGridSide {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, g.Columns, g.Rows)
	}
	return nil
}

// Contains reports whether the index addresses a cell of the grid
func (g Grid) Contains(t TileIndex) bool {
	return int(t.X) < g.Columns && int(t.Y) < g.Rows
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Columns, g.Rows)
}

// Positions inside a 2x2 atlas, named in the index texture's UV convention.
var (
	BottomLeft  = TileIndex{X: 0, Y: 0}
	BottomRight = TileIndex{X: 0, Y: 1}
	UpperLeft   = TileIndex{X: 1, Y: 0}
	UpperRight  = TileIndex{X: 1, Y: 1}
)

// Pattern is a cyclic sequence of tile indices laid over the world
type Pattern []TileIndex

// DefaultPattern cycles through the four cells of a 2x2 atlas
func DefaultPattern() Pattern {
	return Pattern{BottomLeft, BottomRight, UpperLeft, UpperRight}
}

// At returns the i-th element of the endless cycle
func (p Pattern) At(i int) TileIndex {
	return p[i%len(p)]
}

// Validate checks that the pattern is usable with the given grid
func (p Pattern) Validate(g Grid) error {
	if len(p) == 0 {
		return ErrEmptyPattern
	}
	for i, t := range p {
		if !g.Contains(t) {
			return fmt.Errorf("%w: pattern[%d]=%s for grid %s", ErrIndexOutOfRange, i, t, g)
		}
	}
	return nil
}

// FromPairs converts [x, y] pairs, as they appear in config files, to a pattern
func FromPairs(pairs [][]int) (Pattern, error) {
	if len(pairs) == 0 {
		return nil, ErrEmptyPattern
	}
	p := make(Pattern, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("tiles: pattern[%d] has %d components, want 2", i, len(pair))
		}
		x, y := pair[0], pair[1]
		if x < 0 || y < 0 || x >= MaxGridSide || y >= MaxGridSide {
			return nil, fmt.Errorf("%w: pattern[%d]=(%d,%d)", ErrIndexOutOfRange, i, x, y)
		}
		p = append(p, TileIndex{X: uint8(x), Y: uint8(y)})
	}
	return p, nil
}
