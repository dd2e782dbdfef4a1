package world

import (
	"bytes"
	"errors"
	"testing"

	"tilemap/pkg/tiles"
)

func TestGenerateCyclesPattern(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		pattern       tiles.Pattern
	}{
		{"default 4x4", 4, 4, tiles.DefaultPattern()},
		{"odd width", 5, 3, tiles.DefaultPattern()},
		{"single entry", 7, 2, tiles.Pattern{{X: 3, Y: 9}}},
		{"three entries", 10, 10, tiles.Pattern{{X: 0, Y: 0}, {X: 1, Y: 2}, {X: 2, Y: 1}}},
		{"one pixel", 1, 1, tiles.DefaultPattern()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Generate(tt.width, tt.height, tt.pattern)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if got, want := len(r.Pix), tt.width*tt.height*3; got != want {
				t.Fatalf("len(Pix) = %d, want %d", got, want)
			}
			for i := 0; i < tt.width*tt.height; i++ {
				want := tt.pattern[i%len(tt.pattern)]
				if r.Pix[3*i] != want.X || r.Pix[3*i+1] != want.Y {
					t.Fatalf("pixel %d = (%d,%d), want %s", i, r.Pix[3*i], r.Pix[3*i+1], want)
				}
				if r.Pix[3*i+2] != 0 {
					t.Fatalf("pixel %d reserved channel = %d, want 0", i, r.Pix[3*i+2])
				}
			}
		})
	}
}

func TestGenerateBottomRowFirst(t *testing.T) {
	r, err := Generate(3, 2, tiles.DefaultPattern())
	if err != nil {
		t.Fatal(err)
	}
	// Row 0 is the bottom row and holds the first pattern entries.
	if got := r.At(0, 0); got != tiles.BottomLeft {
		t.Errorf("At(0,0) = %s, want %s", got, tiles.BottomLeft)
	}
	if got := r.At(2, 0); got != tiles.UpperLeft {
		t.Errorf("At(2,0) = %s, want %s", got, tiles.UpperLeft)
	}
	// Row 1 continues the cycle where row 0 stopped.
	if got := r.At(0, 1); got != tiles.UpperRight {
		t.Errorf("At(0,1) = %s, want %s", got, tiles.UpperRight)
	}
	if got := r.At(1, 1); got != tiles.BottomLeft {
		t.Errorf("At(1,1) = %s, want %s", got, tiles.BottomLeft)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(1000, 1000, tiles.DefaultPattern())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(1000, 1000, tiles.DefaultPattern())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two generations with the same inputs differ")
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	if _, err := Generate(0, 4, tiles.DefaultPattern()); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("zero width: got %v, want ErrInvalidDimensions", err)
	}
	if _, err := Generate(4, 4, nil); !errors.Is(err, tiles.ErrEmptyPattern) {
		t.Errorf("empty pattern: got %v, want ErrEmptyPattern", err)
	}
}

func TestValidate(t *testing.T) {
	grid := tiles.Grid{Columns: 2, Rows: 2}
	r, err := Generate(8, 8, tiles.DefaultPattern())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Validate(grid); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	r.Pix[3*10] = 5
	if err := r.Validate(grid); !errors.Is(err, tiles.ErrIndexOutOfRange) {
		t.Errorf("corrupted raster: got %v, want ErrIndexOutOfRange", err)
	}
}

func TestRGBA(t *testing.T) {
	r, err := Generate(2, 2, tiles.DefaultPattern())
	if err != nil {
		t.Fatal(err)
	}
	got := r.RGBA()
	want := []byte{
		0, 0, 0, 255,
		0, 1, 0, 255,
		1, 0, 0, 255,
		1, 1, 0, 255,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("RGBA() = %v, want %v", got, want)
	}
}
