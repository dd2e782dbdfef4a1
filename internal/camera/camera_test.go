package camera

import (
	"math"
	"testing"
	"time"
)

func TestInverseSquare(t *testing.T) {
	tests := []struct {
		name    string
		policy  InverseSquare
		elapsed time.Duration
		want    float32
	}{
		{"one second", InverseSquare{}, time.Second, 1},
		{"two seconds", InverseSquare{}, 2 * time.Second, 0.25},
		{"half second", InverseSquare{}, 500 * time.Millisecond, 4},
		{"clamped high", InverseSquare{Max: 100}, time.Millisecond, 100},
		{"clamped low", InverseSquare{Min: 0.5}, 10 * time.Second, 0.5},
		{"origin clamped", InverseSquare{Max: 1000}, 0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Zoom(tt.elapsed)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("Zoom(%v) = %v, want %v", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestInverseSquareUnboundedAtOrigin(t *testing.T) {
	if got := (InverseSquare{}).Zoom(0); !math.IsInf(float64(got), 1) {
		t.Errorf("Zoom(0) = %v, want +Inf", got)
	}
}

func TestInverseSquareDecreases(t *testing.T) {
	p := InverseSquare{Max: 1e4}
	prev := p.Zoom(0)
	for ms := 10; ms <= 10000; ms += 10 {
		z := p.Zoom(time.Duration(ms) * time.Millisecond)
		if z > prev {
			t.Fatalf("zoom grew from %v to %v at %dms", prev, z, ms)
		}
		prev = z
	}
}

func TestCameraFrame(t *testing.T) {
	origin := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cam := NewCamera(origin, InverseSquare{})

	f := cam.Frame(origin.Add(2 * time.Second))
	if f.Elapsed != 2*time.Second {
		t.Errorf("Elapsed = %v, want 2s", f.Elapsed)
	}
	if f.Zoom != 0.25 {
		t.Errorf("Zoom = %v, want 0.25", f.Zoom)
	}
	if !cam.Origin().Equal(origin) {
		t.Errorf("Origin = %v, want %v", cam.Origin(), origin)
	}
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("fixed", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if z := p.Zoom(time.Hour); z != 1 {
		t.Errorf("fixed zoom = %v, want 1", z)
	}

	p, err = PolicyByName("inverse_square", 0, 50)
	if err != nil {
		t.Fatal(err)
	}
	if z := p.Zoom(0); z != 50 {
		t.Errorf("inverse_square zoom at origin = %v, want 50", z)
	}

	if _, err := PolicyByName("spiral", 0, 0); err == nil {
		t.Error("expected error for unknown policy")
	}
}
