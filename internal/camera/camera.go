package camera

import (
	"fmt"
	"math"
	"time"
)

// ZoomPolicy maps time since the clock origin to a zoom factor.
// A zoom of 1 shows the whole world once across the quad; smaller values
// zoom out, larger values zoom in.
type ZoomPolicy interface {
	Zoom(elapsed time.Duration) float32
}

// InverseSquare is zoom = 1 / elapsed², elapsed in seconds.
// It starts zoomed in, passes 1 after one second and keeps zooming out.
// Max bounds the singularity at elapsed = 0; Min, when positive, stops the
// zoom-out.
type InverseSquare struct {
	Min float32
	Max float32
}

func (p InverseSquare) Zoom(elapsed time.Duration) float32 {
	s := elapsed.Seconds()
	z := float32(math.Inf(1))
	if s > 0 {
		z = float32(1 / (s * s))
	}
	if p.Max > 0 && z > p.Max {
		z = p.Max
	}
	if p.Min > 0 && z < p.Min {
		z = p.Min
	}
	return z
}

// Fixed is a constant zoom
type Fixed float32

func (f Fixed) Zoom(time.Duration) float32 {
	return float32(f)
}

// PolicyByName builds one of the named zoom policies
func PolicyByName(name string, minZoom, maxZoom float32) (ZoomPolicy, error) {
	switch name {
	case "", "inverse_square":
		return InverseSquare{Min: minZoom, Max: maxZoom}, nil
	case "fixed":
		return Fixed(1), nil
	}
	return nil, fmt.Errorf("camera: unknown zoom policy %q", name)
}

// FrameState is what a single frame needs to know about time
type FrameState struct {
	Elapsed time.Duration
	Zoom    float32
}

// Camera owns the clock origin of the animation
type Camera struct {
	origin time.Time
	policy ZoomPolicy
}

// NewCamera starts the clock at origin
func NewCamera(origin time.Time, policy ZoomPolicy) *Camera {
	return &Camera{origin: origin, policy: policy}
}

// Origin returns the clock origin
func (c *Camera) Origin() time.Time {
	return c.origin
}

// Frame computes the state of the frame drawn at now
func (c *Camera) Frame(now time.Time) FrameState {
	elapsed := now.Sub(c.origin)
	return FrameState{
		Elapsed: elapsed,
		Zoom:    c.policy.Zoom(elapsed),
	}
}
