package raster

import (
	"fmt"
	"image"

	"github.com/Yeicor/sceneview/internal"
	"github.com/go-gl/mathgl/mgl64"
)

// AlphaTest restricts which fragments survive based on their alpha.
type AlphaTest int

const (
	AlphaAny         AlphaTest = iota
	AlphaOpaque                // only fragments with alpha == 1
	AlphaTranslucent           // only fragments with alpha != 1
)

// State is the fixed-function pipeline state used by every draw. It is a value: passes save it by copying.
type State struct {
	// Viewport is the pixel rectangle (origin at the top-left of the target) that NDC maps onto.
	Viewport image.Rectangle
	// DepthNear and DepthFar map NDC depth [-1, 1] onto a sub-range of the depth buffer.
	DepthNear, DepthFar float64
	DepthTest           bool
	DepthWrite          bool
	ColorWrite          bool
	Alpha               AlphaTest
	Blend               internal.BlendingMode
	// ClipPlanes are world-space planes, fragments on their negative side are discarded.
	ClipPlanes []mgl64.Vec4
	// Peel discards fragments at or in front of these window depths (one per target pixel).
	Peel []float64
}

// DefaultState is depth-tested, depth-writing, normally blended drawing into viewport.
func DefaultState(viewport image.Rectangle) State {
	return State{
		Viewport:   viewport,
		DepthNear:  0,
		DepthFar:   1,
		DepthTest:  true,
		DepthWrite: true,
		ColorWrite: true,
		Alpha:      AlphaAny,
		Blend:      internal.BlendNormal,
	}
}

// SetDepthRange validates and sets the depth range.
func (s *State) SetDepthRange(near, far float64) error {
	if near < 0 || far > 1 || near >= far {
		return fmt.Errorf("%w: depth range [%g, %g]", internal.ErrInvalidArgument, near, far)
	}
	s.DepthNear, s.DepthFar = near, far
	return nil
}

// depthRemap returns (a, b) such that the remapped clip z is a·z + b·w.
func (s *State) depthRemap() (float64, float64) {
	n, f := s.DepthNear, s.DepthFar
	if f <= n {
		return 1, 0
	}
	return f - n, f + n - 1
}

// viewportMatrix maps the NDC of the viewport rectangle onto the NDC of a width×height target.
func viewportMatrix(vp image.Rectangle, width, height int) mgl64.Mat4 {
	w, h := float64(width), float64(height)
	vw, vh := float64(vp.Dx()), float64(vp.Dy())
	m := mgl64.Ident4()
	m.Set(0, 0, vw/w)
	m.Set(0, 3, (2*float64(vp.Min.X)+vw)/w-1)
	m.Set(1, 1, vh/h)
	m.Set(1, 3, 1-(2*float64(vp.Min.Y)+vh)/h)
	return m
}
