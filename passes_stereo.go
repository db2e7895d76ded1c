package sceneview

import (
	"math"

	"github.com/Yeicor/sceneview/internal/raster"
	"github.com/go-gl/mathgl/mgl64"
)

// stereoPass draws the rest of the stack once per eye into the left and right buffers, premultiplying
// the projection by a toe-in rotation about the up axis: +angle for the left eye, -angle for the right.
func stereoPass(rc *RenderingContext) error {
	s := rc.state
	dist := s.Eye.Sub(s.Lookat).Len()
	angle := stereoAngle(s.StereoEyeSpacing, dist)
	left, right := raster.FrontLeft, raster.FrontRight
	if rc.doubleBuffer {
		left, right = raster.BackLeft, raster.BackRight
	}
	prev := rc.target.DrawBuffer()
	defer rc.target.SetDrawBuffer(prev)
	for _, eye := range []struct {
		buffer raster.DrawBuffer
		angle  float64
	}{{left, angle}, {right, -angle}} {
		rc.target.SetDrawBuffer(eye.buffer)
		rc.projection.Push()
		rc.projection.RightMul(mgl64.HomogRotate3DY(eye.angle))
		err := rc.CallNextRenderer()
		popMatrix(rc.projection)
		if err != nil {
			return err
		}
	}
	return nil
}

// stereoAngle is the half angle subtended by the eye spacing at the lookat distance.
func stereoAngle(spacing, dist float64) float64 {
	if dist == 0 {
		return 0
	}
	return math.Atan(0.5 * spacing / dist)
}

