package sceneview

import (
	"fmt"
	"math"

	"github.com/Yeicor/sceneview/internal"
	"github.com/go-gl/mathgl/mgl64"
)

// colinearEpsilon is the relative length below which the up vector counts as parallel to the view direction.
const colinearEpsilon = 1e-9

// LookatParameters returns the eye position, the lookat point and the up vector.
func (v *Viewer) LookatParameters() (eye, lookat, up mgl64.Vec3) {
	return v.state.Eye, v.state.Lookat, v.state.Up
}

func validateLookat(eye, lookat, up mgl64.Vec3) (mgl64.Vec3, error) {
	view := lookat.Sub(eye)
	if view.Len() == 0 {
		return mgl64.Vec3{}, fmt.Errorf("%w: eye and lookat point coincide", ErrInvalidArgument)
	}
	if up.Len() == 0 {
		return mgl64.Vec3{}, fmt.Errorf("%w: zero up vector", ErrInvalidArgument)
	}
	viewN := view.Normalize()
	upOrth := up.Sub(viewN.Mul(up.Dot(viewN)))
	if upOrth.Len() <= colinearEpsilon*up.Len() {
		return mgl64.Vec3{}, fmt.Errorf("%w: up vector is parallel to the view direction", ErrInvalidArgument)
	}
	return upOrth.Normalize(), nil
}

// SetLookatParameters sets the camera, storing up as given (it may be skewed relative to the view direction).
func (v *Viewer) SetLookatParameters(eye, lookat, up mgl64.Vec3) error {
	if _, err := validateLookat(eye, lookat, up); err != nil {
		return err
	}
	v.state.Eye, v.state.Lookat, v.state.Up = eye, lookat, up
	v.fastCacheValid = false
	return nil
}

// SetLookatParametersNonSkew sets the camera, replacing up with its unit component orthogonal to the view direction.
func (v *Viewer) SetLookatParametersNonSkew(eye, lookat, up mgl64.Vec3) error {
	upOrth, err := validateLookat(eye, lookat, up)
	if err != nil {
		return err
	}
	v.state.Eye, v.state.Lookat, v.state.Up = eye, lookat, upOrth
	v.fastCacheValid = false
	return nil
}

// RotateAboutLookatPoint rotates the eye and the up vector by angle (radians, right-handed) around
// the axis through the lookat point.
func (v *Viewer) RotateAboutLookatPoint(axis mgl64.Vec3, angle float64) error {
	if axis.Len() == 0 {
		return fmt.Errorf("%w: zero rotation axis", ErrInvalidArgument)
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return fmt.Errorf("%w: rotation angle %g", ErrInvalidArgument, angle)
	}
	rot := mgl64.HomogRotate3D(angle, axis.Normalize())
	s := v.state
	offset := rot.Mul4x1(s.Eye.Sub(s.Lookat).Vec4(0)).Vec3()
	s.Eye = s.Lookat.Add(offset)
	s.Up = rot.Mul4x1(s.Up.Vec4(0)).Vec3()
	v.fastCacheValid = false
	return nil
}

// ViewingVolume returns the viewing volume (left/right/bottom/top are measured at the lookat point).
func (v *Viewer) ViewingVolume() ViewingVolume { return v.state.Volume }

// SetViewingVolume sets the viewing volume.
func (v *Viewer) SetViewingVolume(vol ViewingVolume) error {
	if !(vol.Right > vol.Left) || !(vol.Top > vol.Bottom) || !(vol.Far > vol.Near) {
		return fmt.Errorf("%w: viewing volume %+v", ErrInvalidArgument, vol)
	}
	if v.state.Projection == internal.Perspective && vol.Near <= 0 {
		return fmt.Errorf("%w: perspective viewing volume needs a positive near plane", ErrInvalidArgument)
	}
	v.state.Volume = vol
	v.fastCacheValid = false
	return nil
}

// ViewAngle returns the field of view (radians) of the smaller side of the viewing volume.
func (v *Viewer) ViewAngle() float64 {
	s := v.state
	dist := s.Eye.Sub(s.Lookat).Len()
	size := math.Min(s.Volume.Right-s.Volume.Left, s.Volume.Top-s.Volume.Bottom)
	return 2 * math.Atan(size/2/dist)
}

// SetViewAngle makes the viewing volume a square, centred on its current centre, that subtends angle at the eye.
func (v *Viewer) SetViewAngle(angle float64) error {
	if !(angle > 0 && angle < math.Pi) {
		return fmt.Errorf("%w: view angle %g", ErrInvalidArgument, angle)
	}
	s := v.state
	dist := s.Eye.Sub(s.Lookat).Len()
	half := dist * math.Tan(angle/2)
	cx := (s.Volume.Left + s.Volume.Right) / 2
	cy := (s.Volume.Bottom + s.Volume.Top) / 2
	s.Volume.Left, s.Volume.Right = cx-half, cx+half
	s.Volume.Bottom, s.Volume.Top = cy-half, cy+half
	v.fastCacheValid = false
	return nil
}

// ViewAll moves the camera, keeping its direction, so the scene's bounding box fills the view.
func (v *Viewer) ViewAll() error {
	bounded, ok := v.scene.(BoundedScene)
	if !ok {
		return fmt.Errorf("%w: the scene does not report its bounds", ErrUnsupportedCapability)
	}
	minimum, maximum, ok := bounded.Bounds()
	if !ok {
		return fmt.Errorf("%w: the scene is empty", ErrInconsistentState)
	}
	centre := minimum.Add(maximum).Mul(0.5)
	radius := maximum.Sub(minimum).Len() / 2
	if radius == 0 {
		radius = 1
	}
	s := v.state
	dir := s.Eye.Sub(s.Lookat).Normalize()
	dist := 3 * radius
	eye := centre.Add(dir.Mul(dist))
	if err := v.SetLookatParametersNonSkew(eye, centre, s.Up); err != nil {
		return err
	}
	half := 1.05 * radius
	return v.SetViewingVolume(ViewingVolume{
		Left: -half, Right: half, Bottom: -half, Top: half,
		Near: dist - 2*radius, Far: dist + 2*radius,
	})
}

// ProjectionMode returns the projection mode.
func (v *Viewer) ProjectionMode() ProjectionMode { return v.state.Projection }

// SetProjectionMode sets the projection mode. Custom mode needs both matrices before rendering.
func (v *Viewer) SetProjectionMode(mode ProjectionMode) error {
	switch mode {
	case internal.Parallel, internal.Custom:
	case internal.Perspective:
		if v.state.Volume.Near <= 0 {
			return fmt.Errorf("%w: perspective projection needs a positive near plane", ErrInconsistentState)
		}
	default:
		return fmt.Errorf("%w: projection mode %d", ErrInvalidArgument, mode)
	}
	v.state.Projection = mode
	v.fastCacheValid = false
	return nil
}

// ProjectionMatrix returns the current projection matrix.
func (v *Viewer) ProjectionMatrix() mgl64.Mat4 { return v.state.ProjectionMatrix }

// SetProjectionMatrix supplies the projection matrix (Custom mode only).
func (v *Viewer) SetProjectionMatrix(m mgl64.Mat4) error {
	if v.state.Projection != internal.Custom {
		return fmt.Errorf("%w: projection matrix can only be set in custom projection mode", ErrInconsistentState)
	}
	v.state.ProjectionMatrix = m
	v.state.CustomProjectionSet = true
	v.fastCacheValid = false
	return nil
}

// ModelviewMatrix returns the current modelview matrix.
func (v *Viewer) ModelviewMatrix() mgl64.Mat4 { return v.state.ModelviewMatrix }

// SetModelviewMatrix supplies the modelview matrix (Custom mode only).
func (v *Viewer) SetModelviewMatrix(m mgl64.Mat4) error {
	if v.state.Projection != internal.Custom {
		return fmt.Errorf("%w: modelview matrix can only be set in custom projection mode", ErrInconsistentState)
	}
	v.state.ModelviewMatrix = m
	v.state.CustomModelviewSet = true
	v.fastCacheValid = false
	return nil
}

// WindowProjectionMatrix returns the projection including the viewport mapping, as of the last calculation.
func (v *Viewer) WindowProjectionMatrix() mgl64.Mat4 { return v.state.WindowProjectionMatrix }
