package sceneview

import (
	"fmt"
	"math"
	"time"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/Yeicor/sceneview/internal"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-gl/mathgl/mgl64"
)

//-----------------------------------------------------------------------------
// VIEWPORT
//-----------------------------------------------------------------------------

func (v *Viewer) ViewportMode() ViewportMode { return v.state.Viewport }

func (v *Viewer) SetViewportMode(mode ViewportMode) error {
	switch mode {
	case internal.ViewportAbsolute, internal.ViewportRelative, internal.ViewportDistortingRelative:
	default:
		return fmt.Errorf("%w: viewport mode %d", ErrInvalidArgument, mode)
	}
	v.state.Viewport = mode
	v.fastCacheValid = false
	return nil
}

func (v *Viewer) NDCInfo() NDCInfo { return v.state.NDC }

// SetNDCInfo sets the rectangle of user units that fills normalised device coordinates.
func (v *Viewer) SetNDCInfo(info NDCInfo) error {
	if !(info.Width > 0) || !(info.Height > 0) {
		return fmt.Errorf("%w: NDC size %gx%g", ErrInvalidArgument, info.Width, info.Height)
	}
	v.state.NDC = info
	v.fastCacheValid = false
	return nil
}

func (v *Viewer) ViewportInfo() ViewportInfo { return v.state.UserViewport }

// SetViewportInfo sets the user-viewport calibration: the user coordinates of the window's top-left
// corner and the number of pixels per user unit.
func (v *Viewer) SetViewportInfo(info ViewportInfo) error {
	if !(info.PixelsPerUnitX > 0) || !(info.PixelsPerUnitY > 0) {
		return fmt.Errorf("%w: pixels per unit %gx%g", ErrInvalidArgument, info.PixelsPerUnitX, info.PixelsPerUnitY)
	}
	v.state.UserViewport = info
	v.fastCacheValid = false
	return nil
}

//-----------------------------------------------------------------------------
// RENDERING
//-----------------------------------------------------------------------------

func (v *Viewer) BackgroundColour() mgl64.Vec4 { return v.state.BackgroundColour }

// SetBackgroundColour sets the clear colour (straight RGBA in [0, 1]).
func (v *Viewer) SetBackgroundColour(c mgl64.Vec4) {
	v.state.BackgroundColour = c
	v.fastCacheValid = false
}

func (v *Viewer) TransparencyMode() TransparencyMode { return v.state.Transparency }

// SetTransparencyMode selects the transparency strategy. Order-independent transparency is only
// accepted when a capable compositor is configured; on failure the previous mode is kept.
func (v *Viewer) SetTransparencyMode(mode TransparencyMode) error {
	switch mode {
	case internal.TransparencyFast, internal.TransparencySlow, internal.TransparencyLayered:
	case internal.TransparencyOrderIndependent:
		if err := v.initialiseCompositor(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: transparency mode %d", ErrInvalidArgument, mode)
	}
	v.state.Transparency = mode
	v.fastCacheValid = false
	return nil
}

func (v *Viewer) initialiseCompositor() error {
	if v.compositor == nil {
		return fmt.Errorf("%w: no order-independent transparency compositor", ErrUnsupportedCapability)
	}
	if !v.compositorReady {
		retry := backoff.NewExponentialBackOff()
		retry.InitialInterval = 10 * time.Millisecond
		if err := backoff.Retry(v.compositor.Initialise, backoff.WithMaxRetries(retry, 3)); err != nil {
			return fmt.Errorf("%w: compositor initialisation: %v", ErrUnsupportedCapability, err)
		}
		v.compositorReady = true
	}
	if !v.compositor.Capable() {
		return fmt.Errorf("%w: the compositor cannot run on this graphics buffer", ErrUnsupportedCapability)
	}
	return nil
}

func (v *Viewer) TransparencyLayers() int { return v.state.TransparencyLayers }

// SetTransparencyLayers sets the number of layers used by the layered and order-independent strategies.
func (v *Viewer) SetTransparencyLayers(layers int) error {
	if layers < 1 {
		return fmt.Errorf("%w: %d transparency layers", ErrInvalidArgument, layers)
	}
	v.state.TransparencyLayers = layers
	v.fastCacheValid = false
	return nil
}

func (v *Viewer) AntialiasMode() int { return v.state.Antialias }

// SetAntialiasMode sets the number of jittered samples: 0 or 1 disable antialiasing, 2, 4 and 8 need accumulation.
func (v *Viewer) SetAntialiasMode(samples int) error {
	switch samples {
	case 0, 1:
	case 2, 4, 8:
		if !v.buffer.Capabilities().Accumulation {
			return fmt.Errorf("%w: antialiasing needs an accumulation buffer", ErrUnsupportedCapability)
		}
	default:
		return fmt.Errorf("%w: %d antialias samples", ErrInvalidArgument, samples)
	}
	v.state.Antialias = samples
	v.fastCacheValid = false
	return nil
}

// DepthOfField returns the depth of field (0 disables it) and the focal depth in NDC.
func (v *Viewer) DepthOfField() (dof, focalDepth float64) {
	return v.state.DepthOfField, v.state.FocalDepth
}

// SetDepthOfField sets the depth of field (0 disables it, larger values blur less) and the focal
// depth in NDC, in [-1, 1).
func (v *Viewer) SetDepthOfField(dof, focalDepth float64) error {
	if dof < 0 || math.IsNaN(dof) || math.IsInf(dof, 0) {
		return fmt.Errorf("%w: depth of field %g", ErrInvalidArgument, dof)
	}
	if !(focalDepth >= -1 && focalDepth < 1) {
		return fmt.Errorf("%w: focal depth %g", ErrInvalidArgument, focalDepth)
	}
	if dof > 0 && !v.buffer.Capabilities().Accumulation {
		return fmt.Errorf("%w: depth of field needs an accumulation buffer", ErrUnsupportedCapability)
	}
	v.state.DepthOfField, v.state.FocalDepth = dof, focalDepth
	v.fastCacheValid = false
	return nil
}

func (v *Viewer) BlendingMode() BlendingMode { return v.state.Blending }

func (v *Viewer) SetBlendingMode(mode BlendingMode) error {
	switch mode {
	case internal.BlendNormal, internal.BlendNone, internal.BlendTrueAlpha:
	default:
		return fmt.Errorf("%w: blending mode %d", ErrInvalidArgument, mode)
	}
	v.state.Blending = mode
	v.fastCacheValid = false
	return nil
}

//-----------------------------------------------------------------------------
// STEREO
//-----------------------------------------------------------------------------

func (v *Viewer) StereoMode() bool { return v.state.Stereo }

// SetStereoMode enables or disables stereo rendering (only on stereo-capable buffers).
func (v *Viewer) SetStereoMode(enabled bool) error {
	if enabled && !v.buffer.Capabilities().Stereo {
		return fmt.Errorf("%w: stereo rendering needs a stereo graphics buffer", ErrUnsupportedCapability)
	}
	v.state.Stereo = enabled
	v.fastCacheValid = false
	return nil
}

func (v *Viewer) StereoEyeSpacing() float64 { return v.state.StereoEyeSpacing }

func (v *Viewer) SetStereoEyeSpacing(spacing float64) error {
	if spacing < 0 || math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return fmt.Errorf("%w: eye spacing %g", ErrInvalidArgument, spacing)
	}
	v.state.StereoEyeSpacing = spacing
	v.fastCacheValid = false
	return nil
}

//-----------------------------------------------------------------------------
// CLIP PLANES
//-----------------------------------------------------------------------------

// AddClipPlane enables a user clip plane A·x + B·y + C·z + D = 0, keeping the side where it is positive.
func (v *Viewer) AddClipPlane(a, b, c, d float64) error {
	plane := mgl64.Vec4{a, b, c, d}
	if plane.Vec3().Len() == 0 {
		return fmt.Errorf("%w: clip plane normal is zero", ErrInvalidArgument)
	}
	free := -1
	for i, p := range v.state.ClipPlanes {
		if p.Enabled && p.Plane == plane {
			return fmt.Errorf("%w: clip plane %v already added", ErrInvalidArgument, plane)
		}
		if !p.Enabled && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return fmt.Errorf("%w: all %d clip planes are in use", ErrInvalidArgument, internal.MaxClipPlanes)
	}
	v.state.ClipPlanes[free] = internal.ClipPlane{Enabled: true, Plane: plane}
	v.fastCacheValid = false
	return nil
}

// RemoveClipPlane disables the clip plane with exactly these coefficients.
func (v *Viewer) RemoveClipPlane(a, b, c, d float64) error {
	plane := mgl64.Vec4{a, b, c, d}
	for i, p := range v.state.ClipPlanes {
		if p.Enabled && p.Plane == plane {
			v.state.ClipPlanes[i] = internal.ClipPlane{}
			v.fastCacheValid = false
			return nil
		}
	}
	return fmt.Errorf("%w: clip plane %v not found", ErrInvalidArgument, plane)
}

// ClipPlanes returns the enabled clip planes.
func (v *Viewer) ClipPlanes() []mgl64.Vec4 {
	var res []mgl64.Vec4
	for _, p := range v.state.ClipPlanes {
		if p.Enabled {
			res = append(res, p.Plane)
		}
	}
	return res
}

//-----------------------------------------------------------------------------
// INTERACTION
//-----------------------------------------------------------------------------

func (v *Viewer) InteractMode() InteractMode { return v.state.Interact }

func (v *Viewer) SetInteractMode(mode InteractMode) error {
	switch mode {
	case internal.InteractStandard, internal.Interact2D:
	default:
		return fmt.Errorf("%w: interact mode %d", ErrInvalidArgument, mode)
	}
	v.state.Interact = mode
	return nil
}

func validRate(name string, rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: %s rate %g", ErrInvalidArgument, name, rate)
	}
	return nil
}

func (v *Viewer) TumbleRate() float64    { return v.state.TumbleRate }
func (v *Viewer) TranslateRate() float64 { return v.state.TranslateRate }
func (v *Viewer) ZoomRate() float64      { return v.state.ZoomRate }

// SetTumbleRate sets the tumble speed (0 disables tumbling).
func (v *Viewer) SetTumbleRate(rate float64) error {
	if err := validRate("tumble", rate); err != nil {
		return err
	}
	v.state.TumbleRate = rate
	return nil
}

// SetTranslateRate sets the translate speed (0 disables translation).
func (v *Viewer) SetTranslateRate(rate float64) error {
	if err := validRate("translate", rate); err != nil {
		return err
	}
	v.state.TranslateRate = rate
	return nil
}

// SetZoomRate sets the zoom speed (0 disables zooming).
func (v *Viewer) SetZoomRate(rate float64) error {
	if err := validRate("zoom", rate); err != nil {
		return err
	}
	v.state.ZoomRate = rate
	return nil
}

func (v *Viewer) FreeSpin() bool { return v.state.FreeSpin }

// SetFreeSpin controls whether releasing a tumble while moving keeps the scene spinning.
func (v *Viewer) SetFreeSpin(enabled bool) {
	v.state.FreeSpin = enabled
	if !enabled {
		v.StopAnimations()
	}
}

// DragMode returns the current trackball state.
func (v *Viewer) DragMode() DragMode { return v.state.Drag }

// Tumble returns the auto-tumble axis, the angle applied per step and whether it is running.
func (v *Viewer) Tumble() (axis mgl64.Vec3, angle float64, active bool) {
	return v.state.TumbleAxis, v.state.TumbleAngle, v.state.TumbleActive
}

// SetTumble starts (angle != 0) or stops auto-tumbling about axis.
func (v *Viewer) SetTumble(axis mgl64.Vec3, angle float64) error {
	if angle != 0 && axis.Len() == 0 {
		return fmt.Errorf("%w: zero tumble axis", ErrInvalidArgument)
	}
	if angle == 0 {
		v.StopAnimations()
		return nil
	}
	v.state.TumbleAxis = axis.Normalize()
	v.state.TumbleAngle = angle
	v.startAutoTumble()
	return nil
}

// LightModel returns the lighting used for the scene.
func (v *Viewer) LightModel() *graphics.LightModel { return v.lights }

// SetLightModel sets the lighting used for the scene (nil draws unlit vertex colours).
func (v *Viewer) SetLightModel(m *graphics.LightModel) {
	v.lights = m
	v.fastCacheValid = false
}
