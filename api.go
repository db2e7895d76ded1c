package sceneview

import (
	"image"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/Yeicor/sceneview/internal"
	"github.com/Yeicor/sceneview/internal/raster"
	"github.com/go-gl/mathgl/mgl64"
)

//-----------------------------------------------------------------------------
// COLLABORATORS
//-----------------------------------------------------------------------------

// Scene is the content a viewer draws. Compile is called whenever the scene changed (or the viewer
// is awakened), Execute once per layer and pass while rendering.
type Scene interface {
	Compile(r graphics.Renderer) error
	Execute(r graphics.Renderer) error
	HasFastChangingObjects() bool
}

// SceneNotifier is implemented by scenes that report their own changes.
type SceneNotifier interface {
	// OnChange registers fn to be called after every change. fastChangingOnly is true when only
	// fast-changing objects were modified. The returned function unregisters fn.
	OnChange(fn func(fastChangingOnly bool)) (cancel func())
}

// BoundedScene is implemented by scenes that know their world-space bounding box.
type BoundedScene interface {
	Bounds() (minimum, maximum mgl64.Vec3, ok bool)
}

// Capabilities describes what a graphics buffer can provide.
type Capabilities = raster.Capabilities

// GraphicsBuffer is the host surface a viewer presents frames to.
type GraphicsBuffer interface {
	Size() (width, height int)
	Origin() (x, y int)
	Visible() bool
	Capabilities() Capabilities
	MakeCurrent() error
	// SwapBuffers presents a finished frame (the viewer keeps ownership of frame).
	SwapBuffers(frame *image.NRGBA) error
	OnResize(fn func(width, height int)) (cancel func())
	OnExpose(fn func()) (cancel func())
	OnInput(fn func(ev InputEvent)) (cancel func())
}

// IdleScheduler runs single-shot callbacks when the host event loop is idle.
// AddIdleCallback must be safe to call from any goroutine.
type IdleScheduler interface {
	AddIdleCallback(fn func()) (id uint64)
	RemoveIdleCallback(id uint64)
}

// Compositor performs order-independent transparency.
type Compositor interface {
	Initialise() error
	Capable() bool
	Reshape(width, height, layers int, hasStencil bool) error
	// Display draws the scene (through rc) with order-independent transparency into rc's target.
	Display(rc raster.Continuation, windowProjection, modelview mgl64.Mat4, blending BlendingMode) error
	Finalise()
}

//-----------------------------------------------------------------------------
// INPUT
//-----------------------------------------------------------------------------

// InputEventType is the kind of pointer event.
type InputEventType int

const (
	ButtonPress InputEventType = iota
	ButtonRelease
	MotionNotify
	Scroll
)

// InputEvent is a pointer event in window pixels (origin at the top-left).
type InputEvent struct {
	Type   InputEventType
	Button int // 1 left, 2 middle, 3 right
	X, Y   int
	// ScrollY is the wheel delta for Scroll events (positive away from the user).
	ScrollY float64
}

//-----------------------------------------------------------------------------
// ENUMS
//-----------------------------------------------------------------------------

type (
	ProjectionMode   = internal.ProjectionMode
	ViewportMode     = internal.ViewportMode
	TransparencyMode = internal.TransparencyMode
	BlendingMode     = internal.BlendingMode
	InteractMode     = internal.InteractMode
	DragMode         = internal.DragMode
	ViewerState      = internal.ViewerState
	ViewingVolume    = internal.ViewingVolume
	NDCInfo          = internal.NDCInfo
	ViewportInfo     = internal.ViewportInfo
)

const (
	Parallel    = internal.Parallel
	Perspective = internal.Perspective
	Custom      = internal.Custom

	ViewportAbsolute           = internal.ViewportAbsolute
	ViewportRelative           = internal.ViewportRelative
	ViewportDistortingRelative = internal.ViewportDistortingRelative

	TransparencyFast             = internal.TransparencyFast
	TransparencySlow             = internal.TransparencySlow
	TransparencyLayered          = internal.TransparencyLayered
	TransparencyOrderIndependent = internal.TransparencyOrderIndependent

	BlendNormal    = internal.BlendNormal
	BlendNone      = internal.BlendNone
	BlendTrueAlpha = internal.BlendTrueAlpha

	InteractStandard = internal.InteractStandard
	Interact2D       = internal.Interact2D

	DragIdle      = internal.DragIdle
	DragTumble    = internal.DragTumble
	DragTranslate = internal.DragTranslate
	DragZoom      = internal.DragZoom
)

// CoordinateSystem selects the space GetTransformationToWindow starts from.
type CoordinateSystem int

const (
	CoordinatesLocal CoordinateSystem = iota
	CoordinatesWorld
	CoordinatesNormalisedWindowFill
	CoordinatesNormalisedWindowFitCentre
	CoordinatesNormalisedWindowFitLeft
	CoordinatesNormalisedWindowFitRight
	CoordinatesNormalisedWindowFitBottom
	CoordinatesNormalisedWindowFitTop
	CoordinatesWindowPixelBottomLeft
	CoordinatesWindowPixelTopLeft
)

//-----------------------------------------------------------------------------
// ERRORS
//-----------------------------------------------------------------------------

var (
	ErrInvalidArgument       = internal.ErrInvalidArgument
	ErrUnsupportedCapability = internal.ErrUnsupportedCapability
	ErrAllocationFailure     = internal.ErrAllocationFailure
	ErrInconsistentState     = internal.ErrInconsistentState
)
