package internal

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ProjectionMode selects how the projection matrix is derived.
type ProjectionMode int

const (
	Parallel ProjectionMode = iota
	Perspective
	Custom // projection and modelview matrices are supplied by the caller
)

// ViewportMode selects how the NDC calibration maps onto the window.
type ViewportMode int

const (
	ViewportAbsolute ViewportMode = iota
	ViewportRelative
	ViewportDistortingRelative
)

// TransparencyMode selects the translucent geometry strategy.
type TransparencyMode int

const (
	TransparencyFast TransparencyMode = iota
	TransparencySlow
	TransparencyLayered
	TransparencyOrderIndependent
)

// BlendingMode selects the blend function used for translucent fragments.
type BlendingMode int

const (
	BlendNormal BlendingMode = iota
	BlendNone
	BlendTrueAlpha
)

// InteractMode selects the pointer button to drag mode mapping.
type InteractMode int

const (
	InteractStandard InteractMode = iota
	Interact2D
)

// DragMode is the current trackball state.
type DragMode int

const (
	DragIdle DragMode = iota
	DragTumble
	DragTranslate
	DragZoom
)

// MaxClipPlanes is the number of user clip plane slots.
const MaxClipPlanes = 6

// ClipPlane is a plane A·x + B·y + C·z + D = 0 in world coordinates, keeping the positive half space.
type ClipPlane struct {
	Enabled bool
	Plane   mgl64.Vec4
}

// ViewingVolume bounds the view frustum (or box) in eye coordinates.
type ViewingVolume struct {
	Left, Right, Bottom, Top, Near, Far float64
}

// NDCInfo is the calibrated rectangle of user units that fills the viewport.
type NDCInfo struct {
	Left, Top, Width, Height float64
}

// ViewportInfo is the user-viewport calibration used by the absolute mode and the background texture.
type ViewportInfo struct {
	Left, Top                      float64
	PixelsPerUnitX, PixelsPerUnitY float64
}

// BackgroundTextureInfo places the background image in user-viewport units.
type BackgroundTextureInfo struct {
	Left, Top, Width, Height float64
	Undistort                bool
	MaxPixelsPerPolygon      float64
}

// Distortion is a radial lens distortion model p' = c + (p-c)(1 + k1·r²).
type Distortion struct {
	CentreX, CentreY, K1 float64
}

// ViewerState is everything that defines what a viewer shows and how it reacts to input.
type ViewerState struct {
	// CAMERA
	Eye, Lookat, Up mgl64.Vec3
	Volume          ViewingVolume
	Projection      ProjectionMode
	Viewport        ViewportMode
	NDC             NDCInfo
	UserViewport    ViewportInfo
	// DERIVED (or custom) matrices
	ProjectionMatrix, ModelviewMatrix, WindowProjectionMatrix mgl64.Mat4
	CustomProjectionSet, CustomModelviewSet                   bool
	// RENDERING
	Transparency       TransparencyMode
	TransparencyLayers int
	Antialias          int
	DepthOfField       float64
	FocalDepth         float64
	Blending           BlendingMode
	Stereo             bool
	StereoEyeSpacing   float64
	ClipPlanes         [MaxClipPlanes]ClipPlane
	BackgroundColour   mgl64.Vec4
	BackgroundTexture  BackgroundTextureInfo
	BackgroundDistort  Distortion
	// INTERACTION
	Interact                            InteractMode
	TumbleRate, TranslateRate, ZoomRate float64
	FreeSpin                            bool
	Drag                                DragMode
	TumbleAxis                          mgl64.Vec3
	TumbleAngle                         float64
	TumbleActive                        bool
}

// NewViewerState returns the default state: a unit viewing cube seen from +z.
func NewViewerState() *ViewerState {
	return &ViewerState{
		Eye:                    mgl64.Vec3{0, 0, 2},
		Lookat:                 mgl64.Vec3{0, 0, 0},
		Up:                     mgl64.Vec3{0, 1, 0},
		Volume:                 ViewingVolume{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: 0.1, Far: 1000},
		Projection:             Perspective,
		Viewport:               ViewportRelative,
		NDC:                    NDCInfo{Left: -1, Top: 1, Width: 2, Height: 2},
		UserViewport:           ViewportInfo{Left: 0, Top: 0, PixelsPerUnitX: 1, PixelsPerUnitY: 1},
		ProjectionMatrix:       mgl64.Ident4(),
		ModelviewMatrix:        mgl64.Ident4(),
		WindowProjectionMatrix: mgl64.Ident4(),
		Transparency:           TransparencyFast,
		TransparencyLayers:     1,
		Antialias:              0,
		Blending:               BlendNormal,
		StereoEyeSpacing:       0.25,
		BackgroundColour:       mgl64.Vec4{0, 0, 0, 1},
		BackgroundTexture:      BackgroundTextureInfo{Width: 1, Height: 1, MaxPixelsPerPolygon: 16},
		Interact:               InteractStandard,
		TumbleRate:             1.5,
		TranslateRate:          1,
		ZoomRate:               1,
		FreeSpin:               true,
		Drag:                   DragIdle,
		TumbleAxis:             mgl64.Vec3{0, 1, 0},
	}
}
