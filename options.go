package sceneview

import (
	"image"
	"image/color"
	"log"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/Yeicor/sceneview/internal/oit"
	"github.com/go-gl/mathgl/mgl64"
)

// Options that fail validation are logged and ignored, the rest of the options still apply.

func logOption(name string, err error) {
	if err != nil {
		log.Println("[Viewer] Ignoring option", name+":", err)
	}
}

// OptCompositor sets the order-independent transparency compositor. It must be applied before
// OptTransparency(TransparencyOrderIndependent, ...).
func OptCompositor(c Compositor) Option {
	return func(v *Viewer) {
		v.compositor = c
	}
}

// OptDepthPeeling uses the built-in depth peeling compositor for order-independent transparency.
func OptDepthPeeling() Option {
	return OptCompositor(oit.New())
}

// OptLightModel sets the lighting used for the scene (nil draws unlit vertex colours).
func OptLightModel(m *graphics.LightModel) Option {
	return func(v *Viewer) {
		v.lights = m
	}
}

// OptLookat sets the initial camera.
func OptLookat(eye, lookat, up mgl64.Vec3) Option {
	return func(v *Viewer) {
		logOption("lookat", v.SetLookatParametersNonSkew(eye, lookat, up))
	}
}

// OptProjection sets the projection mode and viewing volume.
func OptProjection(mode ProjectionMode, volume ViewingVolume) Option {
	return func(v *Viewer) {
		logOption("projection mode", v.SetProjectionMode(mode))
		logOption("viewing volume", v.SetViewingVolume(volume))
	}
}

// OptViewAngle sets the (square) field of view, in radians.
func OptViewAngle(angle float64) Option {
	return func(v *Viewer) {
		logOption("view angle", v.SetViewAngle(angle))
	}
}

// OptInteraction sets the button mapping and the tumble/translate/zoom rates (0 disables a drag mode).
func OptInteraction(mode InteractMode, tumbleRate, translateRate, zoomRate float64, freeSpin bool) Option {
	return func(v *Viewer) {
		logOption("interact mode", v.SetInteractMode(mode))
		logOption("tumble rate", v.SetTumbleRate(tumbleRate))
		logOption("translate rate", v.SetTranslateRate(translateRate))
		logOption("zoom rate", v.SetZoomRate(zoomRate))
		v.SetFreeSpin(freeSpin)
	}
}

// OptTransparency sets the transparency strategy and its layer count.
func OptTransparency(mode TransparencyMode, layers int) Option {
	return func(v *Viewer) {
		logOption("transparency layers", v.SetTransparencyLayers(layers))
		logOption("transparency mode", v.SetTransparencyMode(mode))
	}
}

// OptAntialias sets the number of antialiasing samples (0, 1, 2, 4 or 8).
func OptAntialias(samples int) Option {
	return func(v *Viewer) {
		logOption("antialias", v.SetAntialiasMode(samples))
	}
}

// OptStereo enables stereo rendering with the given eye spacing.
func OptStereo(eyeSpacing float64) Option {
	return func(v *Viewer) {
		logOption("stereo eye spacing", v.SetStereoEyeSpacing(eyeSpacing))
		logOption("stereo", v.SetStereoMode(true))
	}
}

// OptBackgroundColour sets the clear colour.
func OptBackgroundColour(c color.Color) Option {
	return func(v *Viewer) {
		v.SetBackgroundColour(graphics.ColorToVec4(c))
	}
}

// OptBackgroundTexture sets the background image and where it is placed in user-viewport units.
func OptBackgroundTexture(img image.Image, left, top, width, height float64) Option {
	return func(v *Viewer) {
		v.SetBackgroundTexture(img)
		logOption("background texture info", v.SetBackgroundTextureInfo(left, top, width, height, false, v.state.BackgroundTexture.MaxPixelsPerPolygon))
	}
}

// OptBackgroundTextureFile loads the background image from a file.
func OptBackgroundTextureFile(path string) Option {
	return func(v *Viewer) {
		logOption("background texture file", v.SetBackgroundTextureFile(path))
	}
}

// OptWatchBackgroundTexture loads the background image from a file and reloads it when the file changes.
func OptWatchBackgroundTexture(path string) Option {
	return func(v *Viewer) {
		logOption("background texture watch", v.WatchBackgroundTexture(path))
	}
}
