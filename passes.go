package sceneview

import (
	"fmt"
	"image"
	"log"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/Yeicor/sceneview/internal/raster"
)

// readbackPass copies the finished viewport into the capture image.
func readbackPass(rc *RenderingContext) error {
	if err := rc.CallNextRenderer(); err != nil {
		return err
	}
	src := rc.target.Image(raster.BackLeft | raster.FrontLeft)
	if src == nil {
		return fmt.Errorf("%w: nothing to read back", ErrInconsistentState)
	}
	dst := rc.capture
	r := rc.viewport.Intersect(src.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dy := y - rc.viewport.Min.Y
		if dy >= dst.Bounds().Dy() {
			break
		}
		n := min(r.Dx(), dst.Bounds().Dx()) * 4
		copy(dst.Pix[dst.PixOffset(r.Min.X-rc.viewport.Min.X, dy):][:n], src.Pix[src.PixOffset(r.Min.X, y):][:n])
	}
	return nil
}

// fastChangePass draws the static objects once, caches the result and then only redraws the
// fast-changing objects over the cached image until the cache is invalidated.
func fastChangePass(rc *RenderingContext) error {
	v := rc.viewer
	if !v.scene.HasFastChangingObjects() {
		return rc.CallNextRenderer()
	}
	defer func() {
		rc.backend.SetChangeFilter(graphics.DrawAll)
		rc.restore = nil
	}()
	if !v.fastCacheValid || !v.fastCache.Matches(rc.target) {
		rc.backend.SetChangeFilter(graphics.DrawStatic)
		if err := rc.CallNextRenderer(); err != nil {
			return err
		}
		v.fastCache = rc.target.Snapshot()
		v.fastCacheValid = true
	}
	rc.restore = v.fastCache
	rc.backend.SetChangeFilter(graphics.DrawFastChanging)
	return rc.CallNextRenderer()
}

// initialisePass compiles the scene if needed, resets the pipeline and swaps on the way out.
func initialisePass(rc *RenderingContext) error {
	v := rc.viewer
	if v.sceneDirty {
		if err := rc.backend.Compile(v.scene.Compile); err != nil {
			log.Println("[Viewer] ERROR: compiling the scene:", err)
		}
		v.sceneDirty = false
	}
	rc.target.SetDrawBuffer(rc.target.DefaultDrawBuffer())
	rc.raster = raster.DefaultState(rc.viewport)
	rc.raster.Blend = rc.state.Blending
	rc.projection.LoadIdent()
	rc.modelview.LoadIdent()
	err := rc.CallNextRenderer()
	if rc.doubleBuffer && !rc.offscreen {
		rc.target.Swap()
	}
	return err
}

// layersPass draws every scene layer, back to front, clearing depth between them.
func layersPass(rc *RenderingContext) error {
	rc.backend.ResetLayers()
	defer rc.backend.ResetLayers()
	for {
		if err := rc.CallNextRenderer(); err != nil {
			return err
		}
		if !rc.backend.NextLayer() {
			return nil
		}
		rc.target.ClearDepthRect(rc.viewport)
	}
}

// modelviewPass loads the camera, the lights and the clip planes.
func modelviewPass(rc *RenderingContext) error {
	rc.modelview.Push()
	defer popMatrix(rc.modelview)
	rc.modelview.RightMul(rc.state.ModelviewMatrix)
	rc.backend.LightModelExecute(rc.viewer.lights)
	saved := rc.raster.ClipPlanes
	defer func() { rc.raster.ClipPlanes = saved }()
	rc.raster.ClipPlanes = rc.viewer.ClipPlanes()
	return rc.CallNextRenderer()
}

// projectionPass applies the window projection on top of any jitter or remapping already on the stack.
func projectionPass(rc *RenderingContext) error {
	rc.projection.Push()
	defer popMatrix(rc.projection)
	rc.projection.RightMul(rc.state.WindowProjectionMatrix)
	return rc.CallNextRenderer()
}

// scenePass executes the scene with everything the outer passes set up.
func scenePass(rc *RenderingContext) error {
	rc.backend.Begin(rc.target, &rc.raster, rc.projection.Peek(), rc.modelview.Peek())
	return rc.backend.Execute(rc.viewer.scene.Execute)
}

type matrixStack interface {
	Pop() error
}

func popMatrix(s matrixStack) {
	if err := s.Pop(); err != nil {
		log.Println("[Viewer] ERROR: unbalanced matrix stack:", err)
	}
}

// viewportSize returns the pixel size of a viewport as floats.
func viewportSize(r image.Rectangle) (float64, float64) {
	return float64(r.Dx()), float64(r.Dy())
}
