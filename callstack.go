package sceneview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/Yeicor/sceneview/internal"
	"github.com/Yeicor/sceneview/internal/raster"
	"github.com/go-gl/mathgl/mgl64/matstack"
)

// errRenderInProgress is wrapped by renderFrame when another render holds the lock.
var errRenderInProgress = errors.New("a render is already in progress")

// renderPass is one entry of the callstack. A pass does its setup, calls
// RenderingContext.CallNextRenderer zero or more times and then its teardown.
type renderPass struct {
	name   string
	render func(rc *RenderingContext) error
}

// RenderingContext is the per-frame state shared by the passes of a callstack.
type RenderingContext struct {
	viewer             *Viewer
	state              *internal.ViewerState
	viewport           image.Rectangle // in target pixels, origin at the top-left
	antialias          int
	transparencyLayers int
	offscreen          bool
	doubleBuffer       bool
	stencilDepth       int
	backend            *raster.Backend
	target             *raster.Target
	raster             raster.State
	projection         *matstack.MatStack
	modelview          *matstack.MatStack

	stack   []renderPass
	depth   int   // passes [0, depth) are in progress
	entered []int // times each pass was entered during this frame

	capture *image.NRGBA     // filled by the readback pass
	restore *raster.Snapshot // set by the fast-change pass to replace clearing
}

// Target is the buffer set the remaining passes draw into.
func (rc *RenderingContext) Target() *raster.Target { return rc.target }

// SetTarget redirects the remaining passes to another target and returns the previous one.
func (rc *RenderingContext) SetTarget(t *raster.Target) *raster.Target {
	prev := rc.target
	rc.target = t
	return prev
}

// State is the pipeline state the scene will be drawn with.
func (rc *RenderingContext) State() *raster.State { return &rc.raster }

// Viewport is the pixel rectangle being drawn (origin at the top-left).
func (rc *RenderingContext) Viewport() image.Rectangle { return rc.viewport }

// CallNextRenderer runs the first pass that is not in progress. A pass that fails without running the
// rest of the stack is logged and skipped, so the remainder still draws.
func (rc *RenderingContext) CallNextRenderer() error {
	i := rc.depth
	if i >= len(rc.stack) {
		return nil
	}
	pass := rc.stack[i]
	rc.entered[i]++
	before := rc.entered[i+1]
	rc.depth++
	err := pass.render(rc)
	if err != nil {
		log.Println("[Viewer] ERROR: render pass", pass.name, "failed:", err)
		if rc.entered[i+1] == before {
			err = rc.CallNextRenderer()
		} else {
			err = nil
		}
	}
	rc.depth--
	return err
}

func (rc *RenderingContext) canAccumulate() bool {
	return !rc.offscreen && rc.target.CanAccumulate()
}

func (rc *RenderingContext) passNames() []string {
	names := make([]string, len(rc.stack))
	for i, p := range rc.stack {
		names[i] = p.name
	}
	return names
}

// buildCallstack assembles the passes for the current mode flags, outermost first.
func (v *Viewer) buildCallstack(rc *RenderingContext) {
	s := rc.state
	rc.stack = rc.stack[:0]
	if rc.capture != nil {
		rc.stack = append(rc.stack, renderPass{"readback", readbackPass})
	}
	if rc.doubleBuffer {
		rc.stack = append(rc.stack, renderPass{"fast-change", fastChangePass})
	}
	rc.stack = append(rc.stack, renderPass{"initialise", initialisePass})
	if rc.antialias > 1 {
		rc.stack = append(rc.stack, renderPass{"antialias", antialiasPass})
	}
	if s.DepthOfField > 0 {
		rc.stack = append(rc.stack, renderPass{"depth-of-field", depthOfFieldPass})
	}
	rc.stack = append(rc.stack,
		renderPass{"layers", layersPass},
		renderPass{"background", backgroundPass},
		renderPass{"modelview", modelviewPass},
	)
	if s.Stereo {
		rc.stack = append(rc.stack, renderPass{"stereo", stereoPass})
	}
	switch s.Transparency {
	case internal.TransparencySlow:
		rc.stack = append(rc.stack, renderPass{"slow-transparency", slowTransparencyPass})
	case internal.TransparencyLayered:
		rc.stack = append(rc.stack, renderPass{"layered-transparency", layeredTransparencyPass})
	case internal.TransparencyOrderIndependent:
		rc.stack = append(rc.stack, renderPass{"order-independent-transparency", orderIndependentPass})
		fallthrough
	case internal.TransparencyFast:
		// FAST draws everything in a single pass: nothing to add
	}
	rc.stack = append(rc.stack,
		renderPass{"projection", projectionPass},
		renderPass{"scene", scenePass},
	)
	rc.entered = make([]int, len(rc.stack)+1)
	rc.depth = 0
}

// frameRequest describes one frame to render.
type frameRequest struct {
	target             *raster.Target
	viewport           image.Rectangle
	antialias          int // <= 0 uses the viewer's setting
	transparencyLayers int // <= 0 uses the viewer's setting
	offscreen          bool
	capture            *image.NRGBA
}

func (v *Viewer) newRenderingContext(req frameRequest) *RenderingContext {
	rc := &RenderingContext{
		viewer:             v,
		state:              v.state,
		viewport:           req.viewport,
		antialias:          v.state.Antialias,
		transparencyLayers: v.state.TransparencyLayers,
		offscreen:          req.offscreen,
		backend:            v.backend,
		target:             req.target,
		projection:         matstack.NewMatStack(),
		modelview:          matstack.NewMatStack(),
		capture:            req.capture,
	}
	if req.antialias > 0 {
		rc.antialias = req.antialias
	}
	if req.transparencyLayers > 0 {
		rc.transparencyLayers = req.transparencyLayers
	}
	// the host may lose or gain features between frames
	v.backend.Select(v.buffer.Capabilities())
	caps := req.target.Capabilities()
	rc.doubleBuffer = caps.DoubleBuffer && !req.offscreen
	rc.stencilDepth = caps.StencilBits
	return rc
}

// renderFrame runs a whole callstack. It fails with ErrInconsistentState when a render is already in progress.
func (v *Viewer) renderFrame(req frameRequest) error {
	if v.destroyed {
		return fmt.Errorf("%w: viewer destroyed", ErrInconsistentState)
	}
	if req.viewport.Empty() {
		return fmt.Errorf("%w: empty viewport %v", ErrInvalidArgument, req.viewport)
	}
	ctx, cancel := context.WithTimeout(context.Background(), renderLockTimeout)
	defer cancel()
	if !v.renderingLock.TryLock(ctx) {
		return fmt.Errorf("%w: %w", ErrInconsistentState, errRenderInProgress)
	}
	defer v.renderingLock.Unlock()

	v.onSync.call(v)
	if err := v.CalculateTransformation(req.viewport.Dx(), req.viewport.Dy()); err != nil {
		return err
	}
	rc := v.newRenderingContext(req)
	v.buildCallstack(rc)
	return rc.CallNextRenderer()
}

// RenderScene draws the whole window and presents it.
func (v *Viewer) RenderScene() error {
	w, h := v.buffer.Size()
	return v.RenderSceneInViewport(0, 0, w, h)
}

// RenderSceneInViewport draws into the window rectangle given in pixels with the origin at the
// bottom-left, and presents the result.
func (v *Viewer) RenderSceneInViewport(left, bottom, right, top int) error {
	return v.RenderSceneInViewportWithOverrides(left, bottom, right, top, 0, 0, false)
}

// RenderSceneInViewportWithOverrides is RenderSceneInViewport with per-frame antialias and transparency
// layer overrides (<= 0 keeps the viewer's setting). Drawing offscreen disables accumulation, buffer
// swapping and presentation.
func (v *Viewer) RenderSceneInViewportWithOverrides(left, bottom, right, top, antialias, transparencyLayers int, offscreen bool) error {
	if right <= left || top <= bottom {
		return fmt.Errorf("%w: viewport (%d,%d)-(%d,%d)", ErrInvalidArgument, left, bottom, right, top)
	}
	if err := v.buffer.MakeCurrent(); err != nil {
		return fmt.Errorf("making the graphics buffer current: %w", err)
	}
	h := v.target.Height()
	req := frameRequest{
		target:             v.target,
		viewport:           image.Rect(left, h-top, right, h-bottom),
		antialias:          antialias,
		transparencyLayers: transparencyLayers,
		offscreen:          offscreen,
	}
	if err := v.renderFrame(req); err != nil {
		return err
	}
	if offscreen {
		return nil
	}
	return v.buffer.SwapBuffers(v.target.Image(raster.FrontLeft))
}
