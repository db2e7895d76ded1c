// Package oit implements order-independent transparency by depth peeling: the scene is drawn once per
// layer, each pass keeping only the nearest fragments behind the previous layer, and the layers are
// then blended back to front.
package oit

import (
	"fmt"
	"image"
	"log"

	"github.com/Yeicor/sceneview/internal"
	"github.com/Yeicor/sceneview/internal/raster"
	"github.com/go-gl/mathgl/mgl64"
)

// Compositor peels up to Layers depth layers per frame.
type Compositor struct {
	initialised   bool
	width, height int
	layers        int
	stencil       bool
	targets       []*raster.Target
}

func New() *Compositor {
	return &Compositor{}
}

func (c *Compositor) Initialise() error {
	c.initialised = true
	log.Println("[OIT] Depth peeling compositor ready")
	return nil
}

// Capable reports whether Display can run. Software peeling has no hardware requirements.
func (c *Compositor) Capable() bool { return c.initialised }

// Reshape (re)allocates one target per layer when the size or the layer count changed.
func (c *Compositor) Reshape(width, height, layers int, hasStencil bool) error {
	if !c.initialised {
		return fmt.Errorf("%w: compositor not initialised", internal.ErrInconsistentState)
	}
	if width <= 0 || height <= 0 || layers < 1 {
		return fmt.Errorf("%w: reshape to %dx%d with %d layers", internal.ErrInvalidArgument, width, height, layers)
	}
	c.stencil = hasStencil
	if width == c.width && height == c.height && layers == len(c.targets) {
		return nil
	}
	targets := make([]*raster.Target, layers)
	for i := range targets {
		t, err := raster.NewTarget(width, height, raster.Capabilities{}, true)
		if err != nil {
			return err
		}
		targets[i] = t
	}
	c.width, c.height, c.layers, c.targets = width, height, layers, targets
	log.Println("[OIT] Reshaped to", width, "x", height, "with", layers, "layers")
	return nil
}

// Layers is the number of layers the last Reshape allocated.
func (c *Compositor) Layers() int { return c.layers }

// Display draws the rest of the callstack once per layer, each into its own viewport-sized target,
// and blends the layers back to front over the viewport of rc's target. The matrices are already on
// the callstack's stacks; they are only checked for consistency.
func (c *Compositor) Display(rc raster.Continuation, windowProjection, modelview mgl64.Mat4, blending internal.BlendingMode) error {
	if !c.initialised || len(c.targets) == 0 {
		return fmt.Errorf("%w: compositor not reshaped", internal.ErrInconsistentState)
	}
	if windowProjection.Mul4(modelview).Det() == 0 {
		return fmt.Errorf("%w: singular transformation", internal.ErrInconsistentState)
	}
	main := rc.Target()
	st := rc.State()
	viewport := st.Viewport
	if viewport.Dx() != c.width || viewport.Dy() != c.height {
		return fmt.Errorf("%w: viewport is %dx%d, compositor %dx%d", internal.ErrInconsistentState,
			viewport.Dx(), viewport.Dy(), c.width, c.height)
	}
	saved := *st
	defer func() {
		*st = saved
		rc.SetTarget(main)
	}()

	var peel []float64
	images := make([]*image.NRGBA, 0, len(c.targets))
	for _, t := range c.targets {
		t.Clear(mgl64.Vec4{})
		cleared := t.Depth()[0]
		rc.SetTarget(t)
		st.Blend = internal.BlendNone
		st.Alpha = raster.AlphaAny
		st.DepthTest = true
		st.DepthWrite = true
		st.Peel = peel
		st.Viewport = image.Rect(0, 0, c.width, c.height)
		err := rc.CallNextRenderer()
		rc.SetTarget(main)
		if err != nil {
			return err
		}
		depth := t.DepthCopy()
		if !drewAnything(depth, cleared) {
			break
		}
		images = append(images, t.Image(raster.FrontLeft))
		peel = depth
	}
	for i := len(images) - 1; i >= 0; i-- {
		main.CompositeOver(images[i], viewport.Min, blending)
	}
	return nil
}

func drewAnything(depth []float64, cleared float64) bool {
	for _, d := range depth {
		if d != cleared {
			return true
		}
	}
	return false
}

func (c *Compositor) Finalise() {
	c.targets = nil
	c.width, c.height, c.layers = 0, 0, 0
	c.initialised = false
	log.Println("[OIT] Released")
}
