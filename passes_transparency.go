package sceneview

import (
	"github.com/Yeicor/sceneview/internal/raster"
	"github.com/go-gl/mathgl/mgl64"
)

// slowTransparencyPass draws opaque fragments first (writing depth), then translucent fragments
// without writing depth.
func slowTransparencyPass(rc *RenderingContext) error {
	saved := rc.raster
	defer func() { rc.raster = saved }()
	rc.raster.DepthWrite = true
	rc.raster.Alpha = raster.AlphaOpaque
	if err := rc.CallNextRenderer(); err != nil {
		return err
	}
	rc.raster.DepthWrite = false
	rc.raster.Alpha = raster.AlphaTranslucent
	return rc.CallNextRenderer()
}

// layeredTransparencyPass slices NDC depth into N layers and draws them back to front, each remapped
// to fill the clip volume and written into its own depth sub-range.
func layeredTransparencyPass(rc *RenderingContext) error {
	n := rc.transparencyLayers
	if n <= 1 {
		return rc.CallNextRenderer()
	}
	saved := rc.raster
	defer func() { rc.raster = saved }()
	fn := float64(n)
	for i := 0; i < n; i++ {
		near, far := layerSlice(i, n)
		rc.projection.Push()
		rc.projection.RightMul(layerRemap(near, far, n))
		rc.raster.DepthNear = float64(n-i-1) / fn
		rc.raster.DepthFar = float64(n-i) / fn
		err := rc.CallNextRenderer()
		popMatrix(rc.projection)
		if err != nil {
			return err
		}
	}
	return nil
}

// layerSlice returns the NDC depth interval [a, b] of layer i (0 is the farthest).
func layerSlice(i, n int) (float64, float64) {
	fn := float64(n)
	return 1 - 2*float64(i+1)/fn, 1 - 2*float64(i)/fn
}

// layerRemap maps clip z in [a, b] (relative to w) onto [-1, 1]: z' = N·z - (a+b)·N/2·w.
func layerRemap(a, b float64, n int) mgl64.Mat4 {
	m := mgl64.Ident4()
	m.Set(2, 2, float64(n))
	m.Set(2, 3, -(a+b)*float64(n)/2)
	return m
}

// orderIndependentPass hands the rest of the callstack to the compositor.
func orderIndependentPass(rc *RenderingContext) error {
	c := rc.viewer.compositor
	if c == nil || !rc.viewer.compositorReady {
		return rc.CallNextRenderer()
	}
	w, h := rc.raster.Viewport.Dx(), rc.raster.Viewport.Dy()
	if err := c.Reshape(w, h, rc.transparencyLayers, rc.stencilDepth > 0); err != nil {
		return err
	}
	windowProjection := rc.projection.Peek().Mul4(rc.state.WindowProjectionMatrix)
	return c.Display(rc, windowProjection, rc.modelview.Peek(), rc.state.Blending)
}
