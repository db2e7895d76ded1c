package sceneview

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
)

// accumReturnScale slightly brightens the accumulated image to compensate for truncation.
const accumReturnScale = 1.001

// Subpixel jitter tables, as offsets in [0, 1) pixels.
var (
	jitter2 = [][2]float64{{0.25, 0.75}, {0.75, 0.25}}
	jitter4 = [][2]float64{{0.375, 0.25}, {0.125, 0.75}, {0.875, 0.25}, {0.625, 0.75}}
	jitter8 = [][2]float64{
		{0.5625, 0.4375}, {0.0625, 0.9375}, {0.3125, 0.6875}, {0.6875, 0.8125},
		{0.8125, 0.1875}, {0.9375, 0.5625}, {0.4375, 0.0625}, {0.1875, 0.3125},
	}
)

func jitterTable(samples int) [][2]float64 {
	switch samples {
	case 2:
		return jitter2
	case 4:
		return jitter4
	case 8:
		return jitter8
	default:
		return nil
	}
}

// antialiasPass accumulates one jittered draw per sample.
func antialiasPass(rc *RenderingContext) error {
	table := jitterTable(rc.antialias)
	if table == nil || !rc.canAccumulate() {
		log.Println("[Viewer] WARNING: antialiasing needs an accumulation buffer, drawing a single sample")
		return rc.CallNextRenderer()
	}
	w, h := viewportSize(rc.viewport)
	weight := 1 / float64(len(table))
	for i, j := range table {
		rc.projection.Push()
		rc.projection.RightMul(mgl64.Translate3D(2*j[0]/w, 2*j[1]/h, 0))
		err := rc.CallNextRenderer()
		popMatrix(rc.projection)
		if err != nil {
			return err
		}
		if err = rc.target.Accumulate(i == 0, weight); err != nil {
			return err
		}
	}
	return rc.target.AccumReturn(accumReturnScale)
}

// depthOfFieldPass accumulates eight draws whose x/y are skewed in proportion to their distance from
// the focal depth, so only geometry at the focal depth stays sharp.
func depthOfFieldPass(rc *RenderingContext) error {
	if !rc.canAccumulate() {
		log.Println("[Viewer] WARNING: depth of field needs an accumulation buffer, drawing a single sample")
		return rc.CallNextRenderer()
	}
	dof, focal := rc.state.DepthOfField, rc.state.FocalDepth
	w, h := viewportSize(rc.viewport)
	weight := 1 / float64(len(jitter8))
	for i, j := range jitter8 {
		kx := (j[0] - 0.5) / (dof * w) / (1 - focal)
		ky := (j[1] - 0.5) / (dof * h) / (1 - focal)
		rc.projection.Push()
		rc.projection.RightMul(focalSkew(kx, ky, focal))
		err := rc.CallNextRenderer()
		popMatrix(rc.projection)
		if err != nil {
			return err
		}
		if err = rc.target.Accumulate(i == 0, weight); err != nil {
			return err
		}
	}
	return rc.target.AccumReturn(accumReturnScale)
}

// focalSkew shifts clip x/y by k·(z - focal·w), leaving the focal plane in place.
func focalSkew(kx, ky, focal float64) mgl64.Mat4 {
	m := mgl64.Ident4()
	m.Set(0, 2, kx)
	m.Set(0, 3, -kx*focal)
	m.Set(1, 2, ky)
	m.Set(1, 3, -ky*focal)
	return m
}
