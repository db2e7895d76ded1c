package sceneview

import (
	"fmt"
	"math"

	"github.com/Yeicor/sceneview/internal"
	"github.com/go-gl/mathgl/mgl64"
)

// CalculateTransformation recomputes the projection, modelview and window projection matrices for a
// viewport of width×height pixels. In Custom mode the supplied matrices are used as they are.
func (v *Viewer) CalculateTransformation(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidArgument, width, height)
	}
	s := v.state
	projection, modelview := s.ProjectionMatrix, s.ModelviewMatrix
	switch s.Projection {
	case internal.Custom:
		if !s.CustomProjectionSet || !s.CustomModelviewSet {
			return fmt.Errorf("%w: custom projection without projection and modelview matrices", ErrInconsistentState)
		}
	case internal.Parallel, internal.Perspective:
		var err error
		projection, err = projectionMatrix(s)
		if err != nil {
			return err
		}
		modelview = mgl64.LookAtV(s.Eye, s.Lookat, s.Up)
	default:
		return fmt.Errorf("%w: projection mode %d", ErrInvalidArgument, s.Projection)
	}
	post, err := viewportPostMatrix(s, float64(width), float64(height))
	if err != nil {
		return err
	}
	s.ProjectionMatrix = projection
	s.ModelviewMatrix = modelview
	s.WindowProjectionMatrix = post.Mul4(projection)
	return nil
}

func projectionMatrix(s *internal.ViewerState) (mgl64.Mat4, error) {
	vol := s.Volume
	if s.Projection == internal.Parallel {
		return mgl64.Ortho(vol.Left, vol.Right, vol.Bottom, vol.Top, vol.Near, vol.Far), nil
	}
	if vol.Near <= 0 {
		return mgl64.Mat4{}, fmt.Errorf("%w: perspective projection needs a positive near plane", ErrInconsistentState)
	}
	dist := s.Eye.Sub(s.Lookat).Len()
	if dist == 0 {
		return mgl64.Mat4{}, fmt.Errorf("%w: eye and lookat point coincide", ErrInconsistentState)
	}
	// the viewing volume is measured at the lookat point: bring it to the near plane
	k := vol.Near / dist
	return mgl64.Frustum(vol.Left*k, vol.Right*k, vol.Bottom*k, vol.Top*k, vol.Near, vol.Far), nil
}

// viewportPostMatrix maps the NDC calibration onto the window according to the viewport mode.
func viewportPostMatrix(s *internal.ViewerState, w, h float64) (mgl64.Mat4, error) {
	ndc := s.NDC
	post := mgl64.Ident4()
	var sx, sy, tx, ty float64
	switch s.Viewport {
	case internal.ViewportAbsolute:
		vp := s.UserViewport
		sx = ndc.Width * vp.PixelsPerUnitX / w
		sy = ndc.Height * vp.PixelsPerUnitY / h
		tx = 2*(ndc.Left+ndc.Width/2-vp.Left)*vp.PixelsPerUnitX/w - 1
		ty = 1 - 2*(vp.Top-ndc.Top+ndc.Height/2)*vp.PixelsPerUnitY/h
	case internal.ViewportRelative:
		scale := math.Min(w/ndc.Width, h/ndc.Height)
		sx = scale * ndc.Width / w
		sy = scale * ndc.Height / h
	case internal.ViewportDistortingRelative:
		return post, nil
	default:
		return post, fmt.Errorf("%w: viewport mode %d", ErrInvalidArgument, s.Viewport)
	}
	post.Set(0, 0, sx)
	post.Set(0, 3, tx)
	post.Set(1, 1, sy)
	post.Set(1, 3, ty)
	return post, nil
}

// GetTransformationToWindow returns the matrix from the given coordinate system to window NDC.
// local is only used (and required) for CoordinatesLocal.
func (v *Viewer) GetTransformationToWindow(cs CoordinateSystem, local *mgl64.Mat4) (mgl64.Mat4, error) {
	w, h := v.buffer.Size()
	if w <= 0 || h <= 0 {
		return mgl64.Mat4{}, fmt.Errorf("%w: window %dx%d", ErrInvalidArgument, w, h)
	}
	fw, fh := float64(w), float64(h)
	m := mgl64.Ident4()
	switch cs {
	case CoordinatesLocal, CoordinatesWorld:
		if err := v.CalculateTransformation(w, h); err != nil {
			return mgl64.Mat4{}, err
		}
		m = mgl64.Diag4(mgl64.Vec4{1, 1, -1, 1}).Mul4(v.state.WindowProjectionMatrix).Mul4(v.state.ModelviewMatrix)
		if cs == CoordinatesLocal {
			if local == nil {
				return mgl64.Mat4{}, fmt.Errorf("%w: local coordinates need a local transformation", ErrInvalidArgument)
			}
			m = m.Mul4(*local)
		}
	case CoordinatesNormalisedWindowFill:
	case CoordinatesNormalisedWindowFitCentre, CoordinatesNormalisedWindowFitLeft, CoordinatesNormalisedWindowFitRight,
		CoordinatesNormalisedWindowFitBottom, CoordinatesNormalisedWindowFitTop:
		size := math.Min(fw, fh)
		sx, sy := size/fw, size/fh
		m.Set(0, 0, sx)
		m.Set(1, 1, sy)
		switch cs {
		case CoordinatesNormalisedWindowFitLeft:
			m.Set(0, 3, sx-1)
		case CoordinatesNormalisedWindowFitRight:
			m.Set(0, 3, 1-sx)
		case CoordinatesNormalisedWindowFitBottom:
			m.Set(1, 3, sy-1)
		case CoordinatesNormalisedWindowFitTop:
			m.Set(1, 3, 1-sy)
		default:
		}
	case CoordinatesWindowPixelBottomLeft:
		m.Set(0, 0, 2/fw)
		m.Set(0, 3, -1)
		m.Set(1, 1, 2/fh)
		m.Set(1, 3, -1)
	case CoordinatesWindowPixelTopLeft:
		m.Set(0, 0, 2/fw)
		m.Set(0, 3, -1)
		m.Set(1, 1, -2/fh)
		m.Set(1, 3, 1)
	default:
		return mgl64.Mat4{}, fmt.Errorf("%w: coordinate system %d", ErrInvalidArgument, cs)
	}
	return m, nil
}

// Unproject converts a window pixel (origin at the top-left) and a window depth in [0, 1] to world coordinates.
func (v *Viewer) Unproject(x, y, depth float64) (mgl64.Vec3, error) {
	w, h := v.buffer.Size()
	if err := v.CalculateTransformation(w, h); err != nil {
		return mgl64.Vec3{}, err
	}
	p, err := mgl64.UnProject(mgl64.Vec3{x, float64(h) - y, depth}, v.state.ModelviewMatrix, v.state.WindowProjectionMatrix, 0, 0, w, h)
	if err != nil {
		return mgl64.Vec3{}, fmt.Errorf("%w: %v", ErrInconsistentState, err)
	}
	return p, nil
}

// ViewportZoom scales the pixels-per-unit calibration by ratio, keeping the window centre fixed.
func (v *Viewer) ViewportZoom(ratio float64) error {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return fmt.Errorf("%w: zoom ratio %g", ErrInvalidArgument, ratio)
	}
	w, h := v.buffer.Size()
	vp := v.state.UserViewport
	halfW, halfH := float64(w)/2, float64(h)/2
	cx := vp.Left + halfW/vp.PixelsPerUnitX
	cy := vp.Top - halfH/vp.PixelsPerUnitY
	vp.PixelsPerUnitX *= ratio
	vp.PixelsPerUnitY *= ratio
	vp.Left = cx - halfW/vp.PixelsPerUnitX
	vp.Top = cy + halfH/vp.PixelsPerUnitY
	v.state.UserViewport = vp
	v.fastCacheValid = false
	return nil
}
