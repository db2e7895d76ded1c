package sceneview

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVecNear(t *testing.T, expected, got mgl64.Vec3, msgAndArgs ...interface{}) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], got[i], 1e-9, msgAndArgs...)
	}
}

func project(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	c := m.Mul4x1(p.Vec4(1))
	return c.Vec3().Mul(1 / c[3])
}

func TestRelativeViewportKeepsAspect(t *testing.T) {
	v, _, _ := newTestViewer(t, 400, 300, Capabilities{}, nil, parallelView())
	require.NoError(t, v.CalculateTransformation(400, 300))
	wp := v.WindowProjectionMatrix()
	assert.InDelta(t, 0.75, wp.At(0, 0), 1e-12)
	assert.InDelta(t, 1, wp.At(1, 1), 1e-12)
}

func TestDistortingRelativeViewportFillsTheWindow(t *testing.T) {
	v, _, _ := newTestViewer(t, 400, 300, Capabilities{}, nil, parallelView())
	require.NoError(t, v.SetViewportMode(ViewportDistortingRelative))
	require.NoError(t, v.CalculateTransformation(400, 300))
	wp := v.WindowProjectionMatrix()
	assert.InDelta(t, 1, wp.At(0, 0), 1e-12)
	assert.InDelta(t, 1, wp.At(1, 1), 1e-12)
}

func TestAbsoluteViewport(t *testing.T) {
	tests := []struct {
		name                   string
		ppu                    float64
		expectSx, expectTx, ty float64
	}{
		{"one pixel per screen pixel", 100, 1, 0, 0},
		{"half scale", 50, 0.5, -0.5, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, _, _ := newTestViewer(t, 200, 200, Capabilities{}, nil, parallelView())
			require.NoError(t, v.SetViewportMode(ViewportAbsolute))
			require.NoError(t, v.SetViewportInfo(ViewportInfo{Left: -1, Top: 1, PixelsPerUnitX: tc.ppu, PixelsPerUnitY: tc.ppu}))
			require.NoError(t, v.CalculateTransformation(200, 200))
			post := v.WindowProjectionMatrix().Mul4(v.ProjectionMatrix().Inv())
			assert.InDelta(t, tc.expectSx, post.At(0, 0), 1e-9)
			assert.InDelta(t, tc.expectSx, post.At(1, 1), 1e-9)
			assert.InDelta(t, tc.expectTx, post.At(0, 3), 1e-9)
			assert.InDelta(t, tc.ty, post.At(1, 3), 1e-9)
		})
	}
}

func TestPerspectiveVolumeIsMeasuredAtTheLookatPoint(t *testing.T) {
	v, _, _ := newTestViewer(t, 200, 200, Capabilities{}, nil,
		OptProjection(Perspective, ViewingVolume{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: 1, Far: 10}))
	require.NoError(t, v.CalculateTransformation(200, 200))
	m := v.WindowProjectionMatrix().Mul4(v.ModelviewMatrix())
	corner := project(m, mgl64.Vec3{1, 1, 0})
	assert.InDelta(t, 1, corner[0], 1e-9)
	assert.InDelta(t, 1, corner[1], 1e-9)
	centre := project(m, mgl64.Vec3{})
	assert.InDelta(t, 0, centre[0], 1e-9)
}

func TestPerspectiveRejectsCoincidentEye(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	v.state.Eye = v.state.Lookat
	assert.ErrorIs(t, v.CalculateTransformation(8, 8), ErrInconsistentState)
}

func TestCustomProjection(t *testing.T) {
	v, _, _ := newTestViewer(t, 200, 200, Capabilities{}, nil)
	require.NoError(t, v.SetProjectionMode(Custom))
	assert.ErrorIs(t, v.CalculateTransformation(200, 200), ErrInconsistentState)

	p := mgl64.Scale3D(0.5, 0.5, 0.5)
	mv := mgl64.Translate3D(0, 0, -1)
	require.NoError(t, v.SetProjectionMatrix(p))
	require.NoError(t, v.SetModelviewMatrix(mv))
	require.NoError(t, v.CalculateTransformation(200, 200))
	assert.True(t, v.WindowProjectionMatrix().ApproxEqual(p))
	assert.True(t, v.ModelviewMatrix().ApproxEqual(mv))
}

func TestMatricesCanOnlyBeSetInCustomMode(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	assert.ErrorIs(t, v.SetProjectionMatrix(mgl64.Ident4()), ErrInconsistentState)
	assert.ErrorIs(t, v.SetModelviewMatrix(mgl64.Ident4()), ErrInconsistentState)
}

func TestCalculateTransformationRejectsEmptyViewport(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	assert.ErrorIs(t, v.CalculateTransformation(0, 8), ErrInvalidArgument)
}

func TestGetTransformationToWindow(t *testing.T) {
	v, _, _ := newTestViewer(t, 400, 200, Capabilities{}, nil, parallelView())

	m, err := v.GetTransformationToWindow(CoordinatesWindowPixelTopLeft, nil)
	require.NoError(t, err)
	assertVecNear(t, mgl64.Vec3{-1, 1, 0}, project(m, mgl64.Vec3{0, 0, 0}))
	assertVecNear(t, mgl64.Vec3{1, -1, 0}, project(m, mgl64.Vec3{400, 200, 0}))

	m, err = v.GetTransformationToWindow(CoordinatesWindowPixelBottomLeft, nil)
	require.NoError(t, err)
	assertVecNear(t, mgl64.Vec3{-1, -1, 0}, project(m, mgl64.Vec3{0, 0, 0}))

	m, err = v.GetTransformationToWindow(CoordinatesNormalisedWindowFitLeft, nil)
	require.NoError(t, err)
	assertVecNear(t, mgl64.Vec3{-1, 1, 0}, project(m, mgl64.Vec3{-1, 1, 0}))
	assertVecNear(t, mgl64.Vec3{0, -1, 0}, project(m, mgl64.Vec3{1, -1, 0}))

	m, err = v.GetTransformationToWindow(CoordinatesNormalisedWindowFitRight, nil)
	require.NoError(t, err)
	assertVecNear(t, mgl64.Vec3{1, 0, 0}, project(m, mgl64.Vec3{1, 0, 0}))

	m, err = v.GetTransformationToWindow(CoordinatesNormalisedWindowFill, nil)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Ident4(), m)
}

func TestGetTransformationToWindowFromWorldFlipsDepth(t *testing.T) {
	v, _, _ := newTestViewer(t, 200, 200, Capabilities{}, nil, parallelView())
	m, err := v.GetTransformationToWindow(CoordinatesWorld, nil)
	require.NoError(t, err)
	// the nearest point of the volume (z = 1) ends up at +1
	assertVecNear(t, mgl64.Vec3{0.5, 0, 1}, project(m, mgl64.Vec3{0.5, 0, 1}))

	_, err = v.GetTransformationToWindow(CoordinatesLocal, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	local := mgl64.Translate3D(0.25, 0, 0)
	m, err = v.GetTransformationToWindow(CoordinatesLocal, &local)
	require.NoError(t, err)
	assertVecNear(t, mgl64.Vec3{0.25, 0, 0}, project(m, mgl64.Vec3{}))
}

func TestUnprojectInvertsTheProjection(t *testing.T) {
	v, _, _ := newTestViewer(t, 200, 200, Capabilities{}, nil, parallelView())
	p, err := v.Unproject(100, 100, 0)
	require.NoError(t, err)
	assertVecNear(t, mgl64.Vec3{0, 0, 1}, p)
	p, err = v.Unproject(200, 0, 1)
	require.NoError(t, err)
	assertVecNear(t, mgl64.Vec3{1, 1, -1}, p)
}

func TestViewportZoomKeepsTheCentre(t *testing.T) {
	v, _, _ := newTestViewer(t, 200, 200, Capabilities{}, nil)
	require.NoError(t, v.ViewportZoom(2))
	vp := v.ViewportInfo()
	assert.InDelta(t, 2, vp.PixelsPerUnitX, 1e-12)
	assert.InDelta(t, 50, vp.Left, 1e-9)
	assert.InDelta(t, -50, vp.Top, 1e-9)
	assert.ErrorIs(t, v.ViewportZoom(0), ErrInvalidArgument)
	assert.ErrorIs(t, v.ViewportZoom(math.Inf(1)), ErrInvalidArgument)
}

func TestViewportZoomRoundTrip(t *testing.T) {
	v, _, _ := newTestViewer(t, 320, 200, Capabilities{}, nil)
	start := ViewportInfo{Left: -3.5, Top: 7.25, PixelsPerUnitX: 40, PixelsPerUnitY: 25}
	require.NoError(t, v.SetViewportInfo(start))
	for _, ratio := range []float64{2, 0.3, 17} {
		require.NoError(t, v.ViewportZoom(ratio))
		require.NoError(t, v.ViewportZoom(1/ratio))
		vp := v.ViewportInfo()
		assert.InDelta(t, start.Left, vp.Left, 1e-9, "ratio %g", ratio)
		assert.InDelta(t, start.Top, vp.Top, 1e-9, "ratio %g", ratio)
		assert.InDelta(t, start.PixelsPerUnitX, vp.PixelsPerUnitX, 1e-9, "ratio %g", ratio)
		assert.InDelta(t, start.PixelsPerUnitY, vp.PixelsPerUnitY, 1e-9, "ratio %g", ratio)
	}
}
