package sceneview

import (
	"math"
	"testing"

	"github.com/Yeicor/sceneview/scene"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLookatParametersValidation(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	tests := []struct {
		name            string
		eye, lookat, up mgl64.Vec3
	}{
		{"coincident eye and lookat", mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, 1, 0}},
		{"zero up", mgl64.Vec3{0, 0, 2}, mgl64.Vec3{}, mgl64.Vec3{}},
		{"up along the view", mgl64.Vec3{0, 0, 2}, mgl64.Vec3{}, mgl64.Vec3{0, 0, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, v.SetLookatParameters(tc.eye, tc.lookat, tc.up), ErrInvalidArgument)
			assert.ErrorIs(t, v.SetLookatParametersNonSkew(tc.eye, tc.lookat, tc.up), ErrInvalidArgument)
		})
	}
	eye, lookat, up := v.LookatParameters()
	assert.Equal(t, mgl64.Vec3{0, 0, 2}, eye)
	assert.Equal(t, mgl64.Vec3{}, lookat)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, up)
}

func TestSetLookatParametersKeepsSkew(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	require.NoError(t, v.SetLookatParameters(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 1}))
	_, _, up := v.LookatParameters()
	assert.Equal(t, mgl64.Vec3{0, 1, 1}, up)

	require.NoError(t, v.SetLookatParametersNonSkew(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{}, mgl64.Vec3{0, 3, 1}))
	_, _, up = v.LookatParameters()
	assertVecNear(t, mgl64.Vec3{0, 1, 0}, up)
}

func TestRotateAboutLookatPoint(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	require.NoError(t, v.SetLookatParameters(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0}))
	require.NoError(t, v.RotateAboutLookatPoint(mgl64.Vec3{0, 5, 0}, math.Pi/2))
	eye, lookat, up := v.LookatParameters()
	assertVecNear(t, mgl64.Vec3{2, 0, 1}, eye)
	assertVecNear(t, mgl64.Vec3{0, 0, 1}, lookat)
	assertVecNear(t, mgl64.Vec3{0, 1, 0}, up)

	require.NoError(t, v.RotateAboutLookatPoint(mgl64.Vec3{0, 0, 1}, math.Pi/2))
	_, _, up = v.LookatParameters()
	assertVecNear(t, mgl64.Vec3{-1, 0, 0}, up)

	assert.ErrorIs(t, v.RotateAboutLookatPoint(mgl64.Vec3{}, 1), ErrInvalidArgument)
	assert.ErrorIs(t, v.RotateAboutLookatPoint(mgl64.Vec3{1, 0, 0}, math.NaN()), ErrInvalidArgument)
}

func TestRotateAboutLookatPointRoundTrip(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	eye0, lookat0, up0 := mgl64.Vec3{1, 2, 3}, mgl64.Vec3{-1, 0.5, 0}, mgl64.Vec3{0, 1, 0.2}
	require.NoError(t, v.SetLookatParameters(eye0, lookat0, up0))
	for _, axis := range []mgl64.Vec3{{0, 1, 0}, {1, -2, 0.5}, {0, 0, 3}} {
		for _, theta := range []float64{0.3, -2, math.Pi} {
			require.NoError(t, v.RotateAboutLookatPoint(axis, theta))
			require.NoError(t, v.RotateAboutLookatPoint(axis, -theta))
			eye, lookat, up := v.LookatParameters()
			assertVecNear(t, eye0, eye)
			assertVecNear(t, lookat0, lookat)
			assertVecNear(t, up0, up)
		}
	}
}

func TestSetViewingVolumeValidation(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	assert.ErrorIs(t, v.SetViewingVolume(ViewingVolume{Left: 1, Right: -1, Bottom: -1, Top: 1, Near: 1, Far: 2}), ErrInvalidArgument)
	assert.ErrorIs(t, v.SetViewingVolume(ViewingVolume{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: 2, Far: 2}), ErrInvalidArgument)
	// perspective needs a positive near plane, parallel does not
	assert.ErrorIs(t, v.SetViewingVolume(ViewingVolume{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: 0, Far: 2}), ErrInvalidArgument)
	require.NoError(t, v.SetProjectionMode(Parallel))
	require.NoError(t, v.SetViewingVolume(ViewingVolume{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: -1, Far: 2}))
	assert.ErrorIs(t, v.SetProjectionMode(Perspective), ErrInconsistentState)
	assert.Equal(t, Parallel, v.ProjectionMode())
}

func TestViewAngle(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	require.NoError(t, v.SetViewAngle(math.Pi/2))
	vol := v.ViewingVolume()
	assert.InDelta(t, -2, vol.Left, 1e-9)
	assert.InDelta(t, 2, vol.Top, 1e-9)
	assert.InDelta(t, math.Pi/2, v.ViewAngle(), 1e-9)
	assert.ErrorIs(t, v.SetViewAngle(0), ErrInvalidArgument)
	assert.ErrorIs(t, v.SetViewAngle(math.Pi), ErrInvalidArgument)
}

func TestViewAllFitsTheBounds(t *testing.T) {
	box := &scene.Object{Name: "box", Triangles: scene.Box(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}, red)}
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, []*scene.Object{box})
	require.NoError(t, v.ViewAll())
	r := math.Sqrt(3)
	eye, lookat, _ := v.LookatParameters()
	assertVecNear(t, mgl64.Vec3{0, 0, 3 * r}, eye)
	assertVecNear(t, mgl64.Vec3{}, lookat)
	vol := v.ViewingVolume()
	assert.InDelta(t, 1.05*r, vol.Right, 1e-9)
	assert.InDelta(t, r, vol.Near, 1e-9)
	assert.InDelta(t, 5*r, vol.Far, 1e-9)
}

func TestViewAllNeedsContent(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	assert.ErrorIs(t, v.ViewAll(), ErrInconsistentState)
}
