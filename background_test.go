package sceneview

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Yeicor/sceneview/internal"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	require.NoError(t, os.Rename(tmp, path))
}

func TestBackgroundGridWithoutUndistortionIsARectangle(t *testing.T) {
	s := internal.NewViewerState()
	s.BackgroundTexture = internal.BackgroundTextureInfo{Left: 1, Top: 2, Width: 4, Height: 3, MaxPixelsPerPolygon: 1}
	s.UserViewport = internal.ViewportInfo{Left: 0, Top: 4, PixelsPerUnitX: 10, PixelsPerUnitY: 20}
	s.BackgroundDistort.K1 = 0.5 // ignored without undistortion
	points, divisions := backgroundGrid(s, 100, 100)
	assert.Equal(t, 1, divisions)
	assert.Equal(t, []mgl64.Vec2{{10, 40}, {50, 40}, {10, 100}, {50, 100}}, points)
	assert.Len(t, backgroundTriangles(s, 100, 100), 2)
}

func TestBackgroundGridSubdividesUntilCellsAreSmall(t *testing.T) {
	s := internal.NewViewerState()
	s.BackgroundTexture = internal.BackgroundTextureInfo{Left: -50, Top: 50, Width: 100, Height: 100, Undistort: true, MaxPixelsPerPolygon: 8}
	s.UserViewport = internal.ViewportInfo{Left: -50, Top: 50, PixelsPerUnitX: 1, PixelsPerUnitY: 1}
	s.BackgroundDistort = internal.Distortion{K1: 1e-5}
	points, divisions := backgroundGrid(s, 100, 100)
	assert.Greater(t, divisions, 1)
	assert.Equal(t, 0, divisions&(divisions-1), "divisions double")
	assert.LessOrEqual(t, maxCellExtent(points, divisions), 8.0)
	assert.Len(t, points, (divisions+1)*(divisions+1))

	// the centre of distortion does not move, the corners move outwards
	centre := points[(divisions/2)*(divisions+1)+divisions/2]
	assert.InDelta(t, 50, centre[0], 1e-9)
	assert.InDelta(t, 50, centre[1], 1e-9)
	r2 := 50.0 * 50 * 2
	corner := -50 * (1 + 1e-5*r2)
	assert.InDelta(t, corner+50, points[0][0], 1e-9)

	tris := backgroundTriangles(s, 100, 100)
	assert.Len(t, tris, 2*divisions*divisions)
	assert.Equal(t, mgl64.Vec2{0, 1}, tris[0].V[0].UV)
}

func TestBackgroundGridIsBounded(t *testing.T) {
	s := internal.NewViewerState()
	s.BackgroundTexture = internal.BackgroundTextureInfo{Width: 1, Height: 1, Undistort: true, MaxPixelsPerPolygon: 1e-12}
	s.UserViewport = internal.ViewportInfo{PixelsPerUnitX: 1000, PixelsPerUnitY: 1000}
	s.BackgroundDistort = internal.Distortion{K1: 0.1}
	_, divisions := backgroundGrid(s, 100, 100)
	assert.Equal(t, maxBackgroundDivisions, divisions)
}

func TestBackgroundTextureSettingsValidation(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	assert.ErrorIs(t, v.SetBackgroundTextureInfo(0, 0, 0, 1, false, 1), ErrInvalidArgument)
	assert.ErrorIs(t, v.SetBackgroundTextureInfo(0, 0, 1, 1, true, 0), ErrInvalidArgument)
	require.NoError(t, v.SetBackgroundTextureInfo(1, 2, 3, 4, true, 5))
	assert.Equal(t, internal.BackgroundTextureInfo{Left: 1, Top: 2, Width: 3, Height: 4, Undistort: true, MaxPixelsPerPolygon: 5},
		v.BackgroundTextureInfo())

	assert.ErrorIs(t, v.SetBackgroundTextureDistortion(0, math.NaN(), 0), ErrInvalidArgument)
	require.NoError(t, v.SetBackgroundTextureDistortion(1, 2, 0.1))
	assert.Equal(t, internal.Distortion{CentreX: 1, CentreY: 2, K1: 0.1}, v.BackgroundTextureDistortion())
}

func TestBackgroundTextureFile(t *testing.T) {
	v, host, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	dir := t.TempDir()
	assert.ErrorIs(t, v.SetBackgroundTextureFile(filepath.Join(dir, "missing.png")), ErrInvalidArgument)
	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	assert.ErrorIs(t, v.SetBackgroundTextureFile(garbage), ErrInvalidArgument)

	path := filepath.Join(dir, "bg.png")
	writePNG(t, path, color.NRGBA{G: 255, A: 255})
	require.NoError(t, v.SetBackgroundTextureFile(path))
	require.NoError(t, v.SetBackgroundTextureInfo(0, 0, 8, 8, false, 1))
	require.NotNil(t, v.BackgroundTexture())
	require.Equal(t, 1, host.RunIdle())
	assertRGB(t, color.NRGBA{G: 255}, pixelAt(t, host, 3, 3), 1)

	v.SetBackgroundTexture(nil)
	require.NoError(t, v.RedrawNow())
	assertRGB(t, color.NRGBA{}, pixelAt(t, host, 3, 3), 0)
}
