package sceneview

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/Yeicor/sceneview/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaptureViewer(t *testing.T) (*Viewer, *HeadlessBuffer) {
	t.Helper()
	// red on the left half, black on the right half
	left := &scene.Object{Name: "left", Triangles: scene.Rectangle(-3, -3, 0, 3, 0, red)}
	v, host, _ := newTestViewer(t, 8, 8, Capabilities{DoubleBuffer: true}, []*scene.Object{left}, parallelView())
	return v, host
}

func TestPixelFormatChannels(t *testing.T) {
	assert.Equal(t, 3, PixelRGB.Channels())
	assert.Equal(t, 4, PixelRGBA.Channels())
	assert.Equal(t, 1, PixelLuminance.Channels())
	assert.Equal(t, 2, PixelLuminanceAlpha.Channels())
	assert.Equal(t, 0, PixelFormat(42).Channels())
}

func TestGetFramePixels(t *testing.T) {
	v, host := newCaptureViewer(t)
	tests := []struct {
		format      PixelFormat
		left, right []byte
	}{
		{PixelRGB, []byte{255, 0, 0}, []byte{0, 0, 0}},
		{PixelRGBA, []byte{255, 0, 0, 255}, []byte{0, 0, 0, 255}},
		{PixelLuminance, []byte{76}, []byte{0}},
		{PixelLuminanceAlpha, []byte{76, 255}, []byte{0, 255}},
	}
	for _, tc := range tests {
		pixels, err := v.GetFramePixels(tc.format, 4, 2, 0, 0, false)
		require.NoError(t, err)
		n := tc.format.Channels()
		require.Len(t, pixels, 4*2*n)
		for y := 0; y < 2; y++ {
			row := pixels[y*4*n:]
			assert.Equal(t, tc.left, row[:n], "format %d", tc.format)
			assert.Equal(t, tc.right, row[3*n:4*n], "format %d", tc.format)
		}
	}
	assert.Equal(t, 0, host.SwapCount(), "captures leave the window alone")

	_, err := v.GetFramePixels(PixelFormat(42), 4, 4, 0, 0, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetImageUsesTheWindowSizeByDefault(t *testing.T) {
	v, _ := newCaptureViewer(t)
	img, err := v.GetImage(0, 0, 0, 0, true)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
	assert.Equal(t, uint8(255), img.NRGBAAt(1, 1).R)
	assert.Equal(t, uint8(0), img.NRGBAAt(6, 6).R)

	_, err = v.GetImage(-1, 4, 0, 0, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSaveImage(t *testing.T) {
	v, _ := newCaptureViewer(t)
	dir := t.TempDir()
	for _, name := range []string{"frame.png", "frame.tiff", "frame.bmp"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, v.SaveImage(path, 8, 8, 0, 0, false))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			img, _, err := image.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 8, img.Bounds().Dx())
			r, g, _, _ := img.At(1, 1).RGBA()
			assert.Equal(t, uint32(0xffff), r)
			assert.Equal(t, uint32(0), g)
		})
	}
	err := v.SaveImage(filepath.Join(dir, "frame.xyz"), 8, 8, 0, 0, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.NoFileExists(t, filepath.Join(dir, "frame.xyz"))
}
