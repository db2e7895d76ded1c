package sceneview

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yeicor/sceneview/internal/raster"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// PixelFormat is the layout of the bytes returned by GetFramePixels.
type PixelFormat int

const (
	PixelRGB PixelFormat = iota
	PixelRGBA
	PixelLuminance
	PixelLuminanceAlpha
)

// Channels is the number of bytes per pixel.
func (f PixelFormat) Channels() int {
	switch f {
	case PixelRGB:
		return 3
	case PixelRGBA:
		return 4
	case PixelLuminance:
		return 1
	case PixelLuminanceAlpha:
		return 2
	default:
		return 0
	}
}

// GetImage renders the scene into a new image of the given size (0 uses the window size). The frame is
// drawn into a private target, so the window contents are left untouched. antialias and
// transparencyLayers override the viewer's settings when > 0. Offscreen frames cannot accumulate,
// so antialiasing and depth of field degrade to a single sample.
func (v *Viewer) GetImage(width, height, antialias, transparencyLayers int, offscreen bool) (*image.NRGBA, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidArgument, width, height)
	}
	if width == 0 || height == 0 {
		width, height = v.buffer.Size()
	}
	caps := v.buffer.Capabilities()
	caps.DoubleBuffer = false
	caps.Stereo = false
	target, err := raster.NewTarget(width, height, caps, offscreen)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	err = v.renderFrame(frameRequest{
		target:             target,
		viewport:           image.Rect(0, 0, width, height),
		antialias:          antialias,
		transparencyLayers: transparencyLayers,
		offscreen:          offscreen,
		capture:            img,
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// GetFramePixels renders like GetImage and packs the pixels in the given format, rows top to bottom.
func (v *Viewer) GetFramePixels(format PixelFormat, width, height, antialias, transparencyLayers int, offscreen bool) ([]byte, error) {
	channels := format.Channels()
	if channels == 0 {
		return nil, fmt.Errorf("%w: pixel format %d", ErrInvalidArgument, format)
	}
	img, err := v.GetImage(width, height, antialias, transparencyLayers, offscreen)
	if err != nil {
		return nil, err
	}
	return packPixels(img, format), nil
}

func packPixels(img *image.NRGBA, format PixelFormat) []byte {
	channels := format.Channels()
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*channels)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):][:4*b.Dx()]
		for x := 0; x < len(row); x += 4 {
			r, g, bl, a := row[x], row[x+1], row[x+2], row[x+3]
			switch format {
			case PixelRGB:
				out = append(out, r, g, bl)
			case PixelRGBA:
				out = append(out, r, g, bl, a)
			case PixelLuminance:
				out = append(out, luminance(r, g, bl))
			case PixelLuminanceAlpha:
				out = append(out, luminance(r, g, bl), a)
			}
		}
	}
	return out
}

// luminance uses the Rec. 601 weights.
func luminance(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

// SaveImage renders like GetImage and writes the result to path. The format follows the extension
// (.png, .tif/.tiff or .bmp).
func (v *Viewer) SaveImage(path string, width, height, antialias, transparencyLayers int, offscreen bool) error {
	var encode func(f *os.File, img image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = func(f *os.File, img image.Image) error { return png.Encode(f, img) }
	case ".tif", ".tiff":
		encode = func(f *os.File, img image.Image) error {
			return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
		}
	case ".bmp":
		encode = func(f *os.File, img image.Image) error { return bmp.Encode(f, img) }
	default:
		return fmt.Errorf("%w: unknown image extension in %q", ErrInvalidArgument, path)
	}
	img, err := v.GetImage(width, height, antialias, transparencyLayers, offscreen)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
