package sceneview

import (
	"fmt"
	"image"
	_ "image/gif"  // background decoders
	_ "image/jpeg" // background decoders
	_ "image/png"  // background decoders
	"log"
	"math"
	"os"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/Yeicor/sceneview/internal"
	"github.com/Yeicor/sceneview/internal/raster"
	"github.com/go-gl/mathgl/mgl64"
	_ "golang.org/x/image/bmp"  // background decoders
	_ "golang.org/x/image/tiff" // background decoders
	_ "golang.org/x/image/webp" // background decoders
)

// maxBackgroundDivisions caps the undistortion grid resolution along each axis.
const maxBackgroundDivisions = 512

// SetBackgroundTexture sets the background image (nil removes it).
func (v *Viewer) SetBackgroundTexture(img image.Image) {
	v.bkImage = img
	v.bkTexture = nil
	v.bkTextureDirty = true
	v.fastCacheValid = false
}

// BackgroundTexture returns the background image.
func (v *Viewer) BackgroundTexture() image.Image { return v.bkImage }

// SetBackgroundTextureFile loads the background image from a file.
func (v *Viewer) SetBackgroundTextureFile(path string) error {
	img, err := decodeImageFile(path)
	if err != nil {
		return err
	}
	v.SetBackgroundTexture(img)
	return nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening background image: %v", ErrInvalidArgument, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding background image %s: %v", ErrInvalidArgument, path, err)
	}
	return img, nil
}

// BackgroundTextureInfo returns where the background image is placed in user-viewport units.
func (v *Viewer) BackgroundTextureInfo() internal.BackgroundTextureInfo {
	return v.state.BackgroundTexture
}

// SetBackgroundTextureInfo places the background image (top-left corner and size in user-viewport
// units) and configures radial undistortion, subdividing until no grid cell spans more than
// maxPixelsPerPolygon pixels.
func (v *Viewer) SetBackgroundTextureInfo(left, top, width, height float64, undistort bool, maxPixelsPerPolygon float64) error {
	if !(width > 0) || !(height > 0) {
		return fmt.Errorf("%w: background size %gx%g", ErrInvalidArgument, width, height)
	}
	if undistort && !(maxPixelsPerPolygon > 0) {
		return fmt.Errorf("%w: %g max pixels per polygon", ErrInvalidArgument, maxPixelsPerPolygon)
	}
	v.state.BackgroundTexture = internal.BackgroundTextureInfo{
		Left: left, Top: top, Width: width, Height: height,
		Undistort: undistort, MaxPixelsPerPolygon: maxPixelsPerPolygon,
	}
	v.fastCacheValid = false
	return nil
}

// BackgroundTextureDistortion returns the radial distortion model.
func (v *Viewer) BackgroundTextureDistortion() internal.Distortion { return v.state.BackgroundDistort }

// SetBackgroundTextureDistortion sets the radial distortion centre (user units) and coefficient.
func (v *Viewer) SetBackgroundTextureDistortion(centreX, centreY, k1 float64) error {
	for _, f := range []float64{centreX, centreY, k1} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: distortion (%g, %g, %g)", ErrInvalidArgument, centreX, centreY, k1)
		}
	}
	v.state.BackgroundDistort = internal.Distortion{CentreX: centreX, CentreY: centreY, K1: k1}
	v.fastCacheValid = false
	return nil
}

// backgroundPass clears the first layer (or restores the cached static image) and draws the background texture.
func backgroundPass(rc *RenderingContext) error {
	if rc.backend.LayerIndex() == 0 {
		if rc.restore != nil {
			if err := rc.target.Restore(rc.restore); err != nil {
				return err
			}
		} else {
			rc.target.ClearRect(rc.state.BackgroundColour, rc.viewport)
			if err := rc.viewer.drawBackgroundTexture(rc); err != nil {
				log.Println("[Viewer] ERROR: drawing the background texture:", err)
			}
		}
	}
	return rc.CallNextRenderer()
}

func (v *Viewer) drawBackgroundTexture(rc *RenderingContext) error {
	if v.bkImage == nil {
		return nil
	}
	if v.bkTextureDirty || v.bkTexture == nil {
		tex, err := rc.backend.TextureCompile(v.bkImage)
		if err != nil {
			return err
		}
		v.bkTexture = tex
		v.bkTextureDirty = false
	}
	w, h := viewportSize(rc.viewport)
	tris := backgroundTriangles(rc.state, w, h)
	st := rc.raster
	st.DepthTest = false
	st.DepthWrite = false
	st.Alpha = raster.AlphaAny
	st.ClipPlanes = nil
	st.Peel = nil
	st.DepthNear, st.DepthFar = 0, 1
	rc.backend.Begin(rc.target, &st, mgl64.Ortho(0, w, h, 0, -1, 1), mgl64.Ident4())
	rc.backend.TextureExecute(v.bkTexture)
	defer rc.backend.TextureExecute(nil)
	return rc.backend.DrawTriangles(tris)
}

// backgroundGrid returns the corrected grid vertices, in pixels, of the background rectangle:
// (divisions+1)² points row by row from the top-left corner.
func backgroundGrid(s *internal.ViewerState, w, h float64) (points []mgl64.Vec2, divisions int) {
	bk, d, vp := s.BackgroundTexture, s.BackgroundDistort, s.UserViewport
	toPixels := func(x, y float64) mgl64.Vec2 {
		return mgl64.Vec2{(x - vp.Left) * vp.PixelsPerUnitX, (vp.Top - y) * vp.PixelsPerUnitY}
	}
	divisions = 1
	if !bk.Undistort || d.K1 == 0 {
		return []mgl64.Vec2{
			toPixels(bk.Left, bk.Top), toPixels(bk.Left+bk.Width, bk.Top),
			toPixels(bk.Left, bk.Top-bk.Height), toPixels(bk.Left+bk.Width, bk.Top-bk.Height),
		}, divisions
	}
	for {
		points = points[:0]
		for j := 0; j <= divisions; j++ {
			for i := 0; i <= divisions; i++ {
				x := bk.Left + bk.Width*float64(i)/float64(divisions)
				y := bk.Top - bk.Height*float64(j)/float64(divisions)
				dx, dy := x-d.CentreX, y-d.CentreY
				f := 1 + d.K1*(dx*dx+dy*dy)
				points = append(points, toPixels(d.CentreX+dx*f, d.CentreY+dy*f))
			}
		}
		if divisions >= maxBackgroundDivisions || maxCellExtent(points, divisions) <= bk.MaxPixelsPerPolygon {
			return points, divisions
		}
		divisions *= 2
	}
}

// maxCellExtent is the largest x or y pixel extent of any grid cell edge.
func maxCellExtent(points []mgl64.Vec2, divisions int) float64 {
	stride := divisions + 1
	res := 0.0
	for j := 0; j <= divisions; j++ {
		for i := 0; i <= divisions; i++ {
			p := points[j*stride+i]
			if i < divisions {
				q := points[j*stride+i+1]
				res = math.Max(res, math.Max(math.Abs(q[0]-p[0]), math.Abs(q[1]-p[1])))
			}
			if j < divisions {
				q := points[(j+1)*stride+i]
				res = math.Max(res, math.Max(math.Abs(q[0]-p[0]), math.Abs(q[1]-p[1])))
			}
		}
	}
	return res
}

// backgroundTriangles triangulates the background grid with straight texture coordinates.
func backgroundTriangles(s *internal.ViewerState, w, h float64) []graphics.Triangle {
	points, divisions := backgroundGrid(s, w, h)
	stride := divisions + 1
	vertex := func(i, j int) graphics.Vertex {
		p := points[j*stride+i]
		return graphics.Vertex{
			Position: mgl64.Vec3{p[0], p[1], 0},
			Normal:   mgl64.Vec3{0, 0, 1},
			Color:    mgl64.Vec4{1, 1, 1, 1},
			UV:       mgl64.Vec2{float64(i) / float64(divisions), 1 - float64(j)/float64(divisions)},
		}
	}
	tris := make([]graphics.Triangle, 0, 2*divisions*divisions)
	for j := 0; j < divisions; j++ {
		for i := 0; i < divisions; i++ {
			tris = append(tris,
				graphics.Triangle{V: [3]graphics.Vertex{vertex(i, j), vertex(i, j+1), vertex(i+1, j+1)}},
				graphics.Triangle{V: [3]graphics.Vertex{vertex(i, j), vertex(i+1, j+1), vertex(i+1, j)}},
			)
		}
	}
	return tris
}
