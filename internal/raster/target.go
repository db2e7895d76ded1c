package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/Yeicor/sceneview/internal"
	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxPixels bounds the size of a single buffer of a Target.
const MaxPixels = 1 << 26

// Capabilities describes what a graphics buffer (and therefore its Target) provides.
type Capabilities struct {
	DoubleBuffer  bool
	Stereo        bool
	Accumulation  bool
	StencilBits   int
	VertexBuffers bool
	DisplayLists  bool
}

// DrawBuffer is a set of color buffers that drawing and clearing operate on.
type DrawBuffer uint8

const (
	BackLeft DrawBuffer = 1 << iota
	BackRight
	FrontLeft
	FrontRight

	Back  = BackLeft | BackRight
	Front = FrontLeft | FrontRight
)

// Target is a software framebuffer: up to four color+depth buffers plus per-buffer accumulation storage.
type Target struct {
	width, height int
	caps          Capabilities
	offscreen     bool
	buffers       [4]*fauxgl.Context
	accum         [4][]float64
	draw          DrawBuffer
}

// NewTarget allocates the buffers allowed by caps. Offscreen targets never accumulate.
func NewTarget(width, height int, caps Capabilities, offscreen bool) (*Target, error) {
	t := &Target{caps: caps, offscreen: offscreen}
	if err := t.Resize(width, height); err != nil {
		return nil, err
	}
	t.draw = t.DefaultDrawBuffer()
	return t, nil
}

// Resize reallocates every buffer (contents are lost) when the size changes.
func (t *Target) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: target size %dx%d", internal.ErrInvalidArgument, width, height)
	}
	if width > MaxPixels/height {
		return fmt.Errorf("%w: %dx%d pixels exceed the target limit", internal.ErrAllocationFailure, width, height)
	}
	if width == t.width && height == t.height {
		return nil
	}
	t.width, t.height = width, height
	for i := range t.buffers {
		t.buffers[i] = nil
		t.accum[i] = nil
		if t.allocated(DrawBuffer(1 << i)) {
			ctx := fauxgl.NewContext(width, height)
			ctx.Cull = fauxgl.CullNone
			t.buffers[i] = ctx
		}
	}
	return nil
}

func (t *Target) allocated(b DrawBuffer) bool {
	if b&Back != 0 && !t.caps.DoubleBuffer {
		return false
	}
	if b&(BackRight|FrontRight) != 0 && !t.caps.Stereo {
		return false
	}
	return true
}

func (t *Target) Width() int                 { return t.width }
func (t *Target) Height() int                { return t.height }
func (t *Target) Capabilities() Capabilities { return t.caps }
func (t *Target) Offscreen() bool            { return t.offscreen }

// CanAccumulate reports whether the accumulation operations are available.
func (t *Target) CanAccumulate() bool {
	return t.caps.Accumulation && !t.offscreen
}

// DefaultDrawBuffer is BACK for double-buffered targets and FRONT otherwise.
func (t *Target) DefaultDrawBuffer() DrawBuffer {
	if t.caps.DoubleBuffer {
		return Back
	}
	return Front
}

// SetDrawBuffer selects the buffers drawing operates on and returns the previous selection.
func (t *Target) SetDrawBuffer(b DrawBuffer) DrawBuffer {
	prev := t.draw
	t.draw = b
	return prev
}

func (t *Target) DrawBuffer() DrawBuffer { return t.draw }

// contexts returns the allocated buffers of the current draw buffer selection.
func (t *Target) contexts() []*fauxgl.Context {
	res := make([]*fauxgl.Context, 0, 2)
	for i, ctx := range t.buffers {
		if ctx != nil && t.draw&DrawBuffer(1<<i) != 0 {
			res = append(res, ctx)
		}
	}
	return res
}

func (t *Target) selected() []int {
	res := make([]int, 0, 2)
	for i, ctx := range t.buffers {
		if ctx != nil && t.draw&DrawBuffer(1<<i) != 0 {
			res = append(res, i)
		}
	}
	return res
}

// Clear clears color (to c) and depth of the selected buffers.
func (t *Target) Clear(c mgl64.Vec4) {
	t.ClearColor(c)
	t.ClearDepth()
}

func (t *Target) ClearColor(c mgl64.Vec4) {
	for _, ctx := range t.contexts() {
		ctx.ClearColorBufferWith(toFauxglColor(c))
	}
}

func (t *Target) ClearDepth() {
	for _, ctx := range t.contexts() {
		ctx.ClearDepthBuffer()
	}
}

// ClearRect clears color (to c) and depth of the selected buffers inside r only.
func (t *Target) ClearRect(c mgl64.Vec4, r image.Rectangle) {
	col := toFauxglColor(c).NRGBA()
	t.clearRect(&col, r)
}

// ClearDepthRect clears the depth of the selected buffers inside r only.
func (t *Target) ClearDepthRect(r image.Rectangle) {
	t.clearRect(nil, r)
}

func (t *Target) clearRect(col *color.NRGBA, r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, t.width, t.height))
	if r.Empty() {
		return
	}
	for _, ctx := range t.contexts() {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			if col != nil {
				for x := r.Min.X; x < r.Max.X; x++ {
					ctx.ColorBuffer.SetNRGBA(x, y, *col)
				}
			}
			row := ctx.DepthBuffer[y*t.width:]
			for x := r.Min.X; x < r.Max.X; x++ {
				row[x] = math.MaxFloat64
			}
		}
	}
}

// Accumulate loads (load=true) or adds the selected buffers' colors, scaled by weight, into accumulation storage.
func (t *Target) Accumulate(load bool, weight float64) error {
	if !t.CanAccumulate() {
		return fmt.Errorf("%w: accumulation buffer", internal.ErrUnsupportedCapability)
	}
	for _, i := range t.selected() {
		pix := t.buffers[i].ColorBuffer.Pix
		if len(t.accum[i]) != len(pix) {
			t.accum[i] = make([]float64, len(pix))
		}
		acc := t.accum[i]
		stride := t.width * 4
		parallelRows(t.height, func(y0, y1 int) {
			for j := y0 * stride; j < y1*stride; j++ {
				v := weight * float64(pix[j]) / 255
				if load {
					acc[j] = v
				} else {
					acc[j] += v
				}
			}
		})
	}
	return nil
}

// AccumReturn writes the accumulation storage, multiplied by scale and clamped, back into the selected buffers.
func (t *Target) AccumReturn(scale float64) error {
	if !t.CanAccumulate() {
		return fmt.Errorf("%w: accumulation buffer", internal.ErrUnsupportedCapability)
	}
	for _, i := range t.selected() {
		pix := t.buffers[i].ColorBuffer.Pix
		acc := t.accum[i]
		if len(acc) != len(pix) {
			continue
		}
		stride := t.width * 4
		parallelRows(t.height, func(y0, y1 int) {
			for j := y0 * stride; j < y1*stride; j++ {
				pix[j] = unitToByte(acc[j] * scale)
			}
		})
	}
	return nil
}

// Swap presents the back buffers by copying them into the front buffers.
func (t *Target) Swap() {
	if !t.caps.DoubleBuffer {
		return
	}
	for _, pair := range [][2]int{{0, 2}, {1, 3}} {
		back, front := t.buffers[pair[0]], t.buffers[pair[1]]
		if back == nil || front == nil {
			continue
		}
		copy(front.ColorBuffer.Pix, back.ColorBuffer.Pix)
		copy(front.DepthBuffer, back.DepthBuffer)
	}
}

// Image returns the color buffer of the first allocated buffer of b (nil when none is allocated).
func (t *Target) Image(b DrawBuffer) *image.NRGBA {
	for i, ctx := range t.buffers {
		if ctx != nil && b&DrawBuffer(1<<i) != 0 {
			return ctx.ColorBuffer
		}
	}
	return nil
}

// Depth returns the depth buffer of the first selected buffer.
func (t *Target) Depth() []float64 {
	ctxs := t.contexts()
	if len(ctxs) == 0 {
		return nil
	}
	return ctxs[0].DepthBuffer
}

// DepthCopy returns a copy of Depth.
func (t *Target) DepthCopy() []float64 {
	d := t.Depth()
	res := make([]float64, len(d))
	copy(res, d)
	return res
}

// CompositeOver blends src (straight alpha) over the selected buffers with its top-left corner at
// the target pixel at. Pixels outside the target are dropped.
func (t *Target) CompositeOver(src *image.NRGBA, at image.Point, blend internal.BlendingMode) {
	area := image.Rectangle{Min: at, Max: at.Add(src.Rect.Size())}.Intersect(image.Rect(0, 0, t.width, t.height))
	if area.Empty() {
		return
	}
	offset := src.Rect.Min.Sub(at)
	for _, ctx := range t.contexts() {
		dst := ctx.ColorBuffer
		parallelRows(area.Dy(), func(y0, y1 int) {
			for y := area.Min.Y + y0; y < area.Min.Y+y1; y++ {
				for x := area.Min.X; x < area.Max.X; x++ {
					j := dst.PixOffset(x, y)
					k := src.PixOffset(x+offset.X, y+offset.Y)
					blendOver(dst.Pix[j:j+4], src.Pix[k:k+4], blend)
				}
			}
		})
	}
}

func blendOver(dst, src []uint8, blend internal.BlendingMode) {
	sa := float64(src[3]) / 255
	if sa == 0 {
		return
	}
	if blend == internal.BlendNone {
		copy(dst, src)
		return
	}
	da := float64(dst[3]) / 255
	for c := 0; c < 3; c++ {
		dst[c] = unitToByte(float64(src[c])/255*sa + float64(dst[c])/255*(1-sa))
	}
	if blend == internal.BlendTrueAlpha {
		dst[3] = unitToByte(sa + da*(1-sa))
	} else {
		dst[3] = unitToByte(sa*sa + da*(1-sa))
	}
}

// Snapshot holds a copy of every allocated buffer.
type Snapshot struct {
	width, height int
	color         [4][]uint8
	depth         [4][]float64
}

// Snapshot copies the color and depth of all allocated buffers.
func (t *Target) Snapshot() *Snapshot {
	s := &Snapshot{width: t.width, height: t.height}
	for i, ctx := range t.buffers {
		if ctx == nil {
			continue
		}
		s.color[i] = append([]uint8(nil), ctx.ColorBuffer.Pix...)
		s.depth[i] = append([]float64(nil), ctx.DepthBuffer...)
	}
	return s
}

// Matches reports whether the snapshot can be restored into t.
func (s *Snapshot) Matches(t *Target) bool {
	return s != nil && s.width == t.width && s.height == t.height
}

// Restore copies a snapshot back into the selected buffers.
func (t *Target) Restore(s *Snapshot) error {
	if !s.Matches(t) {
		return fmt.Errorf("%w: snapshot does not match the target size", internal.ErrInconsistentState)
	}
	for _, i := range t.selected() {
		if s.color[i] == nil {
			continue
		}
		copy(t.buffers[i].ColorBuffer.Pix, s.color[i])
		copy(t.buffers[i].DepthBuffer, s.depth[i])
	}
	return nil
}

func toFauxglColor(c mgl64.Vec4) fauxgl.Color {
	return fauxgl.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}

func unitToByte(f float64) uint8 {
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}
