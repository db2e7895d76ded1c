package raster

import (
	"image"
	"math"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/Yeicor/sceneview/internal"
	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
)

// alphaOne is the threshold above which an interpolated alpha counts as opaque.
const alphaOne = 1 - 1e-9

// pipelineShader implements the fixed-function pipeline on top of fauxgl: depth range remapping,
// viewport scissoring, user clip planes, depth peeling, lighting, texturing, alpha tests and blending.
// Blending is done here (reading the destination pixel) so fauxgl's own blending stays disabled.
type pipelineShader struct {
	clip      mgl64.Mat4 // viewport × projection × modelview
	modelview mgl64.Mat4
	normals   mgl64.Mat3
	a, b      float64 // depth remap
	state     *State
	dst       *fauxgl.Context
	view      image.Rectangle
	texture   fauxgl.Texture
	lights    *graphics.LightModel
}

func newPipelineShader(dst *fauxgl.Context, st *State, projection, modelview mgl64.Mat4, tex fauxgl.Texture, lights *graphics.LightModel) *pipelineShader {
	a, b := st.depthRemap()
	view := st.Viewport.Intersect(image.Rect(0, 0, dst.Width, dst.Height))
	return &pipelineShader{
		clip:      viewportMatrix(st.Viewport, dst.Width, dst.Height).Mul4(projection).Mul4(modelview),
		modelview: modelview,
		normals:   modelview.Mat3().Inv().Transpose(),
		a:         a,
		b:         b,
		state:     st,
		dst:       dst,
		view:      view,
		texture:   tex,
		lights:    lights,
	}
}

func (s *pipelineShader) clipPosition(p fauxgl.Vector) mgl64.Vec4 {
	return s.clip.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
}

func (s *pipelineShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	c := s.clipPosition(v.Position)
	v.Output = fauxgl.VectorW{X: c[0], Y: c[1], Z: s.a*c[2] + s.b*c[3], W: c[3]}
	return v
}

func (s *pipelineShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	c := s.clipPosition(v.Position)
	if c[3] <= 0 {
		return fauxgl.Discard
	}
	z := c[2] / c[3]
	if z < -1-1e-9 || z > 1+1e-9 {
		return fauxgl.Discard // outside the (unremapped) clip volume: layered slices rely on this
	}
	px, py := s.pixel(c)
	if !image.Pt(px, py).In(s.view) {
		return fauxgl.Discard
	}
	world := mgl64.Vec4{v.Position.X, v.Position.Y, v.Position.Z, 1}
	for _, plane := range s.state.ClipPlanes {
		if plane.Dot(world) < 0 {
			return fauxgl.Discard
		}
	}
	if s.state.Peel != nil {
		depth := 0.5*(s.a*z+s.b) + 0.5
		if depth <= s.state.Peel[py*s.dst.Width+px]+1e-9 {
			return fauxgl.Discard
		}
	}
	col := mgl64.Vec4{v.Color.R, v.Color.G, v.Color.B, v.Color.A}
	if s.texture != nil {
		t := s.texture.BilinearSample(v.Texture.X, v.Texture.Y)
		col = mgl64.Vec4{col[0] * t.R, col[1] * t.G, col[2] * t.B, col[3] * t.A}
	}
	if s.lights != nil {
		col = s.light(col, v.Normal)
	}
	switch s.state.Alpha {
	case AlphaOpaque:
		if col[3] < alphaOne {
			return fauxgl.Discard
		}
	case AlphaTranslucent:
		if col[3] >= alphaOne {
			return fauxgl.Discard
		}
	default:
	}
	col = s.blend(col, px, py)
	return fauxgl.Color{R: col[0], G: col[1], B: col[2], A: col[3]}
}

// pixel converts clip coordinates into the target pixel that fauxgl rasterizes them to.
func (s *pipelineShader) pixel(c mgl64.Vec4) (int, int) {
	x := (c[0]/c[3] + 1) * 0.5 * float64(s.dst.Width)
	y := (1 - c[1]/c[3]) * 0.5 * float64(s.dst.Height)
	px := int(math.Floor(x + 1e-6))
	py := int(math.Floor(y + 1e-6))
	px = max(0, min(s.dst.Width-1, px))
	py = max(0, min(s.dst.Height-1, py))
	return px, py
}

func (s *pipelineShader) light(col mgl64.Vec4, n fauxgl.Vector) mgl64.Vec4 {
	normal := s.normals.Mul3x1(mgl64.Vec3{n.X, n.Y, n.Z})
	if normal.Len() > 0 {
		normal = normal.Normalize()
	}
	sum := s.lights.Ambient
	for _, l := range s.lights.Lights {
		dir := l.Direction
		if dir.Len() == 0 {
			continue
		}
		d := normal.Dot(dir.Normalize())
		if s.lights.TwoSided {
			d = math.Abs(d)
		}
		if d > 0 {
			sum = sum.Add(l.Colour.Mul(d))
		}
	}
	for i := 0; i < 3; i++ {
		col[i] *= math.Min(1, sum[i])
	}
	return col
}

func (s *pipelineShader) blend(src mgl64.Vec4, px, py int) mgl64.Vec4 {
	if s.state.Blend == internal.BlendNone {
		return src
	}
	d := s.dst.ColorBuffer.NRGBAAt(px, py)
	dst := mgl64.Vec4{float64(d.R) / 255, float64(d.G) / 255, float64(d.B) / 255, float64(d.A) / 255}
	sa := math.Max(0, math.Min(1, src[3]))
	res := mgl64.Vec4{}
	for i := 0; i < 3; i++ {
		res[i] = src[i]*sa + dst[i]*(1-sa)
	}
	if s.state.Blend == internal.BlendTrueAlpha {
		res[3] = sa + dst[3]*(1-sa)
	} else {
		res[3] = sa*sa + dst[3]*(1-sa)
	}
	return res
}
