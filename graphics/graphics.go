// Package graphics is the drawing contract between scenes and the viewer's renderer backend.
package graphics

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is a single triangle corner in world coordinates.
type Vertex struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Color    mgl64.Vec4 // straight (non-premultiplied) RGBA in [0, 1]
	UV       mgl64.Vec2
}

// Triangle is the only primitive scenes draw.
type Triangle struct {
	V [3]Vertex
}

// FaceNormal is the normalised normal of the triangle's plane (zero for degenerate triangles).
func (t Triangle) FaceNormal() mgl64.Vec3 {
	n := t.V[1].Position.Sub(t.V[0].Position).Cross(t.V[2].Position.Sub(t.V[0].Position))
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

// WithColor returns a copy of the triangle with every vertex set to the given color.
func (t Triangle) WithColor(c mgl64.Vec4) Triangle {
	for i := range t.V {
		t.V[i].Color = c
	}
	return t
}

// ChangeFilter selects which objects a scene should draw during one execution.
type ChangeFilter int

const (
	DrawAll          ChangeFilter = iota
	DrawStatic                    // only objects that are not fast-changing
	DrawFastChanging              // only fast-changing objects
)

// Light is a directional light, the direction pointing from the surface towards the light in eye coordinates.
type Light struct {
	Direction mgl64.Vec3
	Colour    mgl64.Vec3
}

// LightModel is the lighting environment for a frame. A nil model renders unlit vertex colours.
type LightModel struct {
	Ambient  mgl64.Vec3
	Lights   []Light
	TwoSided bool
}

// Renderer is what a scene sees while it is compiled or executed.
type Renderer interface {
	// DrawTriangles rasterizes the given triangles with the current pipeline state.
	DrawTriangles(tris []Triangle) error
	// CurrentLayer is the scene layer being drawn (scenes only draw objects of this layer).
	CurrentLayer() int
	// RegisterLayer declares that the scene has objects in the given layer (only valid while compiling).
	RegisterLayer(layer int)
	// ChangeFilter tells the scene whether to draw static objects, fast-changing objects or both.
	ChangeFilter() ChangeFilter
}

// ColorToVec4 converts any color into straight RGBA floats.
func ColorToVec4(c color.Color) mgl64.Vec4 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return mgl64.Vec4{float64(n.R) / 255, float64(n.G) / 255, float64(n.B) / 255, float64(n.A) / 255}
}

// Vec4ToNRGBA converts straight RGBA floats into an 8-bit color, clamping each channel.
func Vec4ToNRGBA(v mgl64.Vec4) color.NRGBA {
	conv := func(f float64) uint8 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 255
		}
		return uint8(f*255 + 0.5)
	}
	return color.NRGBA{R: conv(v[0]), G: conv(v[1]), B: conv(v[2]), A: conv(v[3])}
}
