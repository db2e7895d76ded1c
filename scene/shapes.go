package scene

import (
	"github.com/Yeicor/sceneview/graphics"
	"github.com/go-gl/mathgl/mgl64"
)

// Quad returns two triangles covering the quadrilateral a, b, c, d (counter-clockwise), with texture
// coordinates running from (0, 0) at a to (1, 1) at c.
func Quad(a, b, c, d mgl64.Vec3, color mgl64.Vec4) []graphics.Triangle {
	uv := [4]mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	corners := [4]mgl64.Vec3{a, b, c, d}
	normal := b.Sub(a).Cross(d.Sub(a))
	if normal.Len() > 0 {
		normal = normal.Normalize()
	}
	vertex := func(i int) graphics.Vertex {
		return graphics.Vertex{Position: corners[i], Normal: normal, Color: color, UV: uv[i]}
	}
	return []graphics.Triangle{
		{V: [3]graphics.Vertex{vertex(0), vertex(1), vertex(2)}},
		{V: [3]graphics.Vertex{vertex(0), vertex(2), vertex(3)}},
	}
}

// Rectangle is an axis-aligned rectangle in the plane z = depth, facing +z.
func Rectangle(minX, minY, maxX, maxY, depth float64, color mgl64.Vec4) []graphics.Triangle {
	return Quad(
		mgl64.Vec3{minX, minY, depth}, mgl64.Vec3{maxX, minY, depth},
		mgl64.Vec3{maxX, maxY, depth}, mgl64.Vec3{minX, maxY, depth},
		color,
	)
}

// Box is an axis-aligned box with outward-facing sides.
func Box(minimum, maximum mgl64.Vec3, color mgl64.Vec4) []graphics.Triangle {
	x0, y0, z0 := minimum[0], minimum[1], minimum[2]
	x1, y1, z1 := maximum[0], maximum[1], maximum[2]
	p := func(x, y, z float64) mgl64.Vec3 { return mgl64.Vec3{x, y, z} }
	var res []graphics.Triangle
	for _, face := range [][4]mgl64.Vec3{
		{p(x0, y0, z1), p(x1, y0, z1), p(x1, y1, z1), p(x0, y1, z1)}, // +z
		{p(x1, y0, z0), p(x0, y0, z0), p(x0, y1, z0), p(x1, y1, z0)}, // -z
		{p(x1, y0, z1), p(x1, y0, z0), p(x1, y1, z0), p(x1, y1, z1)}, // +x
		{p(x0, y0, z0), p(x0, y0, z1), p(x0, y1, z1), p(x0, y1, z0)}, // -x
		{p(x0, y1, z1), p(x1, y1, z1), p(x1, y1, z0), p(x0, y1, z0)}, // +y
		{p(x0, y0, z0), p(x1, y0, z0), p(x1, y0, z1), p(x0, y0, z1)}, // -y
	} {
		res = append(res, Quad(face[0], face[1], face[2], face[3], color)...)
	}
	return res
}
