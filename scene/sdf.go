package scene

import (
	"log"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
)

// FromSDF3 meshes a signed distance field and returns its triangles, smoothing normals of faces that
// meet at less than smoothNormalsRadians (0 keeps flat shading).
func FromSDF3(s sdf.SDF3, mesher render.Render3, smoothNormalsRadians float64, color mgl64.Vec4) []graphics.Triangle {
	log.Println("[Scene] Meshing SDF3...")
	var triangles []*fauxgl.Triangle
	triChan := make(chan []*render.Triangle3)
	go func() {
		mesher.Render(s, triChan)
		close(triChan)
	}()
	for tris := range triChan {
		for _, tri := range tris {
			triangles = append(triangles, toFauxglTriangle(tri))
		}
	}
	if smoothNormalsRadians > 0 {
		fauxgl.NewTriangleMesh(triangles).SmoothNormalsThreshold(smoothNormalsRadians)
	}
	res := make([]graphics.Triangle, len(triangles))
	for i, t := range triangles {
		res[i] = graphics.Triangle{V: [3]graphics.Vertex{
			fromFauxglVertex(t.V1, color), fromFauxglVertex(t.V2, color), fromFauxglVertex(t.V3, color),
		}}
	}
	log.Println("[Scene] Mesh is ready:", len(res), "triangles")
	return res
}

func toFauxglTriangle(tri *render.Triangle3) *fauxgl.Triangle {
	normal := toFauxglVector(tri.Normal())
	return &fauxgl.Triangle{
		V1: fauxgl.Vertex{Position: toFauxglVector(tri.V[0]), Normal: normal},
		V2: fauxgl.Vertex{Position: toFauxglVector(tri.V[1]), Normal: normal},
		V3: fauxgl.Vertex{Position: toFauxglVector(tri.V[2]), Normal: normal},
	}
}

func toFauxglVector(v v3.Vec) fauxgl.Vector {
	return fauxgl.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

func fromFauxglVertex(v fauxgl.Vertex, color mgl64.Vec4) graphics.Vertex {
	return graphics.Vertex{
		Position: mgl64.Vec3{v.Position.X, v.Position.Y, v.Position.Z},
		Normal:   mgl64.Vec3{v.Normal.X, v.Normal.Y, v.Normal.Z},
		Color:    color,
	}
}
