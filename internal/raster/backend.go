package raster

import (
	"fmt"
	"image"
	"log"
	"sort"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/Yeicor/sceneview/internal"
	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
)

// Tier is the rendering strategy of a Backend, best first.
type Tier int

const (
	TierImmediate Tier = iota
	TierDisplayList
	TierVertexBuffer
)

func (t Tier) String() string {
	switch t {
	case TierVertexBuffer:
		return "vertex-buffer"
	case TierDisplayList:
		return "display-list"
	default:
		return "immediate"
	}
}

// Backend draws scenes into a Target. It is what scenes see as a graphics.Renderer.
type Backend struct {
	tier       Tier
	target     *Target
	state      *State
	projection mgl64.Mat4
	modelview  mgl64.Mat4
	lights     *graphics.LightModel
	texture    *Texture
	filter     graphics.ChangeFilter

	compiling bool
	executing bool
	layers    []int
	layer     int

	// retained tiers keep converted static scene triangles until the next compile
	retained map[retainedKey][]*fauxgl.Triangle
}

// maxRetained bounds the retained batches kept between compiles.
const maxRetained = 1024

type retainedKey struct {
	first *graphics.Triangle
	n     int
}

// SelectBackend probes the capabilities and returns a backend of the best available tier.
func SelectBackend(caps Capabilities) *Backend {
	b := &Backend{
		projection: mgl64.Ident4(),
		modelview:  mgl64.Ident4(),
		layers:     []int{0},
	}
	b.Select(caps)
	return b
}

// Select switches to the best tier the capabilities offer. Retained geometry is dropped when the
// tier changes.
func (b *Backend) Select(caps Capabilities) {
	tier := TierImmediate
	switch {
	case caps.VertexBuffers:
		tier = TierVertexBuffer
	case caps.DisplayLists:
		tier = TierDisplayList
	}
	if tier == b.tier {
		return
	}
	if b.retained != nil {
		log.Println("[Raster] Switching from the", b.tier, "to the", tier, "rendering tier")
	}
	b.tier = tier
	b.retained = nil
}

func (b *Backend) Tier() Tier { return b.tier }

// Begin binds the target, pipeline state and matrices used by subsequent draws.
func (b *Backend) Begin(t *Target, st *State, projection, modelview mgl64.Mat4) {
	b.target = t
	b.state = st
	b.projection = projection
	b.modelview = modelview
}

// Compile runs a scene compilation, collecting the layers it registers.
func (b *Backend) Compile(compile func(r graphics.Renderer) error) error {
	b.compiling = true
	b.layers = b.layers[:0]
	b.retained = nil
	err := compile(b)
	b.compiling = false
	sort.Ints(b.layers)
	uniq := b.layers[:0]
	for i, l := range b.layers {
		if i == 0 || l != b.layers[i-1] {
			uniq = append(uniq, l)
		}
	}
	b.layers = uniq
	if len(b.layers) == 0 {
		b.layers = append(b.layers, 0)
	}
	b.layer = 0
	return err
}

// Execute runs a scene execution. Only geometry drawn here can be retained.
func (b *Backend) Execute(execute func(r graphics.Renderer) error) error {
	b.executing = true
	defer func() { b.executing = false }()
	return execute(b)
}

func (b *Backend) RegisterLayer(layer int) {
	if b.compiling {
		b.layers = append(b.layers, layer)
	}
}

// Layers returns the number of scene layers found by the last compile.
func (b *Backend) Layers() int { return len(b.layers) }

// ResetLayers restarts layer iteration at the first (back-most) layer.
func (b *Backend) ResetLayers() { b.layer = 0 }

// NextLayer advances to the next scene layer, returning false after the last one.
func (b *Backend) NextLayer() bool {
	if b.layer+1 >= len(b.layers) {
		return false
	}
	b.layer++
	return true
}

// LayerIndex is the position of the current layer in the iteration (0 for the first).
func (b *Backend) LayerIndex() int { return b.layer }

func (b *Backend) CurrentLayer() int { return b.layers[b.layer] }

func (b *Backend) ChangeFilter() graphics.ChangeFilter { return b.filter }

// SetChangeFilter selects which objects scenes draw from now on.
func (b *Backend) SetChangeFilter(f graphics.ChangeFilter) { b.filter = f }

// LightModelExecute sets the lighting for subsequent draws (nil disables lighting).
func (b *Backend) LightModelExecute(m *graphics.LightModel) { b.lights = m }

// Texture is a compiled image ready to be sampled while drawing.
type Texture struct {
	tex           fauxgl.Texture
	width, height int
}

func (t *Texture) Size() (int, int) { return t.width, t.height }

// TextureCompile prepares an image for sampling.
func (b *Backend) TextureCompile(img image.Image) (*Texture, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty texture image", internal.ErrInvalidArgument)
	}
	size := img.Bounds().Size()
	return &Texture{tex: fauxgl.NewImageTexture(img), width: size.X, height: size.Y}, nil
}

// TextureExecute binds a texture for subsequent draws (nil unbinds).
func (b *Backend) TextureExecute(t *Texture) { b.texture = t }

// DrawTriangles rasterizes tris into every selected buffer of the bound target, in order.
func (b *Backend) DrawTriangles(tris []graphics.Triangle) error {
	if b.target == nil || b.state == nil {
		return fmt.Errorf("%w: draw outside of a frame", internal.ErrInconsistentState)
	}
	if len(tris) == 0 {
		return nil
	}
	converted := b.convert(tris)
	var tex fauxgl.Texture
	if b.texture != nil {
		tex = b.texture.tex
	}
	for _, ctx := range b.target.contexts() {
		ctx.Shader = newPipelineShader(ctx, b.state, b.projection, b.modelview, tex, b.lights)
		ctx.ReadDepth = b.state.DepthTest
		ctx.WriteDepth = b.state.DepthWrite
		ctx.WriteColor = b.state.ColorWrite
		ctx.AlphaBlend = false
		ctx.Wireframe = false
		ctx.Cull = fauxgl.CullNone
		for _, t := range converted {
			ctx.DrawTriangle(t) // sequential: blending depends on draw order
		}
	}
	return nil
}

func (b *Backend) convert(tris []graphics.Triangle) []*fauxgl.Triangle {
	if b.tier == TierImmediate || !b.executing || b.filter == graphics.DrawFastChanging {
		return convertTriangles(tris)
	}
	key := retainedKey{first: &tris[0], n: len(tris)}
	if cached, ok := b.retained[key]; ok {
		return cached
	}
	if b.retained == nil || len(b.retained) >= maxRetained {
		b.retained = map[retainedKey][]*fauxgl.Triangle{}
		log.Println("[Raster] Retaining converted geometry using the", b.tier, "tier")
	}
	res := convertTriangles(tris)
	b.retained[key] = res
	return res
}

func convertTriangles(tris []graphics.Triangle) []*fauxgl.Triangle {
	res := make([]*fauxgl.Triangle, len(tris))
	for i, t := range tris {
		res[i] = &fauxgl.Triangle{V1: convertVertex(t.V[0]), V2: convertVertex(t.V[1]), V3: convertVertex(t.V[2])}
	}
	return res
}

func convertVertex(v graphics.Vertex) fauxgl.Vertex {
	return fauxgl.Vertex{
		Position: fauxgl.Vector{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]},
		Normal:   fauxgl.Vector{X: v.Normal[0], Y: v.Normal[1], Z: v.Normal[2]},
		Texture:  fauxgl.Vector{X: v.UV[0], Y: v.UV[1]},
		Color:    toFauxglColor(v.Color),
	}
}
