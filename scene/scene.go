// Package scene provides a simple retained scene of named triangle meshes that a viewer can draw.
package scene

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrDuplicateObject = errors.New("duplicate object")
	ErrUnknownObject   = errors.New("unknown object")
)

// Object is a named triangle mesh. Objects in higher layers are drawn over lower layers regardless of depth.
type Object struct {
	Name string
	// Layer is the draw layer (lowest first).
	Layer int
	// FastChanging objects are redrawn over a cached image of the static ones.
	FastChanging bool
	Hidden       bool
	Triangles    []graphics.Triangle
}

// Mesh is a scene made of objects drawn in insertion order. Changes are reported synchronously to
// the OnChange listeners, so mutate it from the viewer's event loop.
type Mesh struct {
	lock      sync.RWMutex
	objects   []*Object
	listeners map[uint64]func(fastChangingOnly bool)
	nextID    uint64
}

// New creates a scene holding the given objects.
func New(objects ...*Object) (*Mesh, error) {
	m := &Mesh{listeners: map[uint64]func(bool){}}
	for _, o := range objects {
		if err := m.Add(o); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add appends an object. Names must be unique.
func (m *Mesh) Add(o *Object) error {
	m.lock.Lock()
	if m.indexLocked(o.Name) >= 0 {
		m.lock.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateObject, o.Name)
	}
	m.objects = append(m.objects, o)
	m.lock.Unlock()
	m.notify(o.FastChanging)
	return nil
}

// Remove deletes an object by name.
func (m *Mesh) Remove(name string) error {
	m.lock.Lock()
	i := m.indexLocked(name)
	if i < 0 {
		m.lock.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownObject, name)
	}
	fast := m.objects[i].FastChanging
	m.objects = slices.Delete(m.objects, i, i+1)
	m.lock.Unlock()
	m.notify(fast)
	return nil
}

// Object returns the object with the given name.
func (m *Mesh) Object(name string) (*Object, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	i := m.indexLocked(name)
	if i < 0 {
		return nil, false
	}
	return m.objects[i], true
}

// Names lists the objects in draw order.
func (m *Mesh) Names() []string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	res := make([]string, len(m.objects))
	for i, o := range m.objects {
		res[i] = o.Name
	}
	return res
}

// Update modifies an object in place and reports the change. It counts as a fast-changing-only change
// when the object is fast-changing both before and after fn.
func (m *Mesh) Update(name string, fn func(o *Object)) error {
	m.lock.Lock()
	i := m.indexLocked(name)
	if i < 0 {
		m.lock.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownObject, name)
	}
	o := m.objects[i]
	wasFast := o.FastChanging
	fn(o)
	o.Name = name
	fast := wasFast && o.FastChanging
	m.lock.Unlock()
	m.notify(fast)
	return nil
}

func (m *Mesh) indexLocked(name string) int {
	return slices.IndexFunc(m.objects, func(o *Object) bool { return o.Name == name })
}

// OnChange registers fn to be called after every change. The returned function unregisters it.
func (m *Mesh) OnChange(fn func(fastChangingOnly bool)) func() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	return func() {
		m.lock.Lock()
		defer m.lock.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Mesh) notify(fastChangingOnly bool) {
	m.lock.RLock()
	ids := make([]uint64, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(bool), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	m.lock.RUnlock()
	for _, fn := range fns {
		fn(fastChangingOnly)
	}
}

//-----------------------------------------------------------------------------
// SCENE
//-----------------------------------------------------------------------------

// Compile registers the layers of the visible objects.
func (m *Mesh) Compile(r graphics.Renderer) error {
	m.lock.RLock()
	defer m.lock.RUnlock()
	for _, o := range m.objects {
		if !o.Hidden {
			r.RegisterLayer(o.Layer)
		}
	}
	return nil
}

// Execute draws the visible objects of the current layer that pass the change filter.
func (m *Mesh) Execute(r graphics.Renderer) error {
	m.lock.RLock()
	defer m.lock.RUnlock()
	layer, filter := r.CurrentLayer(), r.ChangeFilter()
	for _, o := range m.objects {
		if o.Hidden || o.Layer != layer {
			continue
		}
		if filter == graphics.DrawStatic && o.FastChanging || filter == graphics.DrawFastChanging && !o.FastChanging {
			continue
		}
		if err := r.DrawTriangles(o.Triangles); err != nil {
			return fmt.Errorf("drawing %q: %w", o.Name, err)
		}
	}
	return nil
}

// HasFastChangingObjects reports whether any visible object is fast-changing.
func (m *Mesh) HasFastChangingObjects() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return slices.ContainsFunc(m.objects, func(o *Object) bool { return o.FastChanging && !o.Hidden })
}

// Bounds is the bounding box of every visible vertex.
func (m *Mesh) Bounds() (minimum, maximum mgl64.Vec3, ok bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	minimum = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	maximum = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, o := range m.objects {
		if o.Hidden {
			continue
		}
		for _, t := range o.Triangles {
			for _, v := range t.V {
				for k := 0; k < 3; k++ {
					minimum[k] = math.Min(minimum[k], v.Position[k])
					maximum[k] = math.Max(maximum[k], v.Position[k])
				}
				ok = true
			}
		}
	}
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	return minimum, maximum, true
}
