package sceneview

import (
	"context"
	"fmt"
	"image"
	"log"
	"slices"
	"time"

	"github.com/Yeicor/sceneview/graphics"
	"github.com/Yeicor/sceneview/internal"
	"github.com/Yeicor/sceneview/internal/raster"
	"github.com/barkimedes/go-deepcopy"
	"github.com/subchen/go-trylock/v2"
)

// renderLockTimeout is how long a synchronous render waits for a render already in progress.
const renderLockTimeout = time.Millisecond

// tryLocker is the part of the trylock API used to detect re-entrant renders.
type tryLocker interface {
	TryLock(ctx context.Context) bool
	Unlock()
}

// Viewer draws a Scene into a GraphicsBuffer and turns pointer input into camera motion.
// All methods must be called from the host's event loop.
type Viewer struct {
	buffer     GraphicsBuffer
	scheduler  IdleScheduler
	scene      Scene
	compositor Compositor
	lights     *graphics.LightModel
	state      *internal.ViewerState

	backend    *raster.Backend
	target     *raster.Target
	sceneDirty bool
	awake      bool
	destroyed  bool

	compositorReady bool

	// background texture
	bkImage        image.Image
	bkTexture      *raster.Texture
	bkTextureDirty bool
	bkWatcher      *backgroundWatcher

	// fast-changing objects cache
	fastCache      *raster.Snapshot
	fastCacheValid bool

	// redraw scheduling
	renderingLock tryLocker
	redrawPending bool
	redrawID      uint64
	tumblePending bool
	tumbleID      uint64

	// interaction
	previousX, previousY int

	onTransformChanged, onSync, onDestroy, onRepaintRequired callbackList

	subscriptions []func()
	sceneSub      func()
}

// Option configures a Viewer while it is created.
type Option func(v *Viewer)

// NewViewer creates a viewer bound to a graphics buffer, an idle scheduler and a scene.
// The viewer starts awake, with a redraw queued.
func NewViewer(buffer GraphicsBuffer, scheduler IdleScheduler, scene Scene, options ...Option) (*Viewer, error) {
	if buffer == nil || scheduler == nil || scene == nil {
		return nil, fmt.Errorf("%w: viewer needs a graphics buffer, an idle scheduler and a scene", ErrInvalidArgument)
	}
	w, h := buffer.Size()
	caps := buffer.Capabilities()
	target, err := raster.NewTarget(w, h, caps, false)
	if err != nil {
		return nil, fmt.Errorf("creating the window target: %w", err)
	}
	v := &Viewer{
		buffer:         buffer,
		scheduler:      scheduler,
		scene:          scene,
		state:          internal.NewViewerState(),
		backend:        raster.SelectBackend(caps),
		target:         target,
		sceneDirty:     true,
		renderingLock:  trylock.New(),
		bkTextureDirty: true,
	}
	log.Println("[Viewer] Using the", v.backend.Tier(), "rendering tier")
	for _, option := range options {
		option(v)
	}
	v.subscriptions = append(v.subscriptions,
		buffer.OnResize(v.onResize),
		buffer.OnExpose(v.RedrawLater),
		buffer.OnInput(v.InputEvent),
	)
	v.Awaken()
	return v, nil
}

func (v *Viewer) onResize(width, height int) {
	if err := v.target.Resize(width, height); err != nil {
		log.Println("[Viewer] ERROR: resizing the window target:", err)
		return
	}
	v.fastCacheValid = false
	v.RedrawLater()
}

// Snapshot returns a deep copy of the current state, safe to read from other goroutines.
func (v *Viewer) Snapshot() *ViewerState {
	return deepcopy.MustAnything(v.state).(*internal.ViewerState)
}

// Awaken resumes scene change tracking and queues a redraw.
func (v *Viewer) Awaken() {
	if v.awake || v.destroyed {
		return
	}
	v.awake = true
	if notifier, ok := v.scene.(SceneNotifier); ok {
		v.sceneSub = notifier.OnChange(v.sceneChanged)
	}
	v.sceneDirty = true
	v.fastCacheValid = false
	v.RedrawLater()
}

// Sleep stops scene change tracking, animations and pending redraws until Awaken.
func (v *Viewer) Sleep() {
	if !v.awake {
		return
	}
	v.awake = false
	if v.sceneSub != nil {
		v.sceneSub()
		v.sceneSub = nil
	}
	v.StopAnimations()
	v.cancelRedraw()
}

// Awake reports whether the viewer tracks scene changes and redraws.
func (v *Viewer) Awake() bool { return v.awake }

func (v *Viewer) sceneChanged(fastChangingOnly bool) {
	if !fastChangingOnly {
		v.sceneDirty = true
		v.fastCacheValid = false
	}
	v.RedrawLater()
}

// Destroy notifies the destroy callbacks and releases every subscription the viewer holds.
func (v *Viewer) Destroy() {
	if v.destroyed {
		return
	}
	v.onDestroy.call(v)
	v.Sleep()
	for _, cancel := range v.subscriptions {
		cancel()
	}
	v.subscriptions = nil
	if v.bkWatcher != nil {
		v.bkWatcher.close()
		v.bkWatcher = nil
	}
	if v.compositor != nil && v.compositorReady {
		v.compositor.Finalise()
		v.compositorReady = false
	}
	v.onTransformChanged.clear()
	v.onSync.clear()
	v.onDestroy.clear()
	v.onRepaintRequired.clear()
	v.destroyed = true
}

//-----------------------------------------------------------------------------
// CALLBACKS
//-----------------------------------------------------------------------------

// Subscription is a registered callback. Close unregisters it (it is safe to close twice).
type Subscription struct {
	list *callbackList
	id   uint64
}

func (s *Subscription) Close() {
	if s == nil || s.list == nil {
		return
	}
	s.list.remove(s.id)
	s.list = nil
}

type callbackEntry struct {
	id uint64
	fn func(v *Viewer)
}

type callbackList struct {
	nextID  uint64
	entries []callbackEntry
}

func (l *callbackList) add(fn func(v *Viewer)) *Subscription {
	l.nextID++
	l.entries = append(l.entries, callbackEntry{id: l.nextID, fn: fn})
	return &Subscription{list: l, id: l.nextID}
}

func (l *callbackList) remove(id uint64) {
	l.entries = slices.DeleteFunc(l.entries, func(e callbackEntry) bool { return e.id == id })
}

func (l *callbackList) clear() { l.entries = nil }

func (l *callbackList) call(v *Viewer) {
	for _, e := range slices.Clone(l.entries) { // callbacks may unsubscribe themselves
		e.fn(v)
	}
}

// OnTransformChanged registers fn to run whenever the camera changes through interaction or animation.
func (v *Viewer) OnTransformChanged(fn func(v *Viewer)) *Subscription {
	return v.onTransformChanged.add(fn)
}

// OnSync registers fn to run before every frame (used to keep linked viewers in step).
func (v *Viewer) OnSync(fn func(v *Viewer)) *Subscription { return v.onSync.add(fn) }

// OnDestroy registers fn to run when the viewer is destroyed.
func (v *Viewer) OnDestroy(fn func(v *Viewer)) *Subscription { return v.onDestroy.add(fn) }

// OnRepaintRequired registers fn to run when a redraw was due but the buffer is not visible.
func (v *Viewer) OnRepaintRequired(fn func(v *Viewer)) *Subscription {
	return v.onRepaintRequired.add(fn)
}

func (v *Viewer) notifyTransformChanged() {
	v.fastCacheValid = false
	v.onTransformChanged.call(v)
}
