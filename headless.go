package sceneview

import (
	"fmt"
	"image"
	"sync"
)

// HeadlessBuffer is an in-memory GraphicsBuffer and IdleScheduler, for batch rendering and tests.
// Idle callbacks only run when RunIdle is called.
type HeadlessBuffer struct {
	caps Capabilities
	idle idleQueue

	lock          sync.Mutex
	width, height int
	visible       bool
	frame         *image.NRGBA
	swaps         int

	onResize listeners[func(w, h int)]
	onExpose listeners[func()]
	onInput  listeners[func(ev InputEvent)]
}

// NewHeadless creates a visible headless buffer.
func NewHeadless(width, height int, caps Capabilities) *HeadlessBuffer {
	return &HeadlessBuffer{caps: caps, width: width, height: height, visible: true}
}

func (h *HeadlessBuffer) Size() (int, int) {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.width, h.height
}

func (h *HeadlessBuffer) Origin() (int, int)         { return 0, 0 }
func (h *HeadlessBuffer) Capabilities() Capabilities { return h.caps }
func (h *HeadlessBuffer) MakeCurrent() error         { return nil }

func (h *HeadlessBuffer) Visible() bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.visible
}

// SetVisible shows or hides the buffer. Hidden buffers make redraws report a required repaint instead.
func (h *HeadlessBuffer) SetVisible(visible bool) {
	h.lock.Lock()
	h.visible = visible
	h.lock.Unlock()
}

func (h *HeadlessBuffer) SwapBuffers(frame *image.NRGBA) error {
	if frame == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidArgument)
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	h.frame = image.NewNRGBA(frame.Bounds())
	copy(h.frame.Pix, frame.Pix)
	h.swaps++
	return nil
}

// Frame returns the last presented frame (nil before the first swap).
func (h *HeadlessBuffer) Frame() *image.NRGBA {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.frame
}

// SwapCount is the number of frames presented so far.
func (h *HeadlessBuffer) SwapCount() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.swaps
}

func (h *HeadlessBuffer) OnResize(fn func(width, height int)) func() { return h.onResize.add(fn) }
func (h *HeadlessBuffer) OnExpose(fn func()) func()                  { return h.onExpose.add(fn) }
func (h *HeadlessBuffer) OnInput(fn func(ev InputEvent)) func()      { return h.onInput.add(fn) }

// Resize changes the buffer size and notifies the resize listeners.
func (h *HeadlessBuffer) Resize(width, height int) {
	h.lock.Lock()
	h.width, h.height = width, height
	h.lock.Unlock()
	h.onResize.each(func(fn func(w, h int)) { fn(width, height) })
}

// Expose notifies the expose listeners.
func (h *HeadlessBuffer) Expose() {
	h.onExpose.each(func(fn func()) { fn() })
}

// Input delivers a pointer event to the input listeners.
func (h *HeadlessBuffer) Input(ev InputEvent) {
	h.onInput.each(func(fn func(ev InputEvent)) { fn(ev) })
}

func (h *HeadlessBuffer) AddIdleCallback(fn func()) uint64 { return h.idle.add(fn) }
func (h *HeadlessBuffer) RemoveIdleCallback(id uint64)     { h.idle.remove(id) }

// PendingIdle is the number of queued idle callbacks.
func (h *HeadlessBuffer) PendingIdle() int { return h.idle.len() }

// RunIdle runs the callbacks queued before the call and returns how many ran.
func (h *HeadlessBuffer) RunIdle() int { return h.idle.run() }
