package sceneview

import (
	"fmt"
	"image"
	"log"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/draw"
)

// EbitenHost is a desktop window that implements GraphicsBuffer and IdleScheduler on top of ebiten.
// Idle callbacks run on the game loop, after input has been dispatched.
type EbitenHost struct {
	caps Capabilities
	idle idleQueue

	lock          sync.Mutex
	width, height int
	frame         *image.RGBA
	frameDirty    bool

	onResize listeners[func(w, h int)]
	onExpose listeners[func()]
	onInput  listeners[func(ev InputEvent)]

	viewer        *Viewer
	screen        *ebiten.Image
	exposed       bool
	pendingResize bool
	home          [3]mgl64.Vec3 // eye, lookat and up at startup, restored by R
	lastX, lastY  int
}

// NewEbitenHost creates a window host of the given initial size. caps describes the buffers the
// software target provides (double buffering, stereo, accumulation and so on).
func NewEbitenHost(width, height int, caps Capabilities) *EbitenHost {
	return &EbitenHost{caps: caps, width: width, height: height}
}

//-----------------------------------------------------------------------------
// GRAPHICS BUFFER
//-----------------------------------------------------------------------------

func (h *EbitenHost) Size() (int, int) {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.width, h.height
}

func (h *EbitenHost) Origin() (int, int) { return ebiten.WindowPosition() }

func (h *EbitenHost) Visible() bool {
	return !ebiten.IsWindowMinimized()
}

func (h *EbitenHost) Capabilities() Capabilities { return h.caps }

func (h *EbitenHost) MakeCurrent() error { return nil }

// SwapBuffers keeps a premultiplied copy of frame for the next Draw.
func (h *EbitenHost) SwapBuffers(frame *image.NRGBA) error {
	if frame == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidArgument)
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.frame == nil || h.frame.Bounds() != frame.Bounds() {
		h.frame = image.NewRGBA(frame.Bounds())
	}
	draw.Draw(h.frame, h.frame.Bounds(), frame, frame.Bounds().Min, draw.Src)
	h.frameDirty = true
	return nil
}

func (h *EbitenHost) OnResize(fn func(width, height int)) func() { return h.onResize.add(fn) }
func (h *EbitenHost) OnExpose(fn func()) func()                  { return h.onExpose.add(fn) }
func (h *EbitenHost) OnInput(fn func(ev InputEvent)) func()      { return h.onInput.add(fn) }

//-----------------------------------------------------------------------------
// IDLE SCHEDULER
//-----------------------------------------------------------------------------

func (h *EbitenHost) AddIdleCallback(fn func()) uint64 { return h.idle.add(fn) }
func (h *EbitenHost) RemoveIdleCallback(id uint64)     { h.idle.remove(id) }

//-----------------------------------------------------------------------------
// RUN
//-----------------------------------------------------------------------------

// Run opens the window and runs the event loop until the window is closed, then destroys v.
func (h *EbitenHost) Run(v *Viewer, title string) error {
	h.viewer = v
	eye, lookat, up := v.LookatParameters()
	h.home = [3]mgl64.Vec3{eye, lookat, up}
	w, hh := h.Size()
	ebiten.SetWindowSize(w, hh)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	log.Println("[Ebiten] Opening a", w, "x", hh, "window")
	defer v.Destroy()
	return ebiten.RunGame(hostGame{h})
}

// hostGame hides the ebiten.Game methods from the EbitenHost API.
type hostGame struct {
	*EbitenHost
}

var mouseButtons = []struct {
	ebiten ebiten.MouseButton
	button int
}{
	{ebiten.MouseButtonLeft, 1},
	{ebiten.MouseButtonMiddle, 2},
	{ebiten.MouseButtonRight, 3},
}

func (g hostGame) Update() error {
	h := g.EbitenHost
	if h.pendingResize {
		h.pendingResize = false
		w, hh := h.Size()
		h.onResize.each(func(fn func(w, h int)) { fn(w, hh) })
	}
	if h.exposed {
		h.exposed = false
		h.onExpose.each(func(fn func()) { fn() })
	}
	h.updateInputs()
	h.idle.run()
	return nil
}

func (h *EbitenHost) emit(ev InputEvent) {
	h.onInput.each(func(fn func(ev InputEvent)) { fn(ev) })
}

func (h *EbitenHost) updateInputs() {
	x, y := ebiten.CursorPosition()
	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b.ebiten) {
			h.emit(InputEvent{Type: ButtonPress, Button: b.button, X: x, Y: y})
		}
	}
	if x != h.lastX || y != h.lastY {
		h.lastX, h.lastY = x, y
		h.emit(InputEvent{Type: MotionNotify, X: x, Y: y})
	}
	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustReleased(b.ebiten) {
			h.emit(InputEvent{Type: ButtonRelease, Button: b.button, X: x, Y: y})
		}
	}
	if _, wheel := ebiten.Wheel(); wheel != 0 {
		h.emit(InputEvent{Type: Scroll, X: x, Y: y, ScrollY: wheel})
	}
	if h.viewer != nil {
		h.updateKeys(h.viewer)
	}
}

var (
	antialiasCycle    = []int{0, 2, 4, 8}
	transparencyCycle = []TransparencyMode{TransparencyFast, TransparencySlow, TransparencyLayered, TransparencyOrderIndependent}
)

// updateKeys handles the viewer shortcuts listed in the on-screen help.
func (h *EbitenHost) updateKeys(v *Viewer) {
	changed := true
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		v.StopAnimations()
		if err := v.SetLookatParametersNonSkew(h.home[0], h.home[1], h.home[2]); err != nil {
			log.Println("[Ebiten] ERROR: resetting the camera:", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		i := slices.Index(antialiasCycle, v.AntialiasMode())
		for n := 1; n <= len(antialiasCycle); n++ {
			if v.SetAntialiasMode(antialiasCycle[(i+n)%len(antialiasCycle)]) == nil {
				break
			}
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		i := slices.Index(transparencyCycle, v.TransparencyMode())
		for n := 1; n <= len(transparencyCycle); n++ {
			if v.SetTransparencyMode(transparencyCycle[(i+n)%len(transparencyCycle)]) == nil {
				break
			}
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		if err := v.SetStereoMode(!v.StereoMode()); err != nil {
			log.Println("[Ebiten] ERROR: toggling stereo:", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		v.StopAnimations()
	default:
		changed = false
	}
	if changed {
		v.RedrawLater()
	}
}

func (g hostGame) Draw(screen *ebiten.Image) {
	h := g.EbitenHost
	h.lock.Lock()
	if h.frame != nil && h.frameDirty {
		b := h.frame.Bounds()
		if h.screen == nil || h.screen.Bounds().Size() != b.Size() {
			if h.screen != nil {
				h.screen.Deallocate()
			}
			h.screen = ebiten.NewImage(b.Dx(), b.Dy())
		}
		h.screen.WritePixels(h.frame.Pix)
		h.frameDirty = false
	}
	h.lock.Unlock()
	if h.screen != nil {
		screen.DrawImage(h.screen, nil)
	} else {
		h.exposed = true
	}
	if v := h.viewer; v != nil {
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"TPS: %0.2f\nAntialias: %d [A]\nTransparency: %d [T]\nStereo: %t [S]\nStop spinning [Space]\nReset camera [R]\n"+
				"Tumble [Left] Translate [Middle] Zoom [Right/Wheel]",
			ebiten.ActualTPS(), v.AntialiasMode(), v.TransparencyMode(), v.StereoMode()))
	}
}

func (g hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	h := g.EbitenHost
	h.lock.Lock()
	if outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != h.width || outsideHeight != h.height) {
		h.width, h.height = outsideWidth, outsideHeight
		h.pendingResize = true
	}
	h.lock.Unlock()
	return outsideWidth, outsideHeight // use all available pixels, no re-scaling
}
