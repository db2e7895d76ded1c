package sceneview

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// zoomStep is the volume scale per pixel of zoom drag at rate 1.
const zoomStep = 0.01

// scrollPixels is how many pixels of zoom drag one wheel step is worth.
const scrollPixels = 10

// InputEvent feeds a pointer event from the host into the trackball.
func (v *Viewer) InputEvent(ev InputEvent) {
	if v.destroyed {
		return
	}
	switch ev.Type {
	case ButtonPress:
		v.buttonPress(ev)
	case ButtonRelease:
		v.buttonRelease(ev)
	case MotionNotify:
		v.motion(ev)
	case Scroll:
		v.scroll(ev)
	}
}

// dragModeFor maps a pointer button to a trackball mode, honouring the interaction mode and the rates.
func (v *Viewer) dragModeFor(button int) DragMode {
	s := v.state
	var mode DragMode
	switch button {
	case 1:
		mode = DragTumble
		if s.Interact == Interact2D {
			mode = DragTranslate
		}
	case 2:
		mode = DragTranslate
		if s.Interact == Interact2D {
			mode = DragTumble
		}
	case 3:
		mode = DragZoom
	default:
		return DragIdle
	}
	switch {
	case mode == DragTumble && s.TumbleRate == 0,
		mode == DragTranslate && s.TranslateRate == 0,
		mode == DragZoom && s.ZoomRate == 0:
		return DragIdle
	}
	return mode
}

// buttonPress enters the drag mode of the button. Buttons without an enabled mode change nothing.
func (v *Viewer) buttonPress(ev InputEvent) {
	mode := v.dragModeFor(ev.Button)
	if mode == DragIdle {
		return
	}
	v.StopAnimations()
	v.state.Drag = mode
	v.previousX, v.previousY = ev.X, ev.Y
}

func (v *Viewer) buttonRelease(ev InputEvent) {
	s := v.state
	if s.Drag == DragTumble && s.FreeSpin && s.TumbleAngle != 0 {
		v.startAutoTumble()
	}
	s.Drag = DragIdle
}

func (v *Viewer) motion(ev InputEvent) {
	var err error
	switch v.state.Drag {
	case DragIdle:
		return
	case DragTumble:
		err = v.tumbleDrag(ev.X, ev.Y)
	case DragTranslate:
		err = v.translateDrag(ev.X, ev.Y)
	case DragZoom:
		err = v.zoomBy(float64(ev.Y - v.previousY))
	}
	v.previousX, v.previousY = ev.X, ev.Y
	v.afterMotion(err)
}

func (v *Viewer) scroll(ev InputEvent) {
	if v.state.ZoomRate == 0 || ev.ScrollY == 0 {
		return
	}
	v.afterMotion(v.zoomBy(-scrollPixels * ev.ScrollY))
}

func (v *Viewer) afterMotion(err error) {
	if err != nil {
		log.Println("[Viewer] ERROR: applying pointer motion:", err)
		return
	}
	v.notifyTransformChanged()
	if err = v.RedrawNow(); err != nil {
		log.Println("[Viewer] ERROR: redrawing:", err)
	}
}

// eyeBasis returns the world directions of the window's right, up and out-of-screen axes.
func (v *Viewer) eyeBasis() (right, up, view mgl64.Vec3) {
	s := v.state
	view = s.Eye.Sub(s.Lookat).Normalize()
	up = s.Up.Sub(view.Mul(s.Up.Dot(view))).Normalize()
	right = up.Cross(view)
	return right, up, view
}

// tumbleDrag rotates the camera about the lookat point like a trackball. The axis leans from the screen
// plane towards the view axis as the drag line passes farther from the window centre: its view
// component is -d/radius, d being the signed distance from the centre to the drag line.
func (v *Viewer) tumbleDrag(x, y int) error {
	s := v.state
	w, h := v.buffer.Size()
	radius := 0.25 * float64(w+h)
	if radius <= 0 {
		return nil
	}
	// window-centred, y up
	px, py := float64(v.previousX)-float64(w)/2, float64(h)/2-float64(v.previousY)
	mx, my := float64(x)-float64(w)/2, float64(h)/2-float64(y)
	dx, dy := mx-px, my-py
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	// positive when the centre lies to the right of the drag direction
	d := (my*dx - mx*dy) / length
	d = math.Max(-radius, math.Min(radius, d))
	phi := math.Acos(d/radius) - math.Pi/2
	right, up, view := v.eyeBasis()
	inPlane := up.Mul(dx / length).Sub(right.Mul(dy / length))
	axis := view.Mul(math.Sin(phi)).Add(inPlane.Mul(math.Cos(phi)))
	angle := -s.TumbleRate * length / radius
	if err := v.RotateAboutLookatPoint(axis, angle); err != nil {
		return err
	}
	s.TumbleAxis, s.TumbleAngle = axis, angle
	return nil
}

// translateDrag moves the eye and the lookat point so the point under the pointer at the lookat
// depth follows the pointer.
func (v *Viewer) translateDrag(x, y int) error {
	s := v.state
	var ends [2][2]mgl64.Vec3 // [previous, current][near, far]
	for i, p := range [2][2]float64{{float64(v.previousX), float64(v.previousY)}, {float64(x), float64(y)}} {
		for j, depth := range [2]float64{0, 1} {
			world, err := v.Unproject(p[0], p[1], depth)
			if err != nil {
				return err
			}
			ends[i][j] = world
		}
	}
	frac := 0.5
	if span := s.Volume.Far - s.Volume.Near; span > 0 {
		frac = (s.Eye.Sub(s.Lookat).Len() - s.Volume.Near) / span
	}
	nearDelta := ends[1][0].Sub(ends[0][0])
	farDelta := ends[1][1].Sub(ends[0][1])
	delta := nearDelta.Mul(1 - frac).Add(farDelta.Mul(frac)).Mul(s.TranslateRate)
	s.Eye = s.Eye.Sub(delta)
	s.Lookat = s.Lookat.Sub(delta)
	v.fastCacheValid = false
	return nil
}

// zoomBy replaces the viewing volume with the square [-r, r]², r being the mean half extent of the
// current volume scaled by (1 + zoomStep·rate)^pixels. Near and far are kept.
func (v *Viewer) zoomBy(pixels float64) error {
	if pixels == 0 {
		return nil
	}
	s := v.state
	vol := s.Volume
	radius := 0.25 * ((vol.Right - vol.Left) + (vol.Top - vol.Bottom))
	radius *= math.Pow(1+zoomStep*s.ZoomRate, pixels)
	vol.Left, vol.Right = -radius, radius
	vol.Bottom, vol.Top = -radius, radius
	return v.SetViewingVolume(vol)
}
