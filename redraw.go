package sceneview

import (
	"errors"
	"fmt"
	"log"
)

// RedrawLater queues a single redraw for when the host is idle. Repeated calls before it runs coalesce.
func (v *Viewer) RedrawLater() {
	if !v.awake || v.destroyed || v.redrawPending {
		return
	}
	v.redrawPending = true
	v.redrawID = v.scheduler.AddIdleCallback(v.idleRedraw)
}

func (v *Viewer) idleRedraw() {
	v.redrawPending = false
	if err := v.RedrawNow(); err != nil {
		log.Println("[Viewer] ERROR: redrawing:", err)
	}
}

func (v *Viewer) cancelRedraw() {
	if !v.redrawPending {
		return
	}
	v.scheduler.RemoveIdleCallback(v.redrawID)
	v.redrawPending = false
}

// RedrawNow renders immediately, dropping any queued redraw. When the buffer is hidden the
// repaint-required callbacks run instead; when another render is in progress the redraw is queued.
func (v *Viewer) RedrawNow() error {
	if v.destroyed {
		return fmt.Errorf("%w: viewer destroyed", ErrInconsistentState)
	}
	v.cancelRedraw()
	if !v.buffer.Visible() {
		v.onRepaintRequired.call(v)
		return nil
	}
	err := v.RenderScene()
	if errors.Is(err, errRenderInProgress) {
		v.RedrawLater()
		return nil
	}
	return err
}

//-----------------------------------------------------------------------------
// ANIMATION
//-----------------------------------------------------------------------------

// startAutoTumble arms the auto-tumble idle callback with the stored axis and angle.
func (v *Viewer) startAutoTumble() {
	if v.destroyed || v.state.TumbleAngle == 0 {
		return
	}
	v.state.TumbleActive = true
	if v.tumblePending {
		return
	}
	v.tumblePending = true
	v.tumbleID = v.scheduler.AddIdleCallback(v.autoTumbleTick)
}

func (v *Viewer) autoTumbleTick() {
	v.tumblePending = false
	s := v.state
	if !s.TumbleActive || s.TumbleAngle == 0 {
		return
	}
	if err := v.RotateAboutLookatPoint(s.TumbleAxis, s.TumbleAngle); err != nil {
		log.Println("[Viewer] ERROR: auto-tumbling:", err)
		v.StopAnimations()
		return
	}
	v.notifyTransformChanged()
	if err := v.RedrawNow(); err != nil {
		log.Println("[Viewer] ERROR: redrawing:", err)
	}
	v.startAutoTumble()
}

// StopAnimations stops auto-tumbling.
func (v *Viewer) StopAnimations() {
	if v.tumblePending {
		v.scheduler.RemoveIdleCallback(v.tumbleID)
		v.tumblePending = false
	}
	v.state.TumbleActive = false
	v.state.TumbleAngle = 0
}
