package focus

import (
	"image"

	"github.com/teslashibe/go-focus/pkg/geometry"
	"github.com/teslashibe/go-focus/pkg/sched"
)

// OnTouch handles a tap at view coordinates (x, y). It returns false when
// the tap is rejected and nothing changed.
func (m *Machine) OnTouch(x, y int) bool {
	if m.State() == StateFocusingSnapOnFinish {
		m.logger.Debug("touch ignored during deferred capture", "x", x, "y", y)
		return false
	}
	if m.transformer == nil {
		m.logger.Debug("touch ignored without preview geometry", "x", x, "y", y)
		return false
	}
	if !m.inHitBox(x, y) {
		m.logger.Debug("touch outside hit-box", "x", x, "y", y, "preview", m.preview)
		return false
	}

	if m.State() != StateIdle {
		m.CancelAutoFocus()
	}

	if m.caps.FocusAreaSupported {
		r := geometry.BuildRegion(m.transformer, x, y, m.cfg.FocusAreaScale, m.cfg.RegionWeight)
		m.focusRegion = &r
	}
	if m.caps.MeteringAreaSupported {
		r := geometry.BuildRegion(m.transformer, x, y, m.cfg.MeteringAreaScale, m.cfg.RegionWeight)
		m.meteringRegion = &r
	}

	m.indicator.SetPosition(x, y)
	if m.zsl {
		m.touchAfRunning = true
	}

	// Explicit regions and face-detection AE are mutually exclusive.
	m.listener.StopFaceDetection()
	m.timers.Cancel(sched.FaceDetectionResume)

	m.applyParameters()

	if m.caps.FocusAreaSupported {
		m.autoFocus()
		return true
	}

	m.updateFocusUI()
	m.timers.Schedule(sched.TouchReset, m.cfg.UIResetDelay, m.onTouchResetTimer)
	return true
}

// inHitBox reports whether (x, y) lies in the part of the preview not
// covered by on-screen controls.
func (m *Machine) inHitBox(x, y int) bool {
	box := image.Rect(
		m.preview.Min.X,
		m.preview.Min.Y+m.cfg.TopMargin,
		m.preview.Max.X,
		m.preview.Max.Y-m.cfg.BottomMargin,
	)
	return x >= box.Min.X && x <= box.Max.X && y >= box.Min.Y && y <= box.Max.Y
}

// resetTouchFocus drops the touch regions and clears the indicator.
func (m *Machine) resetTouchFocus() {
	m.indicator.Clear()
	m.focusRegion = nil
	m.meteringRegion = nil
	m.touchAfRunning = false
}

func (m *Machine) onTouchResetTimer() {
	switch m.State() {
	case StateIdle:
		// Region autofocus was never started; only the UI holds the touch.
		m.resetTouchFocus()
		m.updateFocusUI()
	case StateFocusingSnapOnFinish:
		m.logger.Debug("touch reset skipped during deferred capture")
	default:
		m.CancelAutoFocus()
		if m.caps.FaceDetectionSupported {
			m.listener.StartFaceDetection()
		}
	}
}
