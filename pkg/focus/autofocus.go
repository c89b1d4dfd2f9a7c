package focus

import "github.com/teslashibe/go-focus/pkg/sched"

// OnAutoFocusResult handles the hardware autofocus completion callback.
// shutterHeld reports whether the shutter is still half-pressed.
func (m *Machine) OnAutoFocusResult(focused, shutterHeld bool) {
	event := eventFail
	if focused {
		event = eventSucceed
	}

	switch state := m.State(); state {
	case StateFocusingSnapOnFinish:
		m.fire(event)
		m.updateFocusUI()
		// The deferred capture goes out whatever the focus result.
		m.capture()

	case StateFocusing:
		m.fire(event)
		if m.caps.LockAeAwbOnFocus && m.lockNeeded() && !m.zsl {
			m.aeAwbLock = true
			m.applyParameters()
		}
		m.updateFocusUI()
		if m.focusRegion != nil {
			m.timers.Schedule(sched.TouchReset, m.cfg.TouchFocusHold, m.onTouchResetTimer)
		}
		if shutterHeld {
			// Half-press held: keep exposure while the user recomposes.
			m.lockAeAwbIfNeeded()
		}

	default:
		// Released before focus completed, or cancelled.
		m.logger.Debug("stale autofocus result", "state", state, "focused", focused)
	}

	m.updateDistance()
}

// OnAutoFocusMoving handles continuous-autofocus motion notifications. The
// passive indicator only follows them while no tap or half-press cycle runs.
func (m *Machine) OnAutoFocusMoving(moving bool) {
	m.armFaceResume()
	m.updateDistance()

	if m.State() != StateIdle {
		return
	}
	if moving && !m.prevMoving {
		m.indicator.FocusStarted(true)
	} else if !moving {
		m.indicator.FocusSucceeded(true)
	}
	m.prevMoving = moving
}

// OnPreviewStarted resets the cycle for a fresh preview.
func (m *Machine) OnPreviewStarted() {
	m.previewing = true
	m.fire(eventReset)
	m.resetTouchFocus()
}

// OnPreviewStopped resets the cycle and drops pending callbacks. Call it
// when the camera is released as well.
func (m *Machine) OnPreviewStopped() {
	m.previewing = false
	m.prevMoving = false
	m.fire(eventReset)
	m.resetTouchFocus()
	m.updateFocusUI()
	m.timers.CancelAll()
}

func (m *Machine) armFaceResume() {
	if !m.caps.FaceDetectionSupported {
		return
	}
	m.timers.Schedule(sched.FaceDetectionResume, m.cfg.FaceResumeDelay, m.onFaceResumeTimer)
}

func (m *Machine) onFaceResumeTimer() {
	if m.State() != StateIdle || m.focusRegion != nil || m.meteringRegion != nil {
		return
	}
	m.listener.StartFaceDetection()
}

// updateDistance pushes the live lens position to the UI when the driver
// exposes it. Missing metadata is normal and silent.
func (m *Machine) updateDistance() {
	if m.metadata == nil {
		return
	}
	r, ok := m.probe.Read(m.metadata)
	if !ok {
		return
	}
	ratio, ok := r.Ratio()
	if !ok {
		m.logger.Debug("lens position outside range", "near", r.Near, "far", r.Far, "current", r.Current)
		return
	}
	m.listener.SetUiFocusRatio(ratio)
}
