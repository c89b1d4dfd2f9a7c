package focus

import "github.com/teslashibe/go-focus/pkg/sched"

// CaptureOutcome is the result of RequestCapture.
type CaptureOutcome string

// Capture outcomes.
const (
	// CaptureTaken means the listener started a capture.
	CaptureTaken CaptureOutcome = "taken"
	// CaptureDeferred means the capture waits for the running focus cycle.
	CaptureDeferred CaptureOutcome = "deferred"
	// CaptureRejected means the listener could not start a capture; state is unchanged.
	CaptureRejected CaptureOutcome = "rejected"
	// CaptureIgnored means a deferred capture is already pending.
	CaptureIgnored CaptureOutcome = "ignored"
)

// OnShutterDown handles a shutter half-press. It starts autofocus unless a
// cycle already resolved, in which case it only locks AE/AWB.
func (m *Machine) OnShutterDown() {
	m.shutterHeld = true

	autoFocusCalled := false
	if m.autoFocusModeActive() && !m.State().Resolved() {
		autoFocusCalled = m.autoFocus()
	}
	if !autoFocusCalled {
		m.lockAeAwbIfNeeded()
	}
}

// OnShutterUp handles the shutter being released.
func (m *Machine) OnShutterUp() {
	m.shutterHeld = false

	if m.needAutoFocusCall() {
		switch m.State() {
		case StateFocusing, StateSuccess, StateFail:
			m.CancelAutoFocus()
		}
	}
	m.unlockAeAwbIfNeeded()
}

// RequestCapture takes a picture now if focus is resolved or not needed, or
// defers it until the running focus cycle finishes.
func (m *Machine) RequestCapture() CaptureOutcome {
	state := m.State()
	switch {
	case state == StateFocusingSnapOnFinish:
		return CaptureIgnored
	case !m.needAutoFocusCall() || state.Resolved() || state == StateIdle:
		return m.capture()
	case state == StateFocusing:
		m.fire(eventSnapOnFinish)
		m.updateFocusUI()
		return CaptureDeferred
	}
	return CaptureIgnored
}

func (m *Machine) capture() CaptureOutcome {
	if !m.listener.RequestCapture() {
		m.logger.Info("capture rejected", "state", m.State())
		return CaptureRejected
	}
	m.fire(eventReset)
	m.timers.Cancel(sched.TouchReset)
	m.endTouchCycle()
	return CaptureTaken
}

// endTouchCycle drops the touch regions and the AE/AWB lock once a picture
// is taken, so the next frames meter the whole scene again.
func (m *Machine) endTouchCycle() {
	touched := m.focusRegion != nil || m.meteringRegion != nil || m.touchAfRunning
	if !touched && !m.aeAwbLock {
		return
	}
	m.resetTouchFocus()
	m.aeAwbLock = false
	m.applyParameters()
	m.updateFocusUI()
}

// autoFocusModeActive is the shutter-down guard: the focus mode wants an
// autofocus call and no ZSL touch cycle owns the lens.
func (m *Machine) autoFocusModeActive() bool {
	return m.needAutoFocusCall() && !m.touchAfRunning
}

// autoFocus issues an autofocus command and enters StateFocusing. It refuses
// while a deferred capture is outstanding.
func (m *Machine) autoFocus() bool {
	if !m.fsm.Can(eventFocus) {
		m.logger.Debug("autofocus refused", "state", m.State())
		return false
	}
	m.logger.Debug("start autofocus", "mode", m.FocusMode())
	m.listener.RequestAutoFocus()
	m.fire(eventFocus)
	m.updateFocusUI()
	m.timers.Cancel(sched.TouchReset)
	return true
}

// CancelAutoFocus resets to Idle from any state: regions cleared, AE/AWB
// unlocked, both delayed callbacks dropped. It is idempotent.
func (m *Machine) CancelAutoFocus() {
	m.logger.Debug("cancel autofocus", "state", m.State())
	// Regions must be cleared before the listener cancels, so the driver
	// leaves region autofocus.
	m.resetTouchFocus()
	m.aeAwbLock = false
	m.applyParameters()
	m.listener.CancelAutoFocus()
	m.fire(eventReset)
	m.updateFocusUI()
	m.timers.Cancel(sched.TouchReset)
	m.timers.Cancel(sched.FaceDetectionResume)
}

func (m *Machine) lockNeeded() bool {
	return m.caps.AeAwbLockSupported
}

func (m *Machine) lockAeAwbIfNeeded() {
	if m.lockNeeded() && !m.aeAwbLock && !m.zsl {
		m.aeAwbLock = true
		m.applyParameters()
	}
}

func (m *Machine) unlockAeAwbIfNeeded() {
	if m.lockNeeded() && m.aeAwbLock && m.State() != StateFocusingSnapOnFinish {
		m.aeAwbLock = false
		m.applyParameters()
	}
}
