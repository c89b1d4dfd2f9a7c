package focus

import "slices"

// FocusMode is a driver focus mode name.
type FocusMode string

// Focus modes understood by the engine.
const (
	FocusModeAuto              FocusMode = "auto"
	FocusModeContinuousPicture FocusMode = "continuous-picture"
	FocusModeContinuousVideo   FocusMode = "continuous-video"
	FocusModeMacro             FocusMode = "macro"
	FocusModeInfinity          FocusMode = "infinity"
	FocusModeFixed             FocusMode = "fixed"
	FocusModeEDOF              FocusMode = "edof"
	FocusModeManual            FocusMode = "manual"
)

// KnownFocusModes lists every mode the engine recognizes.
var KnownFocusModes = []FocusMode{
	FocusModeAuto,
	FocusModeContinuousPicture,
	FocusModeContinuousVideo,
	FocusModeMacro,
	FocusModeInfinity,
	FocusModeFixed,
	FocusModeEDOF,
	FocusModeManual,
}

// Known reports whether m is one of KnownFocusModes.
func (m FocusMode) Known() bool {
	return slices.Contains(KnownFocusModes, m)
}

// NeedsAutoFocusCall reports whether the mode expects an explicit autofocus
// command before capture. Fixed-lens style modes do not.
func (m FocusMode) NeedsAutoFocusCall() bool {
	switch m {
	case FocusModeInfinity, FocusModeFixed, FocusModeEDOF, FocusModeManual:
		return false
	}
	return true
}

// Capabilities describes what the current hardware session supports. It is
// replaced as a whole when the session changes.
type Capabilities struct {
	// SessionID identifies the hardware session these capabilities belong to.
	SessionID string `json:"session_id"`

	// FocusModes lists supported focus modes. Empty means any mode.
	FocusModes []FocusMode `json:"focus_modes"`

	FocusAreaSupported     bool `json:"focus_area_supported"`
	MeteringAreaSupported  bool `json:"metering_area_supported"`
	AeAwbLockSupported     bool `json:"ae_awb_lock_supported"`
	FaceDetectionSupported bool `json:"face_detection_supported"`

	// LockAeAwbOnFocus locks exposure and white balance when a half-press or
	// touch focus cycle completes. Some hardware generations must leave the
	// lock to the shutter path instead.
	LockAeAwbOnFocus bool `json:"lock_ae_awb_on_focus"`
}

// DefaultCapabilities returns a fully featured capability set.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		FocusModes: []FocusMode{
			FocusModeAuto,
			FocusModeContinuousPicture,
			FocusModeContinuousVideo,
			FocusModeMacro,
			FocusModeInfinity,
		},
		FocusAreaSupported:     true,
		MeteringAreaSupported:  true,
		AeAwbLockSupported:     true,
		FaceDetectionSupported: true,
		LockAeAwbOnFocus:       true,
	}
}

// Supports reports whether mode is usable in this session.
func (c Capabilities) Supports(mode FocusMode) bool {
	if mode == "" {
		return false
	}
	if len(c.FocusModes) == 0 {
		return true
	}
	return slices.Contains(c.FocusModes, mode)
}

// Clone returns a deep copy.
func (c Capabilities) Clone() Capabilities {
	c.FocusModes = slices.Clone(c.FocusModes)
	return c
}
