package focus

import (
	"time"

	"github.com/teslashibe/go-focus/pkg/geometry"
	"github.com/teslashibe/go-focus/pkg/sched"
)

// Parameters is what the engine pushes to the hardware on ApplyFocusParameters.
// A nil region means the driver default (whole frame).
type Parameters struct {
	FocusMode      FocusMode        `json:"focus_mode"`
	FocusRegion    *geometry.Region `json:"focus_region,omitempty"`
	MeteringRegion *geometry.Region `json:"metering_region,omitempty"`
	AeAwbLock      bool             `json:"ae_awb_lock"`
}

// Listener is the hardware command interface. Every method is called on the
// engine goroutine and must not block; results come back later through
// Callbacks.
type Listener interface {
	RequestAutoFocus()
	CancelAutoFocus()
	// RequestCapture returns false if a capture cannot be started now.
	RequestCapture() bool
	StartFaceDetection()
	StopFaceDetection()
	ApplyFocusParameters(p Parameters)
	// SetUiFocusRatio reports the live lens position in [0, 1].
	SetUiFocusRatio(ratio float64)
}

// Callbacks receives asynchronous hardware notifications. Engine implements
// it; hardware backends hold one.
type Callbacks interface {
	AutoFocusDone(focused bool)
	AutoFocusMoving(moving bool)
}

// Indicator draws the focus ring. It is optional.
type Indicator interface {
	SetPosition(x, y int)
	FocusStarted(passive bool)
	FocusSucceeded(passive bool)
	FocusFailed()
	Clear()
}

// Preferences is a read-only user preference lookup.
type Preferences interface {
	Lookup(key string) (string, bool)
}

// PrefFocusMode is the preference key naming the user's focus mode.
const PrefFocusMode = "focus_mode"

// Scheduler arms delayed callbacks that run on the engine goroutine.
// *sched.Queue implements it.
type Scheduler interface {
	Schedule(kind sched.Kind, d time.Duration, fn func())
	Cancel(kind sched.Kind)
	CancelAll()
	Pending(kind sched.Kind) bool
}

type nopIndicator struct{}

func (nopIndicator) SetPosition(int, int) {}
func (nopIndicator) FocusStarted(bool)    {}
func (nopIndicator) FocusSucceeded(bool)  {}
func (nopIndicator) FocusFailed()         {}
func (nopIndicator) Clear()               {}
