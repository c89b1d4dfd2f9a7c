// Package v4l2cam drives the autofocus controls of a V4L2 camera. It
// implements focus.Listener on top of the camera-class controls and polls
// the autofocus status to produce focus.Callbacks notifications.
package v4l2cam

import "errors"

// Camera-class control IDs (linux/v4l2-controls.h).
const (
	cidCameraClassBase uint32 = 0x009a0900

	CidFocusAbsolute  = cidCameraClassBase + 10
	CidFocusAuto      = cidCameraClassBase + 12
	Cid3ALock         = cidCameraClassBase + 27
	CidAutoFocusStart = cidCameraClassBase + 28
	CidAutoFocusStop  = cidCameraClassBase + 29
	CidAutoFocusState = cidCameraClassBase + 30
)

// V4L2_CID_3A_LOCK bits.
const (
	LockExposure     int32 = 1 << 0
	LockWhiteBalance int32 = 1 << 1
	LockFocus        int32 = 1 << 2
)

// V4L2_CID_AUTO_FOCUS_STATUS values.
const (
	StatusIdle    int32 = 0
	StatusBusy    int32 = 1 << 0
	StatusReached int32 = 1 << 1
	StatusFailed  int32 = 1 << 2
)

var (
	// ErrControlUnsupported is returned for controls the driver lacks.
	ErrControlUnsupported = errors.New("v4l2cam: control not supported")
	// ErrUnsupportedPlatform is returned by Open outside Linux.
	ErrUnsupportedPlatform = errors.New("v4l2cam: V4L2 requires linux")
)

// Control is one control reading.
type Control struct {
	Value int32
	Min   int32
	Max   int32
}

// controlDevice is the part of a V4L2 device the camera uses.
type controlDevice interface {
	GetControl(id uint32) (Control, error)
	SetControl(id uint32, value int32) error
	Close() error
}
