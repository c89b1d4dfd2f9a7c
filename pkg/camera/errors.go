package camera

import "errors"

// Sentinel errors for the camera package.
var (
	// ErrUnknownPreset indicates a preset name that does not exist.
	ErrUnknownPreset = errors.New("camera: unknown preset")
)
