package geometry

import "errors"

// Sentinel errors for the geometry package.
var (
	// ErrEmptyPreview indicates the preview rectangle has zero width or height.
	ErrEmptyPreview = errors.New("geometry: preview rect has zero area")

	// ErrInvalidRotation indicates a display rotation that is not a multiple of 90 degrees.
	ErrInvalidRotation = errors.New("geometry: rotation must be 0, 90, 180 or 270")
)
