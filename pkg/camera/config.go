// Package camera provides runtime-configurable camera session settings for
// the focus engine: preview geometry, focus mode and capture mode.
package camera

import (
	"fmt"
	"image"
	"strings"

	"github.com/teslashibe/go-focus/pkg/focus"
)

// Config holds the camera session settings.
// These can be modified via the camera API at runtime.
type Config struct {
	// === Preview ===
	Width     int `yaml:"width" json:"width"`         // Preview width in pixels
	Height    int `yaml:"height" json:"height"`       // Preview height in pixels
	Framerate int `yaml:"framerate" json:"framerate"` // Target FPS
	Quality   int `yaml:"quality" json:"quality"`     // JPEG quality 1-100

	// === Orientation ===
	// Mirror flips the preview horizontally (front camera).
	Mirror bool `yaml:"mirror" json:"mirror"`

	// DisplayRotation is the clockwise display rotation: 0, 90, 180 or 270.
	DisplayRotation int `yaml:"display_rotation" json:"display_rotation"`

	// === Capture ===
	// ZSL enables zero-shutter-lag capture. The pipeline then handles
	// exposure locking itself.
	ZSL bool `yaml:"zsl" json:"zsl"`

	// === Autofocus ===
	// AfMode controls autofocus behavior.
	// Values: "" (engine default), "manual", "auto", "continuous", or any
	// driver focus mode name such as "macro" or "infinity".
	AfMode string `yaml:"af_mode" json:"af_mode"`
}

// Sensor limits.
const (
	SensorMaxWidth     = 4608
	SensorMaxHeight    = 2592
	SensorMaxFramerate = 120
)

// AF mode aliases accepted in addition to driver focus mode names.
const (
	AfModeManual     = "manual"
	AfModeAuto       = "auto"
	AfModeContinuous = "continuous"
)

// DefaultConfig returns the standard session: 1080p preview, continuous
// autofocus chosen by the engine.
func DefaultConfig() Config {
	return Config{
		Width:           1920,
		Height:          1080,
		Framerate:       30,
		Quality:         85,
		Mirror:          false,
		DisplayRotation: 0,
		ZSL:             false,
		AfMode:          "",
	}
}

// ValidationError lists every invalid field.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "camera: invalid config: " + strings.Join(e.Problems, "; ")
}

// Validate checks if the config values are within valid ranges.
// It returns a *ValidationError listing every problem, or nil.
func (c *Config) Validate() error {
	var problems []string

	if c.Width < 160 || c.Width > SensorMaxWidth {
		problems = append(problems, fmt.Sprintf("width must be between 160 and %d", SensorMaxWidth))
	}
	if c.Height < 120 || c.Height > SensorMaxHeight {
		problems = append(problems, fmt.Sprintf("height must be between 120 and %d", SensorMaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > SensorMaxFramerate {
		problems = append(problems, fmt.Sprintf("framerate must be between 1 and %d", SensorMaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		problems = append(problems, "quality must be between 1 and 100")
	}

	switch c.DisplayRotation {
	case 0, 90, 180, 270:
	default:
		problems = append(problems, "display_rotation must be 0, 90, 180 or 270")
	}

	if c.AfMode != "" && !c.FocusMode().Known() {
		problems = append(problems, fmt.Sprintf("af_mode %q is not a known focus mode", c.AfMode))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// FocusMode maps AfMode to an engine focus mode override. An empty AfMode
// yields an empty mode, leaving the choice to the engine.
func (c *Config) FocusMode() focus.FocusMode {
	switch c.AfMode {
	case "":
		return ""
	case AfModeManual:
		return focus.FocusModeManual
	case AfModeAuto:
		return focus.FocusModeAuto
	case AfModeContinuous:
		return focus.FocusModeContinuousPicture
	}
	return focus.FocusMode(c.AfMode)
}

// PreviewBounds returns the preview rectangle as seen on screen. A quarter
// turn swaps width and height.
func (c *Config) PreviewBounds() image.Rectangle {
	if c.DisplayRotation == 90 || c.DisplayRotation == 270 {
		return image.Rect(0, 0, c.Height, c.Width)
	}
	return image.Rect(0, 0, c.Width, c.Height)
}

// Capabilities returns the camera sensor capabilities.
func Capabilities() map[string]interface{} {
	afModes := []string{AfModeManual, AfModeAuto, AfModeContinuous}
	for _, m := range focus.KnownFocusModes {
		afModes = append(afModes, string(m))
	}
	return map[string]interface{}{
		"max_width":     SensorMaxWidth,
		"max_height":    SensorMaxHeight,
		"max_framerate": SensorMaxFramerate,
		"rotations":     []int{0, 90, 180, 270},
		"af_modes":      afModes,
		"presets":       PresetNames(),
	}
}
