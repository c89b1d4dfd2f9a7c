package focus

import (
	"fmt"
	"time"
)

// Config holds the focus engine tunables.
type Config struct {
	// TouchFocusHold is how long a touch-focus region stays after the
	// autofocus result before it is reset.
	TouchFocusHold time.Duration `yaml:"touch_focus_hold" json:"touch_focus_hold"`

	// UIResetDelay clears the indicator after a touch when the hardware has
	// no region autofocus.
	UIResetDelay time.Duration `yaml:"ui_reset_delay" json:"ui_reset_delay"`

	// FaceResumeDelay is how long after the last autofocus activity face
	// detection is restarted.
	FaceResumeDelay time.Duration `yaml:"face_resume_delay" json:"face_resume_delay"`

	// Region side = shorter preview edge * scale.
	FocusAreaScale    float64 `yaml:"focus_area_scale" json:"focus_area_scale"`
	MeteringAreaScale float64 `yaml:"metering_area_scale" json:"metering_area_scale"`
	RegionWeight      int     `yaml:"region_weight" json:"region_weight"`

	// Hit-box margins in view pixels. On-screen controls overlap the top
	// and bottom of the preview.
	TopMargin    int `yaml:"top_margin" json:"top_margin"`
	BottomMargin int `yaml:"bottom_margin" json:"bottom_margin"`

	// DefaultFocusModes is tried in order when no override or preference
	// names a mode.
	DefaultFocusModes []FocusMode `yaml:"default_focus_modes" json:"default_focus_modes"`
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		TouchFocusHold:    3 * time.Second,
		UIResetDelay:      3 * time.Second,
		FaceResumeDelay:   3 * time.Second,
		FocusAreaScale:    0.2,
		MeteringAreaScale: 0.3,
		RegionWeight:      1,
		TopMargin:         0,
		BottomMargin:      0,
		DefaultFocusModes: []FocusMode{FocusModeContinuousPicture, FocusModeAuto},
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.TouchFocusHold <= 0 {
		return fmt.Errorf("%w: touch_focus_hold must be positive", ErrInvalidConfig)
	}
	if c.UIResetDelay <= 0 {
		return fmt.Errorf("%w: ui_reset_delay must be positive", ErrInvalidConfig)
	}
	if c.FaceResumeDelay <= 0 {
		return fmt.Errorf("%w: face_resume_delay must be positive", ErrInvalidConfig)
	}
	if c.FocusAreaScale <= 0 || c.FocusAreaScale > 1 {
		return fmt.Errorf("%w: focus_area_scale must be in (0, 1]", ErrInvalidConfig)
	}
	if c.MeteringAreaScale <= 0 || c.MeteringAreaScale > 1 {
		return fmt.Errorf("%w: metering_area_scale must be in (0, 1]", ErrInvalidConfig)
	}
	if c.RegionWeight < 1 || c.RegionWeight > 1000 {
		return fmt.Errorf("%w: region_weight must be between 1 and 1000", ErrInvalidConfig)
	}
	if c.TopMargin < 0 || c.BottomMargin < 0 {
		return fmt.Errorf("%w: hit-box margins must not be negative", ErrInvalidConfig)
	}
	for _, m := range c.DefaultFocusModes {
		if !m.Known() {
			return fmt.Errorf("%w: unknown focus mode %q", ErrInvalidConfig, m)
		}
	}
	return nil
}
