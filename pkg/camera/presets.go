package camera

// Preset names for common configurations
const (
	PresetDefault  = "default"
	Preset720p     = "720p"
	PresetZSL      = "zsl"
	PresetFront    = "front"
	PresetPortrait = "portrait"
	PresetManual   = "manual"
	PresetMacro    = "macro"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:  DefaultConfig(),
		Preset720p:     HD720Config(),
		PresetZSL:      ZSLConfig(),
		PresetFront:    FrontConfig(),
		PresetPortrait: PortraitConfig(),
		PresetManual:   ManualFocusConfig(),
		PresetMacro:    MacroConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		Preset720p,
		PresetZSL,
		PresetFront,
		PresetPortrait,
		PresetManual,
		PresetMacro,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// HD720Config returns a 720p preview.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// ZSLConfig returns zero-shutter-lag capture with continuous autofocus.
// Touch focus still works but AE/AWB is never locked explicitly.
func ZSLConfig() Config {
	cfg := DefaultConfig()
	cfg.ZSL = true
	cfg.AfMode = AfModeContinuous
	return cfg
}

// FrontConfig returns a mirrored preview for a user-facing camera.
func FrontConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	cfg.Mirror = true
	return cfg
}

// PortraitConfig returns a preview shown on a display rotated a quarter turn.
func PortraitConfig() Config {
	cfg := DefaultConfig()
	cfg.DisplayRotation = 90
	return cfg
}

// ManualFocusConfig disables autofocus calls; the shutter captures directly.
func ManualFocusConfig() Config {
	cfg := DefaultConfig()
	cfg.AfMode = AfModeManual
	return cfg
}

// MacroConfig focuses close up.
func MacroConfig() Config {
	cfg := DefaultConfig()
	cfg.AfMode = "macro"
	return cfg
}
