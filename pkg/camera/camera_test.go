package camera

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/teslashibe/go-focus/pkg/focus"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	for _, name := range PresetNames() {
		p := GetPreset(name)
		if p == nil {
			t.Errorf("preset %q missing", name)
			continue
		}
		if err := p.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 10
	cfg.DisplayRotation = 45
	cfg.AfMode = "sharp"

	err := cfg.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(verr.Problems) != 3 {
		t.Errorf("problems = %v, want 3", verr.Problems)
	}
}

func TestFocusMode(t *testing.T) {
	tests := []struct {
		afMode string
		want   focus.FocusMode
	}{
		{"", ""},
		{AfModeManual, focus.FocusModeManual},
		{AfModeAuto, focus.FocusModeAuto},
		{AfModeContinuous, focus.FocusModeContinuousPicture},
		{"macro", focus.FocusModeMacro},
	}
	for _, tt := range tests {
		cfg := Config{AfMode: tt.afMode}
		if got := cfg.FocusMode(); got != tt.want {
			t.Errorf("FocusMode(%q) = %q, want %q", tt.afMode, got, tt.want)
		}
	}
}

func TestPreviewBounds(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.PreviewBounds(); got != image.Rect(0, 0, 1920, 1080) {
		t.Errorf("landscape = %v", got)
	}
	cfg.DisplayRotation = 270
	if got := cfg.PreviewBounds(); got != image.Rect(0, 0, 1080, 1920) {
		t.Errorf("portrait = %v", got)
	}
}

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager()
	var applied []Config
	m.OnConfigChange = func(cfg Config) error {
		applied = append(applied, cfg)
		return nil
	}

	err := m.UpdateConfig(map[string]interface{}{
		"preset":           PresetFront,
		"zsl":              true,
		"display_rotation": float64(90),
		"af_mode":          "auto",
	})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	cfg := m.GetConfig()
	if !cfg.Mirror || !cfg.ZSL || cfg.DisplayRotation != 90 || cfg.AfMode != "auto" {
		t.Errorf("config = %+v", cfg)
	}
	if len(applied) != 1 {
		t.Errorf("callback called %d times", len(applied))
	}
}

func TestManager_UpdateConfigErrors(t *testing.T) {
	m := NewManager()

	if err := m.UpdateConfig(map[string]interface{}{"preset": "nope"}); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("unknown preset: err = %v", err)
	}
	if err := m.UpdateConfig(map[string]interface{}{"quality": 0}); err == nil {
		t.Error("invalid quality accepted")
	}
	err := m.UpdateConfig(map[string]interface{}{"shutter_speed": 5, "mirror": "sideways", "zsl": true})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Problems) != 2 {
		t.Errorf("bad keys: err = %v", err)
	}
	if got := m.GetConfig(); got != DefaultConfig() {
		t.Errorf("config changed by failed update: %+v", got)
	}

	m.OnConfigChange = func(Config) error { return errors.New("busy") }
	if err := m.SetConfig(DefaultConfig()); err == nil {
		t.Error("callback error not returned")
	}
}

func TestManager_GetConfigJSON(t *testing.T) {
	m := NewManager()
	js := m.GetConfigJSON()
	if js["width"] != float64(1920) {
		t.Errorf("width = %v", js["width"])
	}
	if _, ok := js["af_mode"]; !ok {
		t.Error("af_mode missing")
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		in     interface{}
		want   bool
		wantOK bool
	}{
		{true, true, true},
		{"false", false, true},
		{float64(1), true, true},
		{"maybe", false, false},
		{nil, false, false},
	}
	for _, tt := range tests {
		got, ok := toBool(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("toBool(%v) = %v, %v", tt.in, got, ok)
		}
	}
}

type recordingTarget struct {
	bounds   image.Rectangle
	mirror   bool
	rotation int
	zsl      bool
	mode     focus.FocusMode
}

func (r *recordingTarget) SetPreviewBounds(_ context.Context, b image.Rectangle) error {
	r.bounds = b
	return nil
}

func (r *recordingTarget) SetMirror(_ context.Context, m bool) error {
	r.mirror = m
	return nil
}

func (r *recordingTarget) SetDisplayRotation(_ context.Context, d int) error {
	r.rotation = d
	return nil
}

func (r *recordingTarget) SetZSL(_ context.Context, z bool) error {
	r.zsl = z
	return nil
}

func (r *recordingTarget) SetFocusModeOverride(_ context.Context, m focus.FocusMode) error {
	r.mode = m
	return nil
}

func TestApply(t *testing.T) {
	target := &recordingTarget{}
	cfg := ZSLConfig()
	cfg.DisplayRotation = 90
	cfg.Mirror = true

	if err := Apply(context.Background(), target, cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if target.bounds != image.Rect(0, 0, 1080, 1920) {
		t.Errorf("bounds = %v", target.bounds)
	}
	if !target.mirror || target.rotation != 90 || !target.zsl {
		t.Errorf("target = %+v", target)
	}
	if target.mode != focus.FocusModeContinuousPicture {
		t.Errorf("mode = %s", target.mode)
	}
}
