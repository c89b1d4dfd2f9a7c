// Package config provides configuration loading for go-focus commands.
// Values come from a YAML file, then environment variables, then flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/focus"
)

// Default daemon configuration.
const (
	DefaultPort     = "8090"
	DefaultDevice   = "/dev/video0"
	DefaultHardware = "sim"
)

// Log configures the global logger.
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Server configures the control API.
type Server struct {
	Port string `yaml:"port" json:"port"`
	// StaticDir holds optional UI assets served at /.
	StaticDir string `yaml:"static_dir" json:"static_dir"`
}

// Hardware selects and configures the camera backend.
type Hardware struct {
	// Backend is "sim" or "v4l2".
	Backend string `yaml:"backend" json:"backend"`
	// Device is the V4L2 device node.
	Device string `yaml:"device" json:"device"`
	// SimLatency is the simulated autofocus search time.
	SimLatency time.Duration `yaml:"sim_latency" json:"sim_latency"`
	// SimPassiveInterval triggers simulated continuous-AF sweeps. Zero disables them.
	SimPassiveInterval time.Duration `yaml:"sim_passive_interval" json:"sim_passive_interval"`
}

// Input configures optional physical input sources.
type Input struct {
	// TouchDevice is an evdev node such as /dev/input/event2. Empty disables touch.
	TouchDevice string `yaml:"touch_device" json:"touch_device"`
	// Grab requests exclusive access to the touch device.
	Grab bool `yaml:"grab" json:"grab"`
	// ButtonPin is a periph GPIO name such as GPIO17. Empty disables the button.
	ButtonPin string `yaml:"button_pin" json:"button_pin"`
}

// File is the full on-disk configuration.
type File struct {
	Log         Log           `yaml:"log" json:"log"`
	Server      Server        `yaml:"server" json:"server"`
	Hardware    Hardware      `yaml:"hardware" json:"hardware"`
	Input       Input         `yaml:"input" json:"input"`
	Focus       focus.Config  `yaml:"focus" json:"focus"`
	Camera      camera.Config `yaml:"camera" json:"camera"`
	Preferences Preferences   `yaml:"preferences" json:"preferences"`
}

// Preferences is a read-only flat key lookup backed by the config file.
type Preferences map[string]string

// Lookup implements focus.Preferences.
func (p Preferences) Lookup(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Default returns the built-in configuration.
func Default() *File {
	return &File{
		Log:      Log{Level: "info", Format: "text"},
		Server:   Server{Port: DefaultPort},
		Hardware: Hardware{Backend: DefaultHardware, Device: DefaultDevice},
		Focus:    focus.DefaultConfig(),
		Camera:   camera.DefaultConfig(),
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file
// is not an error. Environment overrides are applied afterwards.
func Load(path string) (*File, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FOCUS_* environment variables.
func (f *File) ApplyEnv() {
	if v := os.Getenv("FOCUS_PORT"); v != "" {
		f.Server.Port = v
	}
	if v := os.Getenv("FOCUS_DEVICE"); v != "" {
		f.Hardware.Device = v
	}
	if v := os.Getenv("FOCUS_HARDWARE"); v != "" {
		f.Hardware.Backend = v
	}
	if v := os.Getenv("FOCUS_LOG_LEVEL"); v != "" {
		f.Log.Level = v
	}
}

// Validate checks the sections that have their own validation.
func (f *File) Validate() error {
	if f.Hardware.Backend != "sim" && f.Hardware.Backend != "v4l2" {
		return fmt.Errorf("hardware.backend must be 'sim' or 'v4l2', got '%s'", f.Hardware.Backend)
	}
	if f.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if err := f.Focus.Validate(); err != nil {
		return err
	}
	if err := f.Camera.Validate(); err != nil {
		return err
	}
	return nil
}

// ServerURL returns the control API base URL from FOCUS_URL, falling back
// to localhost on the given port.
func ServerURL(port string) string {
	if u := os.Getenv("FOCUS_URL"); u != "" {
		return u
	}
	if port == "" {
		port = DefaultPort
	}
	return fmt.Sprintf("http://localhost:%s", port)
}
