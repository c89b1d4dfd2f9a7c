package camera

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Manager holds the active camera settings and pushes changes to the
// focus engine through OnConfigChange.
type Manager struct {
	mu     sync.RWMutex
	config Config

	// OnConfigChange applies an accepted config. A returned error is passed
	// back to the caller but the config stays stored.
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager holding DefaultConfig.
func NewManager() *Manager {
	return NewManagerWithConfig(DefaultConfig())
}

// NewManagerWithConfig creates a manager starting from cfg.
func NewManagerWithConfig(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns a copy of the current settings.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates cfg, stores it and runs OnConfigChange.
func (m *Manager) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	apply := m.OnConfigChange
	m.mu.Unlock()

	if apply == nil {
		return nil
	}
	if err := apply(cfg); err != nil {
		return fmt.Errorf("camera: apply config: %w", err)
	}
	return nil
}

// setter writes one decoded JSON value into cfg, reporting false when the
// value has the wrong type.
type setter func(cfg *Config, v interface{}) bool

func intField(field func(*Config) *int) setter {
	return func(cfg *Config, v interface{}) bool {
		n, ok := toInt(v)
		if ok {
			*field(cfg) = n
		}
		return ok
	}
}

func boolField(field func(*Config) *bool) setter {
	return func(cfg *Config, v interface{}) bool {
		b, ok := toBool(v)
		if ok {
			*field(cfg) = b
		}
		return ok
	}
}

var setters = map[string]setter{
	"width":            intField(func(c *Config) *int { return &c.Width }),
	"height":           intField(func(c *Config) *int { return &c.Height }),
	"framerate":        intField(func(c *Config) *int { return &c.Framerate }),
	"quality":          intField(func(c *Config) *int { return &c.Quality }),
	"display_rotation": intField(func(c *Config) *int { return &c.DisplayRotation }),
	"mirror":           boolField(func(c *Config) *bool { return &c.Mirror }),
	"zsl":              boolField(func(c *Config) *bool { return &c.ZSL }),
	"af_mode": func(c *Config, v interface{}) bool {
		s, ok := v.(string)
		if ok {
			c.AfMode = s
		}
		return ok
	},
}

// UpdateConfig patches the current settings from a decoded JSON object.
// A "preset" key replaces the base config before the other keys apply.
// Unknown keys and mistyped values are reported together as a
// *ValidationError and nothing is changed.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if raw, ok := params["preset"]; ok {
		name, _ := raw.(string)
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("%w: %v", ErrUnknownPreset, raw)
		}
		cfg = *preset
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "preset" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var problems []string
	for _, k := range keys {
		set, ok := setters[k]
		switch {
		case !ok:
			problems = append(problems, "unknown setting "+strconv.Quote(k))
		case !set(&cfg, params[k]):
			problems = append(problems, fmt.Sprintf("%s: unexpected value %v", k, params[k]))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current settings keyed by their JSON names.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	data, _ := json.Marshal(m.GetConfig())
	var out map[string]interface{}
	_ = json.Unmarshal(data, &out)
	return out
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func toBool(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		if b, err := strconv.ParseBool(val); err == nil {
			return b, true
		}
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	}
	return false, false
}
