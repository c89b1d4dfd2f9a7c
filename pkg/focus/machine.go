// Package focus coordinates autofocus and auto-exposure for a camera preview.
//
// A Machine reconciles three independently timed sources: user touches and
// shutter presses, asynchronous hardware autofocus callbacks, and capture
// requests. It owns the focus state, the touch regions, the AE/AWB lock and
// the two delayed callbacks (touch reset and face detection resume), and
// drives the hardware through a Listener.
//
// A Machine is not safe for concurrent use. Engine runs one on a single
// goroutine and exposes a goroutine-safe API around it.
package focus

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/geometry"
	"github.com/teslashibe/go-focus/pkg/lens"
	"github.com/teslashibe/go-focus/pkg/sched"
)

// Options configures a Machine or Engine.
type Options struct {
	Config       Config
	Capabilities Capabilities
	Listener     Listener

	// Optional collaborators.
	Indicator   Indicator
	Preferences Preferences
	Metadata    lens.Metadata
	Probe       *lens.Probe
	Scheduler   Scheduler
	Logger      *slog.Logger
	Now         func() time.Time
}

// StateListener observes state changes. It runs on the engine goroutine.
type StateListener func(prev, next State)

// Machine is the single-threaded focus state machine.
type Machine struct {
	cfg       Config
	caps      Capabilities
	listener  Listener
	indicator Indicator
	prefs     Preferences
	metadata  lens.Metadata
	probe     *lens.Probe
	timers    Scheduler
	logger    *slog.Logger
	now       func() time.Time

	fsm *fsm.FSM

	focusRegion    *geometry.Region
	meteringRegion *geometry.Region

	transformer *geometry.Transformer
	preview     image.Rectangle
	mirror      bool
	rotation    int

	aeAwbLock      bool
	zsl            bool
	touchAfRunning bool
	shutterHeld    bool
	previewing     bool
	prevMoving     bool
	modeOverride   FocusMode

	history *History

	listenersMu sync.Mutex
	listeners   []StateListener
}

// NewMachine creates a machine in StateIdle.
func NewMachine(opts Options) (*Machine, error) {
	if opts.Listener == nil {
		return nil, ErrNoListener
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		cfg:       opts.Config,
		caps:      opts.Capabilities.Clone(),
		listener:  opts.Listener,
		indicator: opts.Indicator,
		prefs:     opts.Preferences,
		metadata:  opts.Metadata,
		probe:     opts.Probe,
		timers:    opts.Scheduler,
		logger:    log.Or(opts.Logger, "focus"),
		now:       opts.Now,
		history:   NewHistory(HistorySize),
	}
	if m.indicator == nil {
		m.indicator = nopIndicator{}
	}
	if m.probe == nil {
		m.probe = lens.NewProbe()
	}
	if m.timers == nil {
		m.timers = sched.NewQueue(nil)
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.fsm = newStateFSM(m.logger)
	return m, nil
}

// State returns the current focus state.
func (m *Machine) State() State {
	return State(m.fsm.Current())
}

// IsFocusComplete reports whether the last focus cycle resolved.
func (m *Machine) IsFocusComplete() bool {
	return m.State().Resolved()
}

// ActiveRegions returns copies of the live focus and metering regions.
// A nil region means the driver default.
func (m *Machine) ActiveRegions() (focusRegion, meteringRegion *geometry.Region) {
	return copyRegion(m.focusRegion), copyRegion(m.meteringRegion)
}

// AeAwbLocked reports whether exposure and white balance are locked.
func (m *Machine) AeAwbLocked() bool { return m.aeAwbLock }

// TouchAfRunning reports whether a ZSL touch-focus cycle is in progress.
func (m *Machine) TouchAfRunning() bool { return m.touchAfRunning }

// ShutterHeld reports whether the shutter is half-pressed.
func (m *Machine) ShutterHeld() bool { return m.shutterHeld }

// Capabilities returns the current session capabilities.
func (m *Machine) Capabilities() Capabilities { return m.caps.Clone() }

// Config returns the engine configuration.
func (m *Machine) Config() Config { return m.cfg }

// Transformer returns the current coordinate transformer, or nil while the
// preview geometry is unavailable.
func (m *Machine) Transformer() *geometry.Transformer { return m.transformer }

// Preview returns the preview rectangle in view coordinates.
func (m *Machine) Preview() image.Rectangle { return m.preview }

// History returns recorded transitions, oldest first.
func (m *Machine) History() []Transition { return m.history.All() }

// AddStateListener registers fn for state changes.
func (m *Machine) AddStateListener(fn StateListener) {
	if fn == nil {
		return
	}
	m.listenersMu.Lock()
	m.listeners = append(m.listeners, fn)
	m.listenersMu.Unlock()
}

// SetCapabilities replaces the session capabilities. A new session cancels
// any focus cycle of the old one.
func (m *Machine) SetCapabilities(c Capabilities) {
	newSession := c.SessionID != m.caps.SessionID
	if newSession && m.State() != StateIdle {
		m.CancelAutoFocus()
	}
	m.caps = c.Clone()
	if !m.caps.FocusAreaSupported {
		m.focusRegion = nil
	}
	if !m.caps.MeteringAreaSupported {
		m.meteringRegion = nil
	}
	m.logger.Info("capabilities updated",
		"session", c.SessionID,
		"focus_area", c.FocusAreaSupported,
		"metering_area", c.MeteringAreaSupported,
		"ae_awb_lock", c.AeAwbLockSupported,
		"lock_on_focus", c.LockAeAwbOnFocus)
}

// SetZSL enables or disables zero-shutter-lag mode.
func (m *Machine) SetZSL(enabled bool) {
	m.zsl = enabled
	if !enabled {
		m.touchAfRunning = false
	}
}

// SetFocusModeOverride forces a focus mode. An empty mode clears the override.
func (m *Machine) SetFocusModeOverride(mode FocusMode) {
	m.modeOverride = mode
}

// SetPreviewBounds sets the preview rectangle in view coordinates.
func (m *Machine) SetPreviewBounds(r image.Rectangle) {
	m.preview = r
	m.rebuildTransformer()
}

// SetMirror sets whether the preview is mirrored (front camera).
func (m *Machine) SetMirror(mirror bool) {
	m.mirror = mirror
	m.rebuildTransformer()
}

// SetDisplayRotation sets the display rotation. Rotations that are not a
// multiple of 90 degrees are rejected and leave the geometry unchanged.
func (m *Machine) SetDisplayRotation(degrees int) error {
	rot, err := geometry.NormalizeRotation(degrees)
	if err != nil {
		return err
	}
	m.rotation = rot
	m.rebuildTransformer()
	return nil
}

func (m *Machine) rebuildTransformer() {
	t, err := geometry.NewTransformer(m.mirror, m.rotation, m.preview)
	if err != nil {
		if m.transformer != nil || !m.preview.Empty() {
			m.logger.Warn("region geometry unavailable", "preview", m.preview, "error", err)
		}
		m.transformer = nil
		return
	}
	m.transformer = t
}

// FocusMode resolves the focus mode to use right now.
func (m *Machine) FocusMode() FocusMode {
	if m.modeOverride != "" {
		return m.modeOverride
	}

	var mode FocusMode
	if m.caps.FocusAreaSupported && m.focusRegion != nil {
		mode = FocusModeAuto
	} else {
		if m.prefs != nil {
			if v, ok := m.prefs.Lookup(PrefFocusMode); ok {
				mode = FocusMode(v)
			}
		}
		if mode == "" {
			for _, d := range m.cfg.DefaultFocusModes {
				if m.caps.Supports(d) {
					mode = d
					break
				}
			}
		}
	}

	if !m.caps.Supports(mode) {
		switch {
		case m.caps.Supports(FocusModeAuto):
			mode = FocusModeAuto
		case len(m.caps.FocusModes) > 0:
			mode = m.caps.FocusModes[0]
		default:
			mode = FocusModeAuto
		}
	}
	return mode
}

func (m *Machine) needAutoFocusCall() bool {
	return m.FocusMode().NeedsAutoFocusCall()
}

// fire runs a transition event. Firing an event that keeps the current state
// counts as success.
func (m *Machine) fire(event string) bool {
	from := m.State()
	if err := m.fsm.Event(context.Background(), event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return true
		}
		m.logger.Debug("focus event rejected", "event", event, "state", from, "error", err)
		return false
	}

	to := m.State()
	m.history.Add(Transition{Event: event, From: from, To: to, At: m.now()})

	m.listenersMu.Lock()
	listeners := append([]StateListener(nil), m.listeners...)
	m.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(from, to)
	}
	return true
}

func (m *Machine) applyParameters() {
	m.listener.ApplyFocusParameters(Parameters{
		FocusMode:      m.FocusMode(),
		FocusRegion:    copyRegion(m.focusRegion),
		MeteringRegion: copyRegion(m.meteringRegion),
		AeAwbLock:      m.aeAwbLock,
	})
}

func (m *Machine) updateFocusUI() {
	switch state := m.State(); state {
	case StateIdle:
		if m.focusRegion == nil && m.meteringRegion == nil {
			m.indicator.Clear()
		} else {
			m.indicator.FocusStarted(false)
		}
	case StateFocusing, StateFocusingSnapOnFinish:
		m.indicator.FocusStarted(false)
	default:
		if m.FocusMode() == FocusModeContinuousPicture || state == StateSuccess {
			m.indicator.FocusSucceeded(false)
		} else {
			m.indicator.FocusFailed()
		}
	}
}

// Snapshot is a point-in-time copy of the machine for readers on other
// goroutines.
type Snapshot struct {
	State             State            `json:"state"`
	FocusComplete     bool             `json:"focus_complete"`
	FocusMode         FocusMode        `json:"focus_mode"`
	FocusRegion       *geometry.Region `json:"focus_region,omitempty"`
	MeteringRegion    *geometry.Region `json:"metering_region,omitempty"`
	AeAwbLock         bool             `json:"ae_awb_lock"`
	ZSL               bool             `json:"zsl"`
	TouchAfRunning    bool             `json:"touch_af_running"`
	ShutterHeld       bool             `json:"shutter_held"`
	Previewing        bool             `json:"previewing"`
	PassiveMoving     bool             `json:"passive_moving"`
	Preview           image.Rectangle  `json:"preview"`
	Mirror            bool             `json:"mirror"`
	Rotation          int              `json:"rotation"`
	GeometryReady     bool             `json:"geometry_ready"`
	SessionID         string           `json:"session_id"`
	TouchResetPending bool             `json:"touch_reset_pending"`
	FaceResumePending bool             `json:"face_resume_pending"`
}

// Snapshot returns the current machine state.
func (m *Machine) Snapshot() Snapshot {
	f, mt := m.ActiveRegions()
	return Snapshot{
		State:             m.State(),
		FocusComplete:     m.IsFocusComplete(),
		FocusMode:         m.FocusMode(),
		FocusRegion:       f,
		MeteringRegion:    mt,
		AeAwbLock:         m.aeAwbLock,
		ZSL:               m.zsl,
		TouchAfRunning:    m.touchAfRunning,
		ShutterHeld:       m.shutterHeld,
		Previewing:        m.previewing,
		PassiveMoving:     m.prevMoving,
		Preview:           m.preview,
		Mirror:            m.mirror,
		Rotation:          m.rotation,
		GeometryReady:     m.transformer != nil,
		SessionID:         m.caps.SessionID,
		TouchResetPending: m.timers.Pending(sched.TouchReset),
		FaceResumePending: m.timers.Pending(sched.FaceDetectionResume),
	}
}

func copyRegion(r *geometry.Region) *geometry.Region {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
