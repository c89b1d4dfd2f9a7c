package input

import (
	"image"
	"time"
)

// ActionKind is what a gesture means to the focus engine.
type ActionKind int

const (
	ActionTap ActionKind = iota + 1
	ActionShutterDown
	ActionShutterUp
	ActionCapture
)

func (k ActionKind) String() string {
	switch k {
	case ActionTap:
		return "tap"
	case ActionShutterDown:
		return "shutter_down"
	case ActionShutterUp:
		return "shutter_up"
	case ActionCapture:
		return "capture"
	default:
		return "unknown"
	}
}

// Action is a recognized gesture. X and Y are view pixels for taps.
type Action struct {
	Kind ActionKind
	X, Y int
}

// Axis is the raw range of one absolute axis.
type Axis struct {
	Min, Max int32
}

// Mapper scales raw touch coordinates into the preview view.
type Mapper struct {
	X, Y Axis
	View image.Rectangle
}

// Map converts raw axis values into view pixels, clamped to the view.
func (m Mapper) Map(rawX, rawY int32) (int, int) {
	return scaleAxis(rawX, m.X, m.View.Min.X, m.View.Max.X),
		scaleAxis(rawY, m.Y, m.View.Min.Y, m.View.Max.Y)
}

func scaleAxis(v int32, a Axis, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	if a.Max <= a.Min {
		return clamp(int(v), lo, hi-1)
	}
	frac := float64(v-a.Min) / float64(a.Max-a.Min)
	return clamp(lo+int(frac*float64(hi-lo-1)+0.5), lo, hi-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tap limits.
const (
	DefaultTapSlop     = 40 // view pixels
	DefaultTapDuration = 500 * time.Millisecond
)

// Recognizer turns an evdev event stream into actions. A touch that moves
// farther than Slop or lasts longer than MaxDuration is not a tap.
type Recognizer struct {
	Mapper      Mapper
	Slop        int
	MaxDuration time.Duration
	Now         func() time.Time

	rawX, rawY   int32
	down         bool
	released     bool
	startX       int
	startY       int
	startAt      time.Time
	moved        bool
	pendingStart bool
}

// NewRecognizer creates a recognizer with default tap limits.
func NewRecognizer(m Mapper) *Recognizer {
	return &Recognizer{
		Mapper:      m,
		Slop:        DefaultTapSlop,
		MaxDuration: DefaultTapDuration,
		Now:         time.Now,
	}
}

// Handle consumes one event and returns an action when one completes.
func (r *Recognizer) Handle(ev Event) (Action, bool) {
	switch ev.Type {
	case EvAbs:
		switch ev.Code {
		case AbsX:
			r.rawX = ev.Value
		case AbsY:
			r.rawY = ev.Value
		}
	case EvKey:
		return r.handleKey(ev)
	case EvSyn:
		if ev.Code == SynReport {
			return r.report()
		}
	}
	return Action{}, false
}

func (r *Recognizer) handleKey(ev Event) (Action, bool) {
	if ev.Value == KeyRepeat {
		return Action{}, false
	}
	pressed := ev.Value == KeyPressed
	switch ev.Code {
	case BtnTouch:
		if pressed {
			r.down = true
			r.moved = false
			r.pendingStart = true
			r.startAt = r.Now()
		} else if r.down {
			r.released = true
		}
	case KeyCameraFocus:
		if pressed {
			return Action{Kind: ActionShutterDown}, true
		}
		return Action{Kind: ActionShutterUp}, true
	case KeyCamera:
		if pressed {
			return Action{Kind: ActionCapture}, true
		}
	}
	return Action{}, false
}

// report runs at the end of each event frame, when coordinates are settled.
func (r *Recognizer) report() (Action, bool) {
	if !r.down {
		return Action{}, false
	}
	x, y := r.Mapper.Map(r.rawX, r.rawY)
	if r.pendingStart {
		r.startX, r.startY = x, y
		r.pendingStart = false
	} else if abs(x-r.startX) > r.Slop || abs(y-r.startY) > r.Slop {
		r.moved = true
	}
	if !r.released {
		return Action{}, false
	}
	r.down, r.released = false, false
	if r.moved || r.Now().Sub(r.startAt) > r.MaxDuration {
		return Action{}, false
	}
	return Action{Kind: ActionTap, X: r.startX, Y: r.startY}, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
