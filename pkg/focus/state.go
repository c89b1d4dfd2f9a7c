package focus

import (
	"context"
	"log/slog"

	"github.com/looplab/fsm"
)

// State is the focus cycle state.
type State string

// Focus states.
const (
	StateIdle                 State = "idle"
	StateFocusing             State = "focusing"
	StateFocusingSnapOnFinish State = "focusing_snap_on_finish"
	StateSuccess              State = "success"
	StateFail                 State = "fail"
)

// String returns the state name.
func (s State) String() string { return string(s) }

// Resolved reports whether a focus cycle has finished, successfully or not.
func (s State) Resolved() bool {
	return s == StateSuccess || s == StateFail
}

// Transition events.
const (
	eventFocus        = "focus"
	eventSnapOnFinish = "snap_on_finish"
	eventSucceed      = "succeed"
	eventFail         = "fail"
	eventReset        = "reset"
)

var allStates = []string{
	string(StateIdle),
	string(StateFocusing),
	string(StateFocusingSnapOnFinish),
	string(StateSuccess),
	string(StateFail),
}

// newStateFSM builds the transition table. A new autofocus can start from
// Idle or restart while Focusing, never out of FocusingSnapOnFinish, which
// only leaves through succeed, fail or reset.
func newStateFSM(logger *slog.Logger) *fsm.FSM {
	return fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: eventFocus, Src: []string{string(StateIdle), string(StateFocusing)}, Dst: string(StateFocusing)},
			{Name: eventSnapOnFinish, Src: []string{string(StateFocusing)}, Dst: string(StateFocusingSnapOnFinish)},
			{Name: eventSucceed, Src: []string{string(StateFocusing), string(StateFocusingSnapOnFinish)}, Dst: string(StateSuccess)},
			{Name: eventFail, Src: []string{string(StateFocusing), string(StateFocusingSnapOnFinish)}, Dst: string(StateFail)},
			{Name: eventReset, Src: allStates, Dst: string(StateIdle)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("focus transition", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
}
