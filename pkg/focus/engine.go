package focus

import (
	"context"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/teslashibe/go-focus/pkg/geometry"
	"github.com/teslashibe/go-focus/pkg/sched"
)

const commandBuffer = 64

// Engine runs a Machine on its own goroutine. Commands and hardware
// callbacks are marshaled onto that goroutine; read-only queries are served
// from a snapshot taken after every command.
type Engine struct {
	m      *Machine
	cmds   chan func(*Machine)
	done   chan struct{}
	logger *slog.Logger

	started atomic.Bool
	snap    atomic.Pointer[Snapshot]
}

// NewEngine creates an engine. Call Run to start processing.
func NewEngine(opts Options) (*Engine, error) {
	e := &Engine{
		cmds: make(chan func(*Machine), commandBuffer),
		done: make(chan struct{}),
	}
	if opts.Scheduler == nil {
		opts.Scheduler = sched.NewQueue(e.post)
	}
	m, err := NewMachine(opts)
	if err != nil {
		return nil, err
	}
	e.m = m
	e.logger = m.logger
	e.publish()
	return e, nil
}

// Run processes commands until ctx is cancelled. Pending delayed callbacks
// are dropped on exit.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(e.done)

	e.logger.Info("focus engine started")
	for {
		select {
		case <-ctx.Done():
			e.m.timers.CancelAll()
			e.logger.Info("focus engine stopped")
			return nil
		case fn := <-e.cmds:
			fn(e.m)
			e.publish()
		}
	}
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) publish() {
	s := e.m.Snapshot()
	e.snap.Store(&s)
}

// post queues fn without waiting for it. It is the delivery path for timers
// and hardware callbacks.
func (e *Engine) post(fn func()) bool {
	select {
	case e.cmds <- func(*Machine) { fn() }:
		return true
	case <-e.done:
		return false
	}
}

// do runs fn on the engine goroutine and waits for it.
func (e *Engine) do(ctx context.Context, fn func(*Machine)) error {
	ran := make(chan struct{})
	cmd := func(m *Machine) {
		defer close(ran)
		fn(m)
	}

	select {
	case e.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

// OnShutterDown handles a shutter half-press.
func (e *Engine) OnShutterDown(ctx context.Context) error {
	return e.do(ctx, (*Machine).OnShutterDown)
}

// OnShutterUp handles the shutter release.
func (e *Engine) OnShutterUp(ctx context.Context) error {
	return e.do(ctx, (*Machine).OnShutterUp)
}

// RequestCapture takes or defers a picture.
func (e *Engine) RequestCapture(ctx context.Context) (CaptureOutcome, error) {
	var out CaptureOutcome
	err := e.do(ctx, func(m *Machine) { out = m.RequestCapture() })
	return out, err
}

// OnTouch handles a tap at view coordinates. It reports whether the tap
// was accepted.
func (e *Engine) OnTouch(ctx context.Context, x, y int) (bool, error) {
	var accepted bool
	err := e.do(ctx, func(m *Machine) { accepted = m.OnTouch(x, y) })
	return accepted, err
}

// CancelAutoFocus resets the focus cycle to Idle.
func (e *Engine) CancelAutoFocus(ctx context.Context) error {
	return e.do(ctx, (*Machine).CancelAutoFocus)
}

// OnPreviewStarted resets the cycle for a fresh preview.
func (e *Engine) OnPreviewStarted(ctx context.Context) error {
	return e.do(ctx, (*Machine).OnPreviewStarted)
}

// OnPreviewStopped resets the cycle and drops pending callbacks.
func (e *Engine) OnPreviewStopped(ctx context.Context) error {
	return e.do(ctx, (*Machine).OnPreviewStopped)
}

// SetPreviewBounds sets the preview rectangle.
func (e *Engine) SetPreviewBounds(ctx context.Context, r image.Rectangle) error {
	return e.do(ctx, func(m *Machine) { m.SetPreviewBounds(r) })
}

// SetMirror sets the preview mirror flag.
func (e *Engine) SetMirror(ctx context.Context, mirror bool) error {
	return e.do(ctx, func(m *Machine) { m.SetMirror(mirror) })
}

// SetDisplayRotation sets the display rotation in degrees.
func (e *Engine) SetDisplayRotation(ctx context.Context, degrees int) error {
	var rotErr error
	if err := e.do(ctx, func(m *Machine) { rotErr = m.SetDisplayRotation(degrees) }); err != nil {
		return err
	}
	return rotErr
}

// SetCapabilities replaces the session capabilities.
func (e *Engine) SetCapabilities(ctx context.Context, c Capabilities) error {
	c = c.Clone()
	return e.do(ctx, func(m *Machine) { m.SetCapabilities(c) })
}

// SetZSL toggles zero-shutter-lag mode.
func (e *Engine) SetZSL(ctx context.Context, enabled bool) error {
	return e.do(ctx, func(m *Machine) { m.SetZSL(enabled) })
}

// SetFocusModeOverride forces a focus mode; empty clears it.
func (e *Engine) SetFocusModeOverride(ctx context.Context, mode FocusMode) error {
	return e.do(ctx, func(m *Machine) { m.SetFocusModeOverride(mode) })
}

// OnAutoFocusResult queues a hardware autofocus result. It does not wait.
func (e *Engine) OnAutoFocusResult(focused, shutterHeld bool) {
	if !e.post(func() { e.m.OnAutoFocusResult(focused, shutterHeld) }) {
		e.logger.Debug("autofocus result dropped, engine stopped")
	}
}

// OnAutoFocusMoving queues a continuous-autofocus motion notification.
func (e *Engine) OnAutoFocusMoving(moving bool) {
	if !e.post(func() { e.m.OnAutoFocusMoving(moving) }) {
		e.logger.Debug("autofocus moving dropped, engine stopped")
	}
}

// AutoFocusDone implements Callbacks. The shutter state is the one tracked
// by the engine when the result is processed.
func (e *Engine) AutoFocusDone(focused bool) {
	if !e.post(func() { e.m.OnAutoFocusResult(focused, e.m.ShutterHeld()) }) {
		e.logger.Debug("autofocus result dropped, engine stopped")
	}
}

// AutoFocusMoving implements Callbacks.
func (e *Engine) AutoFocusMoving(moving bool) {
	e.OnAutoFocusMoving(moving)
}

// CurrentState returns the state as of the last processed command.
func (e *Engine) CurrentState() State {
	return e.snap.Load().State
}

// IsFocusComplete reports whether the last focus cycle resolved.
func (e *Engine) IsFocusComplete() bool {
	return e.snap.Load().FocusComplete
}

// ActiveRegions returns the live focus and metering regions.
func (e *Engine) ActiveRegions() (focusRegion, meteringRegion *geometry.Region) {
	s := e.snap.Load()
	return copyRegion(s.FocusRegion), copyRegion(s.MeteringRegion)
}

// Snapshot returns the machine state as of the last processed command.
func (e *Engine) Snapshot() Snapshot {
	s := *e.snap.Load()
	s.FocusRegion = copyRegion(s.FocusRegion)
	s.MeteringRegion = copyRegion(s.MeteringRegion)
	return s
}

// History returns recorded transitions, oldest first.
func (e *Engine) History() []Transition {
	return e.m.History()
}

// AddStateListener registers fn for state changes. fn runs on the engine
// goroutine and must not call back into the engine synchronously.
func (e *Engine) AddStateListener(fn StateListener) {
	e.m.AddStateListener(fn)
}

var _ Callbacks = (*Engine)(nil)
