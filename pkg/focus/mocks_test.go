package focus

import (
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/sched"
)

// mockListener records hardware commands.
type mockListener struct {
	mu        sync.Mutex
	calls     []string
	params    []Parameters
	ratios    []float64
	captureOK bool
}

func newMockListener() *mockListener {
	return &mockListener{captureOK: true}
}

func (l *mockListener) record(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *mockListener) RequestAutoFocus()   { l.record("request_af") }
func (l *mockListener) CancelAutoFocus()    { l.record("cancel_af") }
func (l *mockListener) StartFaceDetection() { l.record("start_fd") }
func (l *mockListener) StopFaceDetection()  { l.record("stop_fd") }

func (l *mockListener) RequestCapture() bool {
	l.record("capture")
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.captureOK
}

func (l *mockListener) ApplyFocusParameters(p Parameters) {
	l.record("apply")
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params = append(l.params, p)
}

func (l *mockListener) SetUiFocusRatio(ratio float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ratios = append(l.ratios, ratio)
}

func (l *mockListener) setCaptureOK(ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.captureOK = ok
}

func (l *mockListener) count(call string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (l *mockListener) history() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *mockListener) lastParams() (Parameters, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.params) == 0 {
		return Parameters{}, false
	}
	return l.params[len(l.params)-1], true
}

func (l *mockListener) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
	l.params = nil
	l.ratios = nil
}

// mockIndicator records indicator commands.
type mockIndicator struct {
	mu    sync.Mutex
	calls []string
}

func (i *mockIndicator) record(call string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls = append(i.calls, call)
}

func (i *mockIndicator) SetPosition(x, y int) { i.record(fmt.Sprintf("position %d,%d", x, y)) }
func (i *mockIndicator) FocusStarted(passive bool) {
	i.record(fmt.Sprintf("started passive=%v", passive))
}
func (i *mockIndicator) FocusSucceeded(passive bool) {
	i.record(fmt.Sprintf("succeeded passive=%v", passive))
}
func (i *mockIndicator) FocusFailed() { i.record("failed") }
func (i *mockIndicator) Clear()       { i.record("clear") }

func (i *mockIndicator) count(call string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, c := range i.calls {
		if c == call {
			n++
		}
	}
	return n
}

// fakeScheduler holds callbacks until the test fires them.
type fakeScheduler struct {
	pending map[sched.Kind]fakeTimer
}

type fakeTimer struct {
	delay time.Duration
	fn    func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[sched.Kind]fakeTimer)}
}

func (s *fakeScheduler) Schedule(kind sched.Kind, d time.Duration, fn func()) {
	s.pending[kind] = fakeTimer{delay: d, fn: fn}
}

func (s *fakeScheduler) Cancel(kind sched.Kind) { delete(s.pending, kind) }

func (s *fakeScheduler) CancelAll() { clear(s.pending) }

func (s *fakeScheduler) Pending(kind sched.Kind) bool {
	_, ok := s.pending[kind]
	return ok
}

func (s *fakeScheduler) delay(kind sched.Kind) time.Duration {
	return s.pending[kind].delay
}

// fire runs the pending callback of kind, as if its delay elapsed.
func (s *fakeScheduler) fire(kind sched.Kind) bool {
	t, ok := s.pending[kind]
	if !ok {
		return false
	}
	delete(s.pending, kind)
	t.fn()
	return true
}

type mapPrefs map[string]string

func (p mapPrefs) Lookup(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

type machineFixture struct {
	m         *Machine
	listener  *mockListener
	indicator *mockIndicator
	timers    *fakeScheduler
}

// newFixture builds a machine with default config and capabilities and a
// 1000x800 preview, after applying any option tweaks.
func newFixture(t *testing.T, tweak func(*Options)) *machineFixture {
	t.Helper()
	f := &machineFixture{
		listener:  newMockListener(),
		indicator: &mockIndicator{},
		timers:    newFakeScheduler(),
	}
	opts := Options{
		Config:       DefaultConfig(),
		Capabilities: DefaultCapabilities(),
		Listener:     f.listener,
		Indicator:    f.indicator,
		Scheduler:    f.timers,
		Logger:       log.Discard(),
	}
	if tweak != nil {
		tweak(&opts)
	}
	m, err := NewMachine(opts)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	m.SetPreviewBounds(image.Rect(0, 0, 1000, 800))
	f.m = m
	return f
}
