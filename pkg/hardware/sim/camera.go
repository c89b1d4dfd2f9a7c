// Package sim provides a simulated camera for development and CI. It
// implements focus.Listener, answers autofocus requests after a fixed
// latency and publishes gen2-style lens metadata.
package sim

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/focus"
	"github.com/teslashibe/go-focus/pkg/lens"
)

// Simulation defaults.
const (
	DefaultLatency = 300 * time.Millisecond
	DefaultNear    = 100
	DefaultFar     = 900
)

// Options configures a simulated camera.
type Options struct {
	Capabilities focus.Capabilities // zero value means focus.DefaultCapabilities
	Latency      time.Duration      // autofocus search time
	Near, Far    int                // lens DAC range
	Logger       *slog.Logger

	// PassiveInterval triggers a continuous-AF sweep this often while idle.
	// Zero disables passive sweeps.
	PassiveInterval time.Duration
}

// Camera is a simulated camera.
type Camera struct {
	mu        sync.Mutex
	callbacks focus.Callbacks
	caps      focus.Capabilities
	latency   time.Duration
	near, far int
	interval  time.Duration
	logger    *slog.Logger

	lensPos   int
	target    int
	searching bool
	search    *time.Timer
	failNext  bool
	captureOK bool
	captures  int
	faces     bool
	params    focus.Parameters
	ratio     float64
}

// New creates a simulated camera with a fresh session ID.
func New(opts Options) *Camera {
	caps := opts.Capabilities
	if caps.FocusModes == nil && caps.SessionID == "" {
		caps = focus.DefaultCapabilities()
	}
	if caps.SessionID == "" {
		caps.SessionID = uuid.NewString()
	}
	if opts.Latency <= 0 {
		opts.Latency = DefaultLatency
	}
	if opts.Near == 0 && opts.Far == 0 {
		opts.Near, opts.Far = DefaultNear, DefaultFar
	}
	return &Camera{
		caps:      caps,
		latency:   opts.Latency,
		near:      opts.Near,
		far:       opts.Far,
		interval:  opts.PassiveInterval,
		logger:    log.Or(opts.Logger, "sim"),
		lensPos:   opts.Far,
		target:    opts.Far,
		captureOK: true,
	}
}

// Attach sets the receiver of autofocus notifications.
func (c *Camera) Attach(cb focus.Callbacks) {
	c.mu.Lock()
	c.callbacks = cb
	c.mu.Unlock()
}

// Capabilities returns what the simulated hardware supports.
func (c *Camera) Capabilities() focus.Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps.Clone()
}

// Reconnect starts a new hardware session and returns its capabilities.
func (c *Camera) Reconnect() focus.Capabilities {
	c.mu.Lock()
	c.caps.SessionID = uuid.NewString()
	caps := c.caps.Clone()
	c.mu.Unlock()
	c.logger.Info("simulated session restarted", "session", caps.SessionID)
	return caps
}

// FailNextFocus makes the next autofocus search report failure.
func (c *Camera) FailNextFocus() {
	c.mu.Lock()
	c.failNext = true
	c.mu.Unlock()
}

// SetCaptureReady controls whether RequestCapture succeeds.
func (c *Camera) SetCaptureReady(ok bool) {
	c.mu.Lock()
	c.captureOK = ok
	c.mu.Unlock()
}

// Captures returns how many pictures were taken.
func (c *Camera) Captures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captures
}

// FaceDetection reports whether face detection is running.
func (c *Camera) FaceDetection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.faces
}

// LastParameters returns the most recently applied focus parameters.
func (c *Camera) LastParameters() focus.Parameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Ratio returns the last lens ratio reported by the engine.
func (c *Camera) Ratio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ratio
}

// RequestAutoFocus starts a simulated search.
func (c *Camera) RequestAutoFocus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startSearchLocked(func(focused bool) {
		if cb := c.callbacksSnapshot(); cb != nil {
			cb.AutoFocusDone(focused)
		}
	})
}

// CancelAutoFocus aborts a running search.
func (c *Camera) CancelAutoFocus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.search != nil {
		c.search.Stop()
		c.search = nil
	}
	c.searching = false
}

func (c *Camera) RequestCapture() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.captureOK {
		return false
	}
	c.captures++
	c.logger.Info("simulated capture", "count", c.captures, "lens", c.lensPos)
	return true
}

func (c *Camera) StartFaceDetection() {
	c.mu.Lock()
	c.faces = true
	c.mu.Unlock()
}

func (c *Camera) StopFaceDetection() {
	c.mu.Lock()
	c.faces = false
	c.mu.Unlock()
}

// ApplyFocusParameters stores p and aims the lens at the focus region.
// Regions nearer the top of the frame focus farther away.
func (c *Camera) ApplyFocusParameters(p focus.Parameters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
	if p.FocusRegion == nil {
		c.target = c.far
		return
	}
	cy := (p.FocusRegion.Driver.Min.Y + p.FocusRegion.Driver.Max.Y) / 2
	// Driver space is [-1000, 1000]; top of frame is far.
	frac := float64(cy+1000) / 2000
	c.target = c.far - int(frac*float64(c.far-c.near))
}

func (c *Camera) SetUiFocusRatio(ratio float64) {
	c.mu.Lock()
	c.ratio = ratio
	c.mu.Unlock()
}

// Lookup publishes the lens position under the gen2 metadata keys.
func (c *Camera) Lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch key {
	case lens.Gen2Keys.Near:
		return strconv.Itoa(c.near), true
	case lens.Gen2Keys.Far:
		return strconv.Itoa(c.far), true
	case lens.Gen2Keys.Current:
		return strconv.Itoa(c.lensPos), true
	}
	return "", false
}

// Run emits passive continuous-AF sweeps until ctx is cancelled. It returns
// immediately when PassiveInterval is zero.
func (c *Camera) Run(ctx context.Context) error {
	if c.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.CancelAutoFocus()
			return nil
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep reports a passive lens move unless an explicit search is running.
func (c *Camera) sweep() {
	c.mu.Lock()
	if c.searching {
		c.mu.Unlock()
		return
	}
	c.startSearchLocked(func(bool) {
		if cb := c.callbacksSnapshot(); cb != nil {
			cb.AutoFocusMoving(false)
		}
	})
	cb := c.callbacks
	c.mu.Unlock()

	if cb != nil {
		cb.AutoFocusMoving(true)
	}
}

// startSearchLocked arms the search timer. done runs without the lock held.
func (c *Camera) startSearchLocked(done func(focused bool)) {
	if c.search != nil {
		c.search.Stop()
	}
	c.searching = true
	var t *time.Timer
	t = time.AfterFunc(c.latency, func() {
		c.mu.Lock()
		if c.search != t {
			c.mu.Unlock()
			return
		}
		c.search = nil
		c.searching = false
		focused := !c.failNext
		c.failNext = false
		if focused {
			c.lensPos = c.target
		}
		c.mu.Unlock()
		done(focused)
	})
	c.search = t
}

func (c *Camera) callbacksSnapshot() focus.Callbacks {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callbacks
}

var (
	_ focus.Listener = (*Camera)(nil)
	_ lens.Metadata  = (*Camera)(nil)
)
