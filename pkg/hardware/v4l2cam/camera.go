package v4l2cam

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

// DefaultPollInterval is how often the autofocus status is read.
const DefaultPollInterval = 50 * time.Millisecond

// Options configures a V4L2 camera.
type Options struct {
	Device       string
	PollInterval time.Duration
	Logger       *slog.Logger

	// Capture takes a still picture. Nil accepts every request.
	Capture func() bool
}

// Camera is a V4L2 camera with autofocus controls.
type Camera struct {
	dev      controlDevice
	interval time.Duration
	capture  func() bool
	logger   *slog.Logger

	mu        sync.Mutex
	caps      focus.Capabilities
	ctrls     controlSet
	callbacks focus.Callbacks
	searching bool
	moving    bool
	focusPos  Control
	ratio     float64
}

// Open opens the device and probes its focus controls.
func Open(opts Options) (*Camera, error) {
	dev, err := openDevice(opts.Device)
	if err != nil {
		return nil, err
	}
	return newCamera(dev, opts), nil
}

func newCamera(dev controlDevice, opts Options) *Camera {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	c := &Camera{
		dev:      dev,
		interval: opts.PollInterval,
		capture:  opts.Capture,
		logger:   log.Or(opts.Logger, "v4l2cam").With("device", opts.Device),
	}
	c.probe()
	return c
}

// controlSet records which focus controls the driver exposes.
type controlSet struct {
	status   bool
	absolute bool
	auto     bool
	lock     bool
}

func (c *Camera) has(id uint32) bool {
	_, err := c.dev.GetControl(id)
	return err == nil
}

// probe derives capabilities from the controls the driver exposes and
// starts a new session with them.
func (c *Camera) probe() focus.Capabilities {
	ctrls := controlSet{
		status: c.has(CidAutoFocusState),
		auto:   c.has(CidFocusAuto),
		lock:   c.has(Cid3ALock),
	}
	pos, err := c.dev.GetControl(CidFocusAbsolute)
	ctrls.absolute = err == nil
	hasStart := c.has(CidAutoFocusStart)

	var modes []focus.FocusMode
	if hasStart {
		modes = append(modes, focus.FocusModeAuto, focus.FocusModeMacro)
	}
	if ctrls.auto {
		modes = append(modes, focus.FocusModeContinuousPicture, focus.FocusModeContinuousVideo)
	}
	if ctrls.absolute {
		modes = append(modes, focus.FocusModeInfinity, focus.FocusModeManual)
	}
	if len(modes) == 0 {
		modes = []focus.FocusMode{focus.FocusModeFixed}
	}

	caps := focus.Capabilities{
		SessionID:          uuid.NewString(),
		FocusModes:         modes,
		AeAwbLockSupported: ctrls.lock,
		LockAeAwbOnFocus:   ctrls.lock,
	}

	c.mu.Lock()
	c.ctrls = ctrls
	c.caps = caps
	c.searching = false
	c.moving = false
	if ctrls.absolute {
		c.focusPos = pos
	}
	c.mu.Unlock()

	c.logger.Info("probed focus controls",
		"session", caps.SessionID,
		"modes", modes,
		"af_status", ctrls.status,
		"focus_absolute", ctrls.absolute,
		"3a_lock", ctrls.lock,
	)
	return caps.Clone()
}

// Reconnect probes the device again and starts a new session. Use it after
// the driver was reloaded or the sensor mode changed.
func (c *Camera) Reconnect() focus.Capabilities {
	return c.probe()
}

// Capabilities returns what the device supports.
func (c *Camera) Capabilities() focus.Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps.Clone()
}

func (c *Camera) controls() controlSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctrls
}

// Attach sets the receiver of autofocus notifications.
func (c *Camera) Attach(cb focus.Callbacks) {
	c.mu.Lock()
	c.callbacks = cb
	c.mu.Unlock()
}

// Close releases the device.
func (c *Camera) Close() error {
	return c.dev.Close()
}

func (c *Camera) set(id uint32, value int32) {
	if err := c.dev.SetControl(id, value); err != nil {
		c.logger.Warn("control write failed", "error", err)
	}
}

func (c *Camera) RequestAutoFocus() {
	c.mu.Lock()
	c.searching = true
	c.mu.Unlock()
	c.set(CidAutoFocusStart, 1)
}

func (c *Camera) CancelAutoFocus() {
	c.mu.Lock()
	c.searching = false
	c.mu.Unlock()
	c.set(CidAutoFocusStop, 1)
}

func (c *Camera) RequestCapture() bool {
	if c.capture == nil {
		c.logger.Info("capture requested")
		return true
	}
	return c.capture()
}

// Face detection is not exposed by V4L2.
func (c *Camera) StartFaceDetection() {}
func (c *Camera) StopFaceDetection()  {}

// ApplyFocusParameters maps the focus mode onto FOCUS_AUTO and
// FOCUS_ABSOLUTE and the AE/AWB lock onto 3A_LOCK. Regions are ignored;
// V4L2 has no standard focus window control.
func (c *Camera) ApplyFocusParameters(p focus.Parameters) {
	ctrls := c.controls()
	if ctrls.auto {
		continuous := p.FocusMode == focus.FocusModeContinuousPicture ||
			p.FocusMode == focus.FocusModeContinuousVideo
		var v int32
		if continuous {
			v = 1
		}
		c.set(CidFocusAuto, v)
	}
	if ctrls.absolute && p.FocusMode == focus.FocusModeInfinity {
		c.mu.Lock()
		far := c.focusPos.Min
		c.mu.Unlock()
		c.set(CidFocusAbsolute, far)
	}
	if ctrls.lock {
		ctrl, err := c.dev.GetControl(Cid3ALock)
		if err != nil {
			c.logger.Warn("read 3A lock", "error", err)
			return
		}
		v := ctrl.Value &^ (LockExposure | LockWhiteBalance)
		if p.AeAwbLock {
			v |= LockExposure | LockWhiteBalance
		}
		if v != ctrl.Value {
			c.set(Cid3ALock, v)
		}
	}
}

func (c *Camera) SetUiFocusRatio(ratio float64) {
	c.mu.Lock()
	c.ratio = ratio
	c.mu.Unlock()
}

// Ratio returns the last lens ratio reported by the engine.
func (c *Camera) Ratio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ratio
}

// Lookup publishes the last polled FOCUS_ABSOLUTE reading under the v4l2
// metadata keys.
func (c *Camera) Lookup(key string) (string, bool) {
	c.mu.Lock()
	pos, ok := c.focusPos, c.ctrls.absolute
	c.mu.Unlock()
	if !ok {
		return "", false
	}
	switch key {
	case lens.V4L2Keys.Near:
		return strconv.Itoa(int(pos.Min)), true
	case lens.V4L2Keys.Far:
		return strconv.Itoa(int(pos.Max)), true
	case lens.V4L2Keys.Current:
		return strconv.Itoa(int(pos.Value)), true
	}
	return "", false
}

// Run polls the autofocus status until ctx is cancelled.
func (c *Camera) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.poll()
		}
	}
}

// poll reads the status once and emits at most one notification.
func (c *Camera) poll() {
	ctrls := c.controls()
	if ctrls.absolute {
		if ctrl, err := c.dev.GetControl(CidFocusAbsolute); err == nil {
			c.mu.Lock()
			c.focusPos = ctrl
			c.mu.Unlock()
		}
	}

	status := StatusReached
	if ctrls.status {
		ctrl, err := c.dev.GetControl(CidAutoFocusState)
		if err != nil {
			c.logger.Debug("read autofocus status", "error", err)
			return
		}
		status = ctrl.Value
	}

	var notify func(focus.Callbacks)
	c.mu.Lock()
	cb := c.callbacks
	switch {
	case c.searching:
		switch {
		case status&StatusReached != 0:
			c.searching = false
			notify = func(cb focus.Callbacks) { cb.AutoFocusDone(true) }
		case status&StatusFailed != 0:
			c.searching = false
			notify = func(cb focus.Callbacks) { cb.AutoFocusDone(false) }
		}
	case ctrls.status:
		busy := status&StatusBusy != 0
		if busy != c.moving {
			c.moving = busy
			notify = func(cb focus.Callbacks) { cb.AutoFocusMoving(busy) }
		}
	}
	c.mu.Unlock()

	if notify != nil && cb != nil {
		notify(cb)
	}
}

var (
	_ focus.Listener = (*Camera)(nil)
	_ lens.Metadata  = (*Camera)(nil)
)
