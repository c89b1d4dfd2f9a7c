// Package daemon wires the focus engine to a camera backend, the control
// API and the physical inputs.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/focus"
	"github.com/teslashibe/go-focus/pkg/hub"
	"github.com/teslashibe/go-focus/pkg/input"
	"github.com/teslashibe/go-focus/pkg/web"
)

// applyTimeout bounds a camera settings push into the engine.
const applyTimeout = 2 * time.Second

// App is the focus daemon.
// It manages all components and their lifecycle.
type App struct {
	config *config.File
	logger *slog.Logger

	// Hardware
	backend      Backend
	closeBackend func() error

	// Focus
	engine  *focus.Engine
	camera  *camera.Manager
	started chan struct{}

	// Control surface
	server *web.Server
	hub    *hub.Hub

	// Optional inputs
	touch  *input.Touch
	button *input.Button
}

// New creates the daemon from a validated configuration.
func New(cfg *config.File, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{
		config:  cfg,
		logger:  log.Or(logger, "daemon"),
		started: make(chan struct{}),
	}, nil
}

// Init opens the hardware and builds every component.
// Call this after New() and before Run().
func (a *App) Init() error {
	backend, closeBackend, err := openBackend(a.config.Hardware, a.logger)
	if err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	a.backend, a.closeBackend = backend, closeBackend

	a.hub = hub.New("indicator", a.logger.With("component", "hub"))
	indicator := web.NewIndicator(a.hub)

	engine, err := focus.NewEngine(focus.Options{
		Config:       a.config.Focus,
		Capabilities: backend.Capabilities(),
		Listener:     web.TeeRatio(backend, indicator),
		Indicator:    indicator,
		Preferences:  a.config.Preferences,
		Metadata:     backend,
		Logger:       a.logger.With("component", "focus"),
	})
	if err != nil {
		a.closeBackend()
		return fmt.Errorf("focus engine: %w", err)
	}
	a.engine = engine
	backend.Attach(engine)

	a.camera = camera.NewManagerWithConfig(a.config.Camera)
	a.camera.OnConfigChange = func(cfg camera.Config) error {
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		defer cancel()
		return camera.Apply(ctx, a.engine, cfg)
	}

	a.server = web.NewServer(web.Options{
		Port:      a.config.Server.Port,
		Engine:    engine,
		Hub:       a.hub,
		Camera:    a.camera,
		Session:   backend,
		StaticDir: a.config.Server.StaticDir,
		Logger:    a.logger.With("component", "web"),
	})

	a.initInputs()
	return nil
}

// initInputs opens the optional touch device and shutter button. Failures
// are logged; the daemon stays usable through the API.
func (a *App) initInputs() {
	in := a.config.Input
	if in.TouchDevice != "" {
		t, err := input.OpenTouch(in.TouchDevice, a.config.Camera.PreviewBounds(), in.Grab, a.logger.With("component", "touch"))
		if err != nil {
			a.logger.Warn("touch input disabled", "device", in.TouchDevice, "error", err)
		} else {
			a.touch = t
		}
	}
	if in.ButtonPin != "" {
		b, err := input.OpenButton(in.ButtonPin, a.logger.With("component", "button"))
		if err != nil {
			a.logger.Warn("shutter button disabled", "pin", in.ButtonPin, "error", err)
		} else {
			a.button = b
		}
	}
}

// Engine returns the focus engine. Valid after Init.
func (a *App) Engine() *focus.Engine {
	return a.engine
}

// Started is closed once the engine runs with the camera settings applied.
func (a *App) Started() <-chan struct{} {
	return a.started
}

// Run starts every component and blocks until ctx is cancelled or the
// control API fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errc := make(chan error, 5) // one per component
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errc <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	start("engine", a.engine.Run)
	if err := a.prepare(ctx); err != nil {
		cancel()
		wg.Wait()
		return err
	}
	close(a.started)

	start("hardware", a.backend.Run)
	start("web", a.server.Run)
	if a.touch != nil {
		start("touch", func(ctx context.Context) error { return a.touch.Run(ctx, a.engine) })
	}
	if a.button != nil {
		start("button", func(ctx context.Context) error { return a.button.Run(ctx, a.engine) })
	}

	a.logger.Info("focus daemon running",
		"hardware", a.config.Hardware.Backend,
		"port", a.config.Server.Port,
		"touch", a.touch != nil,
		"button", a.button != nil,
	)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
		a.logger.Error("component failed", "error", runErr)
	}
	cancel()
	wg.Wait()
	return runErr
}

// prepare pushes the configured camera settings and starts the preview.
func (a *App) prepare(ctx context.Context) error {
	if err := camera.Apply(ctx, a.engine, a.camera.GetConfig()); err != nil {
		return fmt.Errorf("apply camera settings: %w", err)
	}
	if err := a.engine.OnPreviewStarted(ctx); err != nil {
		return fmt.Errorf("start preview: %w", err)
	}
	return nil
}

// Shutdown releases hardware resources.
func (a *App) Shutdown() {
	if a.touch != nil {
		a.touch.Close()
	}
	if a.closeBackend != nil {
		if err := a.closeBackend(); err != nil {
			a.logger.Warn("close hardware", "error", err)
		}
	}
	a.logger.Info("focus daemon stopped")
}
