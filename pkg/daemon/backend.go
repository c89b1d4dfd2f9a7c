package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/pkg/focus"
	"github.com/teslashibe/go-focus/pkg/hardware/sim"
	"github.com/teslashibe/go-focus/pkg/hardware/v4l2cam"
	"github.com/teslashibe/go-focus/pkg/lens"
)

// Backend is a camera the focus engine drives.
// The interface is defined where it's consumed, not where implemented.
type Backend interface {
	focus.Listener
	lens.Metadata

	// Capabilities describes the current hardware session.
	Capabilities() focus.Capabilities

	// Attach sets the receiver of autofocus notifications.
	Attach(cb focus.Callbacks)

	// Reconnect starts a new hardware session.
	Reconnect() focus.Capabilities

	// Run services the hardware until ctx is cancelled.
	Run(ctx context.Context) error
}

var (
	_ Backend = (*sim.Camera)(nil)
	_ Backend = (*v4l2cam.Camera)(nil)
)

// openBackend builds the backend named in cfg. The returned close
// function is never nil.
func openBackend(cfg config.Hardware, logger *slog.Logger) (Backend, func() error, error) {
	switch cfg.Backend {
	case "sim":
		cam := sim.New(sim.Options{
			Latency:         cfg.SimLatency,
			PassiveInterval: cfg.SimPassiveInterval,
			Logger:          logger.With("component", "sim"),
		})
		return cam, func() error { return nil }, nil
	case "v4l2":
		cam, err := v4l2cam.Open(v4l2cam.Options{
			Device: cfg.Device,
			Logger: logger.With("component", "v4l2cam"),
		})
		if err != nil {
			return nil, nil, err
		}
		return cam, cam.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown hardware backend %q", cfg.Backend)
	}
}
