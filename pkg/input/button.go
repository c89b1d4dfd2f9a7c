package input

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/teslashibe/go-focus/internal/log"
)

// Button defaults.
const (
	DefaultDebounce = 20 * time.Millisecond
	edgeTimeout     = 100 * time.Millisecond
)

// edgePin is the part of a periph GPIO pin the button reads.
type edgePin interface {
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
}

// Button is a two-stage shutter wired to a GPIO pin, active low. Pressing
// it half-presses the shutter; releasing it takes the picture and then
// releases the shutter.
type Button struct {
	pin      edgePin
	name     string
	debounce time.Duration
	logger   *slog.Logger
}

// OpenButton initialises the periph host drivers and configures pin name
// (for example "GPIO17") as a pulled-up input with edge detection.
func OpenButton(name string, logger *slog.Logger) (*Button, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("configure %s: %w", name, err)
	}
	return newButton(pin, name, logger), nil
}

func newButton(pin edgePin, name string, logger *slog.Logger) *Button {
	return &Button{
		pin:      pin,
		name:     name,
		debounce: DefaultDebounce,
		logger:   log.Or(logger, "input").With("pin", name),
	}
}

// Run watches the pin until ctx is cancelled.
func (b *Button) Run(ctx context.Context, target Target) error {
	pressed := b.pin.Read() == gpio.Low
	b.logger.Info("shutter button ready", "pressed", pressed)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !b.pin.WaitForEdge(edgeTimeout) {
			continue
		}
		if b.debounce > 0 {
			time.Sleep(b.debounce)
		}
		now := b.pin.Read() == gpio.Low
		if now == pressed {
			continue
		}
		pressed = now
		for _, a := range buttonActions(pressed) {
			if err := Dispatch(ctx, target, a); err != nil {
				b.logger.Warn("dispatch failed", "action", a.Kind, "error", err)
			}
		}
	}
}

// buttonActions maps a settled button level onto engine actions.
func buttonActions(pressed bool) []Action {
	if pressed {
		return []Action{{Kind: ActionShutterDown}}
	}
	return []Action{{Kind: ActionCapture}, {Kind: ActionShutterUp}}
}
