// focusd runs the camera focus coordination engine against a simulated or
// V4L2 camera and serves the control API and indicator stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/daemon"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	log.Setup(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger := log.With("component", "focusd", "pid", os.Getpid())
	log.Info("focus daemon starting",
		"backend", cfg.Hardware.Backend,
		"port", cfg.Server.Port,
		"touch", cfg.Input.TouchDevice,
		"button", cfg.Input.ButtonPin)

	app, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(2)
	}
	if err := app.Init(); err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
}

// parseFlags loads the config file and applies command line overrides.
// Precedence: flags, then FOCUS_* environment, then file, then defaults.
func parseFlags() (*config.File, error) {
	configPath := flag.String("config", "", "Path to YAML config file")
	hardware := flag.String("hardware", "", "Camera backend: sim or v4l2")
	device := flag.String("device", "", "V4L2 device node (default /dev/video0)")
	port := flag.String("port", "", "Control API port (default "+config.DefaultPort+")")
	touch := flag.String("touch", "", "evdev touch device, e.g. /dev/input/event2")
	button := flag.String("button", "", "GPIO pin for the shutter button, e.g. GPIO17")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *hardware != "" {
		cfg.Hardware.Backend = *hardware
	}
	if *device != "" {
		cfg.Hardware.Device = *device
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *touch != "" {
		cfg.Input.TouchDevice = *touch
	}
	if *button != "" {
		cfg.Input.ButtonPin = *button
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	return cfg, cfg.Validate()
}
