package focus

import "errors"

// Sentinel errors for the focus package.
var (
	// ErrStopped indicates the engine loop has exited.
	ErrStopped = errors.New("focus: engine stopped")

	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("focus: engine already running")

	// ErrInvalidConfig indicates a config value out of range.
	ErrInvalidConfig = errors.New("focus: invalid config")

	// ErrNoListener indicates the engine was built without a hardware listener.
	ErrNoListener = errors.New("focus: listener is required")
)
