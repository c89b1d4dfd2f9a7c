package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewPositionMessage creates an indicator position message
func NewPositionMessage(x, y int) (*Message, error) {
	return NewMessage(TypeFocusPosition, PositionData{X: x, Y: y})
}

// NewFocusStartedMessage creates a focus started message
func NewFocusStartedMessage(passive bool) (*Message, error) {
	return NewMessage(TypeFocusStarted, FocusData{Passive: passive})
}

// NewFocusSucceededMessage creates a focus succeeded message
func NewFocusSucceededMessage(passive bool) (*Message, error) {
	return NewMessage(TypeFocusSucceeded, FocusData{Passive: passive})
}

// NewFocusFailedMessage creates a focus failed message
func NewFocusFailedMessage() (*Message, error) {
	return NewMessage(TypeFocusFailed, nil)
}

// NewFocusClearedMessage creates an indicator cleared message
func NewFocusClearedMessage() (*Message, error) {
	return NewMessage(TypeFocusCleared, nil)
}

// NewRatioMessage creates a lens position message
func NewRatioMessage(ratio float64) (*Message, error) {
	return NewMessage(TypeFocusRatio, RatioData{Ratio: ratio})
}

// NewStateMessage creates a state change message
func NewStateMessage(state, previous string, focusComplete bool) (*Message, error) {
	return NewMessage(TypeState, StateData{
		State:         state,
		Previous:      previous,
		FocusComplete: focusComplete,
	})
}

// NewCaptureMessage creates a capture outcome message
func NewCaptureMessage(outcome string) (*Message, error) {
	return NewMessage(TypeCapture, CaptureData{Outcome: outcome})
}

// NewTouchMessage creates a tap message
func NewTouchMessage(x, y int) (*Message, error) {
	return NewMessage(TypeTouch, TouchData{X: x, Y: y})
}

// NewShutterMessage creates a shutter action message
func NewShutterMessage(action string) (*Message, error) {
	return NewMessage(TypeShutter, ShutterData{Action: action})
}

// NewErrorMessage creates an error reply to the request with ID requestID
func NewErrorMessage(requestID, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{RequestID: requestID, Message: message})
}
