// Package protocol defines the WebSocket message types exchanged between the
// focus daemon and indicator clients (UI overlays, focusctl watch).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Daemon → client messages
	TypeFocusPosition  MessageType = "focus_position"  // Indicator moved to a tap
	TypeFocusStarted   MessageType = "focus_started"   // Focus animation started
	TypeFocusSucceeded MessageType = "focus_succeeded" // Focus locked
	TypeFocusFailed    MessageType = "focus_failed"    // Focus search failed
	TypeFocusCleared   MessageType = "focus_cleared"   // Indicator removed
	TypeFocusRatio     MessageType = "focus_ratio"     // Live lens position
	TypeState          MessageType = "state"           // Focus state changed
	TypeCapture        MessageType = "capture"         // Capture outcome

	// Client → daemon messages
	TypeTouch   MessageType = "touch"   // Tap on the preview
	TypeShutter MessageType = "shutter" // Shutter button action

	// Bidirectional
	TypeError MessageType = "error" // Request could not be handled
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	ID        string          `json:"id,omitempty"`
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with a fresh ID and the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Daemon → Client Message Types
// =============================================================================

// PositionData places the focus indicator, in view pixels.
type PositionData struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FocusData describes a focus indicator animation.
type FocusData struct {
	Passive bool `json:"passive"` // Continuous autofocus, not a tap or half-press
}

// RatioData carries the lens position for the focus ring.
type RatioData struct {
	Ratio float64 `json:"ratio"` // 0 = near end, 1 = far end
}

// StateData reports a focus state change.
type StateData struct {
	State         string `json:"state"`
	Previous      string `json:"previous,omitempty"`
	FocusComplete bool   `json:"focus_complete"`
}

// CaptureData reports the outcome of a capture request.
type CaptureData struct {
	Outcome string `json:"outcome"` // "taken", "deferred", "rejected", "ignored"
}

// =============================================================================
// Client → Daemon Message Types
// =============================================================================

// TouchData is a tap in view pixels.
type TouchData struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Shutter actions.
const (
	ShutterDown    = "down"
	ShutterUp      = "up"
	ShutterCapture = "capture"
)

// ShutterData is a shutter button action.
type ShutterData struct {
	Action string `json:"action"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// ErrorData explains a rejected request.
type ErrorData struct {
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message"`
}
