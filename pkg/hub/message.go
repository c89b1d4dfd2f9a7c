// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "github.com/teslashibe/go-focus/pkg/protocol"

// Message is a pre-encoded text frame queued for clients
type Message struct {
	Type protocol.MessageType // For logging only
	Data []byte
}

// Encode turns a protocol message into a hub message
func Encode(msg *protocol.Message) (Message, error) {
	data, err := msg.Bytes()
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msg.Type, Data: data}, nil
}
