package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/protocol"
)

// Handler receives a parsed message sent by a client
type Handler func(c *Client, msg *protocol.Message)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name   string
	logger *slog.Logger

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Messages addressed to a single client
	replies chan reply

	// Called from each client's read pump
	handler Handler

	mu sync.RWMutex

	done chan struct{}
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	return &Hub{
		name:       name,
		logger:     log.Or(logger, "hub").With("hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		replies:    make(chan reply),
		done:       make(chan struct{}),
	}
}

// OnMessage sets the handler for client messages. Call before Run.
func (h *Hub) OnMessage(fn Handler) {
	h.handler = fn
}

// Run starts the hub's main loop and returns when ctx is cancelled.
// All client send channels are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "clients", count)

		case r := <-h.replies:
			h.mu.RLock()
			ok := h.clients[r.client]
			h.mu.RUnlock()
			if ok {
				select {
				case r.client.send <- r.msg:
				default:
					ok = false
				}
			}
			r.result <- ok

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full, drop it
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client", "type", message.Type)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Done is closed when Run returns
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "type", msg.Type)
	}
}

// BroadcastMessage encodes and broadcasts a protocol message
func (h *Hub) BroadcastMessage(msg *protocol.Message, err error) {
	if err != nil {
		h.logger.Error("build message", "error", err)
		return
	}
	m, err := Encode(msg)
	if err != nil {
		h.logger.Error("encode message", "type", msg.Type, "error", err)
		return
	}
	h.Broadcast(m)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// reply is a message for one client. result receives whether it was queued.
type reply struct {
	client *Client
	msg    Message
	result chan bool
}

// send queues msg for c through the hub loop. It reports false when the
// hub has stopped, c is no longer registered, or its buffer is full.
func (h *Hub) send(c *Client, msg Message) bool {
	r := reply{client: c, msg: msg, result: make(chan bool, 1)}
	select {
	case h.replies <- r:
	case <-h.done:
		return false
	}
	return <-r.result
}

// attach registers c unless the hub has stopped
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// detach unregisters c unless the hub has stopped
func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
