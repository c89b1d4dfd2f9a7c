package focus

import (
	"sync"
	"time"
)

// HistorySize is the number of transitions kept by a Machine.
const HistorySize = 64

// Transition records one state change.
type Transition struct {
	Event string    `json:"event"`
	From  State     `json:"from"`
	To    State     `json:"to"`
	At    time.Time `json:"at"`
}

// History is a fixed-size ring of transitions, safe for concurrent readers.
type History struct {
	mu   sync.RWMutex
	buf  []Transition
	head int
	size int
}

// NewHistory creates a ring holding up to capacity transitions.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Transition, capacity)}
}

// Add appends a transition, evicting the oldest when full.
func (h *History) Add(t Transition) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf[h.head] = t
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// All returns the transitions oldest first.
func (h *History) All() []Transition {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.size == 0 {
		return nil
	}
	out := make([]Transition, h.size)
	start := (h.head - h.size + len(h.buf)) % len(h.buf)
	for i := range out {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}

// Len returns the number of stored transitions.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}
