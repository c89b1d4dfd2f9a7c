package web

import (
	"github.com/teslashibe/go-focus/pkg/focus"
	"github.com/teslashibe/go-focus/pkg/hub"
	"github.com/teslashibe/go-focus/pkg/protocol"
)

// Indicator renders the focus indicator by broadcasting protocol
// messages to websocket clients.
type Indicator struct {
	hub *hub.Hub
}

// NewIndicator creates an indicator that publishes on h.
func NewIndicator(h *hub.Hub) *Indicator {
	return &Indicator{hub: h}
}

func (i *Indicator) SetPosition(x, y int) {
	i.hub.BroadcastMessage(protocol.NewPositionMessage(x, y))
}

func (i *Indicator) FocusStarted(passive bool) {
	i.hub.BroadcastMessage(protocol.NewFocusStartedMessage(passive))
}

func (i *Indicator) FocusSucceeded(passive bool) {
	i.hub.BroadcastMessage(protocol.NewFocusSucceededMessage(passive))
}

func (i *Indicator) FocusFailed() {
	i.hub.BroadcastMessage(protocol.NewFocusFailedMessage())
}

func (i *Indicator) Clear() {
	i.hub.BroadcastMessage(protocol.NewFocusClearedMessage())
}

// SetFocusRatio publishes the lens position for the focus ring.
func (i *Indicator) SetFocusRatio(ratio float64) {
	i.hub.BroadcastMessage(protocol.NewRatioMessage(ratio))
}

var _ focus.Indicator = (*Indicator)(nil)

// ratioTee forwards every command to the wrapped listener and also
// publishes lens position updates to indicator clients.
type ratioTee struct {
	focus.Listener
	ind *Indicator
}

// TeeRatio wraps l so that SetUiFocusRatio also reaches ind.
func TeeRatio(l focus.Listener, ind *Indicator) focus.Listener {
	return &ratioTee{Listener: l, ind: ind}
}

func (t *ratioTee) SetUiFocusRatio(ratio float64) {
	t.Listener.SetUiFocusRatio(ratio)
	t.ind.SetFocusRatio(ratio)
}
