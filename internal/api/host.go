package api

import (
	"github.com/dgallion1/outlined/internal/engine"
	"github.com/dgallion1/outlined/internal/sse"
)

// EventHost implements engine.Host by broadcasting SSE events. Remote
// tree views listen on /api/events, re-fetch the outline on
// outline.refresh, and scroll to the named item on outline.reveal.
type EventHost struct {
	broker *sse.Broker
}

func NewEventHost(broker *sse.Broker) *EventHost {
	return &EventHost{broker: broker}
}

func (h *EventHost) Refresh() {
	h.broker.Publish(sse.Event{Type: "outline.refresh", Data: struct{}{}})
}

type revealPayload struct {
	ID     int  `json:"id"`
	Select bool `json:"select"`
	Focus  bool `json:"focus"`
	Expand bool `json:"expand"`
}

func (h *EventHost) Reveal(item *engine.Item, opts engine.RevealOptions) error {
	h.broker.Publish(sse.Event{Type: "outline.reveal", Data: revealPayload{
		ID:     item.ID(),
		Select: opts.Select,
		Focus:  opts.Focus,
		Expand: opts.Expand,
	}})
	return nil
}
