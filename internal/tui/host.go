// Package tui is a terminal tree-view host for the outline engine,
// built on bubbletea.
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgallion1/outlined/internal/engine"
)

// RefreshMsg tells the model to re-read the engine's visible forest.
type RefreshMsg struct{}

// RevealMsg tells the model to bring an item into view.
type RevealMsg struct {
	ID   int
	Opts engine.RevealOptions
}

// Host implements engine.Host by sending messages into a bubbletea
// program. The engine is created before the program exists, so signals
// that arrive before Attach are buffered and flushed once the program
// is up.
type Host struct {
	mu      sync.Mutex
	prog    *tea.Program
	pending []tea.Msg
}

func NewHost() *Host {
	return &Host{}
}

// Attach binds the running program and flushes buffered signals.
func (h *Host) Attach(p *tea.Program) {
	h.mu.Lock()
	h.prog = p
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, msg := range pending {
		p.Send(msg)
	}
}

func (h *Host) send(msg tea.Msg) {
	h.mu.Lock()
	if h.prog == nil {
		h.pending = append(h.pending, msg)
		h.mu.Unlock()
		return
	}
	p := h.prog
	h.mu.Unlock()
	p.Send(msg)
}

func (h *Host) Refresh() {
	h.send(RefreshMsg{})
}

func (h *Host) Reveal(item *engine.Item, opts engine.RevealOptions) error {
	h.send(RevealMsg{ID: item.ID(), Opts: opts})
	return nil
}
