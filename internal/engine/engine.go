// Package engine is the view adapter between the outline tree and an
// external tree-view host. It owns all outline state (forest, parent
// maps, active path, item cache) and mutates it only from its own
// methods; hosts observe it through Children/Parent and the refresh
// notification.
package engine

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/outlined/internal/outline"
)

// DefaultRevealDelay separates a render pass from the reveal that
// follows it: the host needs root items to exist before it can locate a
// nested one.
const DefaultRevealDelay = 50 * time.Millisecond

// RevealOptions control how the host surfaces an item.
type RevealOptions struct {
	Select bool `json:"select"`
	Focus  bool `json:"focus"`
	Expand bool `json:"expand"`
}

// Host is the tree-view capability the engine drives. Refresh is a
// parameterless "something changed" signal; Reveal scrolls to, expands
// ancestors of, and optionally selects an item. A failing or panicking
// Reveal is swallowed at this boundary — failing to reveal is cosmetic.
type Host interface {
	Refresh()
	Reveal(item *Item, opts RevealOptions) error
}

// Navigator receives jump-to-offset intents when an item is activated.
type Navigator interface {
	JumpTo(offset int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRevealDelay overrides the deferred-reveal delay.
func WithRevealDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.revealDelay = d
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine holds one document's outline state. Construct explicitly with
// New and inject wherever the host capability is registered; there is no
// package-level instance.
type Engine struct {
	mu sync.Mutex

	host        Host
	nav         Navigator
	log         *slog.Logger
	revealDelay time.Duration

	tree *outline.Tree

	filterTerm      string
	filterActive    bool
	filtered        []*outline.Node
	filteredParents map[*outline.Node]*outline.Node

	cursor    int
	hasCursor bool
	active    *outline.Node
	ancestors map[*outline.Node]bool

	items map[*outline.Node]*Item

	revealGen   uint64
	revealTimer *time.Timer
}

// New creates an engine bound to a host capability and a navigation
// sink. Either may be nil, in which case the corresponding outbound
// signals are dropped.
func New(host Host, nav Navigator, opts ...Option) *Engine {
	e := &Engine{
		host:        host,
		nav:         nav,
		log:         slog.Default(),
		revealDelay: DefaultRevealDelay,
		items:       make(map[*outline.Node]*Item),
		ancestors:   make(map[*outline.Node]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetOutline replaces the heading list. The tree is rebuilt in full, the
// active filter is re-applied to the new tree, the active path is
// recomputed, and the host is asked to re-render. A malformed list is
// rejected before any state changes.
func (e *Engine) SetOutline(entries []outline.Entry) error {
	tree, err := outline.Build(entries)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.tree = tree
	e.items = make(map[*outline.Node]*Item)
	e.applyFilterLocked()
	e.relocateLocked()
	e.mu.Unlock()

	e.refresh()
	return nil
}

// SetActiveSelection updates the tracked cursor offset, recomputes the
// active path, asks the host to re-render, and schedules a deferred
// reveal of the active item. An offset outside every section range
// simply yields no active node. Reporting the already-tracked offset
// again is a no-op: the active path cannot have changed, so nothing is
// recomputed and no new reveal is armed.
func (e *Engine) SetActiveSelection(offset int) {
	e.mu.Lock()
	if e.hasCursor && offset == e.cursor {
		e.mu.Unlock()
		return
	}
	e.cursor = offset
	e.hasCursor = true
	e.relocateLocked()
	hasActive := e.active != nil
	e.mu.Unlock()

	e.refresh()
	if hasActive {
		e.scheduleReveal()
	}
}

// ClearSelection drops the tracked cursor; no node is active afterwards.
// A pending reveal is superseded and will not fire.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	e.hasCursor = false
	e.relocateLocked()
	e.revealGen++
	if e.revealTimer != nil {
		e.revealTimer.Stop()
	}
	e.mu.Unlock()

	e.refresh()
}

// SetFilter installs a filter term. An empty or whitespace-only term
// clears the filter. A term that is effectively unchanged (equal after
// trimming) is a no-op: the visible forest and every classification are
// the same, so cached items keep their identity and no refresh fires.
// When the term does change, the filtered forest is made of copies, so
// the item cache is cleared wholesale.
func (e *Engine) SetFilter(term string) {
	e.mu.Lock()
	if strings.TrimSpace(term) == strings.TrimSpace(e.filterTerm) {
		e.filterTerm = term
		e.mu.Unlock()
		return
	}
	e.filterTerm = term
	e.items = make(map[*outline.Node]*Item)
	e.applyFilterLocked()
	e.relocateLocked()
	e.mu.Unlock()

	e.refresh()
}

// ClearFilter removes the filter term.
func (e *Engine) ClearFilter() {
	e.SetFilter("")
}

// FilterTerm returns the currently installed filter term.
func (e *Engine) FilterTerm() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filterTerm
}

// Children returns rendered items for the children of parent, or for the
// forest roots when parent is nil. Item identity is reused when the node
// instance and its classification are unchanged.
func (e *Engine) Children(parent *Item) []*Item {
	e.mu.Lock()
	defer e.mu.Unlock()

	var nodes []*outline.Node
	if parent == nil {
		nodes = e.forestLocked()
	} else {
		nodes = parent.node.Children
	}

	items := make([]*Item, len(nodes))
	for i, n := range nodes {
		items[i] = e.itemLocked(n)
	}
	return items
}

// Parent returns the rendered item for the parent of item in the
// currently installed forest (filtered or not), creating it if it has
// never been rendered. Returns nil for roots.
func (e *Engine) Parent(item *Item) *Item {
	if item == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var p *outline.Node
	if e.filterActive {
		p = e.filteredParents[item.node]
	} else if e.tree != nil {
		p = e.tree.Parent(item.node)
	}
	if p == nil {
		return nil
	}
	return e.itemLocked(p)
}

// ItemByID finds the rendered item whose backing node carries the given
// build id in the currently installed forest, or nil.
func (e *Engine) ItemByID(id int) *Item {
	e.mu.Lock()
	defer e.mu.Unlock()

	var find func(nodes []*outline.Node) *outline.Node
	find = func(nodes []*outline.Node) *outline.Node {
		for _, n := range nodes {
			if n.ID == id {
				return n
			}
			if found := find(n.Children); found != nil {
				return found
			}
		}
		return nil
	}
	n := find(e.forestLocked())
	if n == nil {
		return nil
	}
	return e.itemLocked(n)
}

// Activate emits a jump-to-offset intent for the item's heading.
func (e *Engine) Activate(item *Item) {
	if item == nil || e.nav == nil {
		return
	}
	e.nav.JumpTo(item.node.Pos)
}

// Stats is a point-in-time summary of engine state.
type Stats struct {
	Headings   int    `json:"headings"`
	Visible    int    `json:"visible"`
	FilterTerm string `json:"filter_term,omitempty"`
	ActiveID   int    `json:"active_id"` // -1 when no node is active
}

// Snapshot returns current engine statistics.
func (e *Engine) Snapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Stats{FilterTerm: e.filterTerm, ActiveID: -1}
	if e.tree != nil {
		st.Headings = e.tree.Len()
	}
	var count func(nodes []*outline.Node) int
	count = func(nodes []*outline.Node) int {
		n := len(nodes)
		for _, c := range nodes {
			n += count(c.Children)
		}
		return n
	}
	st.Visible = count(e.forestLocked())
	if e.active != nil {
		st.ActiveID = e.active.ID
	}
	return st
}

// forestLocked returns the roots the host should currently see.
func (e *Engine) forestLocked() []*outline.Node {
	if e.filterActive {
		return e.filtered
	}
	if e.tree != nil {
		return e.tree.Roots
	}
	return nil
}

func (e *Engine) applyFilterLocked() {
	if e.tree == nil || strings.TrimSpace(e.filterTerm) == "" {
		e.filterActive = false
		e.filtered, e.filteredParents = nil, nil
		return
	}
	e.filterActive = true
	e.filtered, e.filteredParents = outline.Filter(e.tree.Roots, e.filterTerm)
}

// relocateLocked recomputes the active node and ancestor set. It runs
// only when the cursor, the tree, or the filter changes — never per
// render.
func (e *Engine) relocateLocked() {
	if !e.hasCursor {
		e.active, e.ancestors = nil, make(map[*outline.Node]bool)
	} else {
		e.active, e.ancestors = outline.Locate(e.forestLocked(), e.cursor)
	}

	// Drop cached items whose classification changed so the host gets
	// fresh instances for them on the next render.
	for n, it := range e.items {
		if it.state != e.stateLocked(n) {
			delete(e.items, n)
		}
	}
}

func (e *Engine) stateLocked(n *outline.Node) State {
	switch {
	case n == e.active:
		return StateActive
	case e.ancestors[n]:
		return StateAncestor
	default:
		return StatePlain
	}
}

func (e *Engine) itemLocked(n *outline.Node) *Item {
	st := e.stateLocked(n)
	if it, ok := e.items[n]; ok && it.state == st {
		return it
	}
	it := newItem(n, st)
	e.items[n] = it
	return it
}

// refresh fires the host's re-render notification outside the engine
// lock, since hosts commonly call straight back into Children.
func (e *Engine) refresh() {
	if e.host == nil {
		return
	}
	e.host.Refresh()
}

// scheduleReveal arms the deferred reveal. Only one reveal can be
// pending; a newer request supersedes an unfired older one, and the
// fired callback reads the active item at fire time, so it never
// observes state older than the request that scheduled it.
func (e *Engine) scheduleReveal() {
	e.mu.Lock()
	e.revealGen++
	gen := e.revealGen
	if e.revealTimer != nil {
		e.revealTimer.Stop()
	}
	e.revealTimer = time.AfterFunc(e.revealDelay, func() {
		e.fireReveal(gen)
	})
	e.mu.Unlock()
}

func (e *Engine) fireReveal(gen uint64) {
	e.mu.Lock()
	if gen != e.revealGen || e.active == nil || e.host == nil {
		e.mu.Unlock()
		return
	}
	item := e.itemLocked(e.active)
	host := e.host
	e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.log.Debug("reveal panicked", "panic", r)
		}
	}()
	if err := host.Reveal(item, RevealOptions{Select: true, Expand: true}); err != nil {
		e.log.Debug("reveal failed", "error", err)
	}
}
