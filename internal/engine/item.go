package engine

import "github.com/dgallion1/outlined/internal/outline"

// State classifies an item relative to the tracked cursor position.
type State int

const (
	StatePlain State = iota
	StateActive
	StateAncestor
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateAncestor:
		return "ancestor"
	default:
		return "plain"
	}
}

// untitledLabel is shown for headings whose text is empty.
const untitledLabel = "(untitled)"

// Item is the view-facing representation of an outline node. The engine
// returns the same Item instance for the same node as long as the node's
// classification is unchanged, so a host widget can key expansion and
// selection state off item identity across refreshes.
type Item struct {
	node  *outline.Node
	state State

	// Label is the heading text, or a placeholder when it is empty.
	Label string

	// Expanded is the engine's expansion directive for the item: nodes
	// with children default to expanded, and a node that enters the
	// active path is handed out as a fresh (hence expanded) item even if
	// the host had collapsed its predecessor.
	Expanded bool
}

func newItem(n *outline.Node, state State) *Item {
	label := n.Text
	if label == "" {
		label = untitledLabel
	}
	return &Item{
		node:     n,
		state:    state,
		Label:    label,
		Expanded: len(n.Children) > 0,
	}
}

// Node returns the outline node backing this item.
func (it *Item) Node() *outline.Node { return it.node }

// ID returns the build-time id of the backing node. Filtered copies keep
// the id of their source node, so ids are stable across filter changes.
func (it *Item) ID() int { return it.node.ID }

// State returns the item's classification.
func (it *Item) State() State { return it.state }

// Level returns the heading level of the backing node.
func (it *Item) Level() int { return it.node.Level }

// Pos returns the document offset of the backing heading.
func (it *Item) Pos() int { return it.node.Pos }

// HasChildren reports whether the item has child items in the currently
// installed forest.
func (it *Item) HasChildren() bool { return len(it.node.Children) > 0 }
