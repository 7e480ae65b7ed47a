package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/outlined/internal/engine"
)

// row is one visible line of the tree: an item plus its render depth.
type row struct {
	item  *engine.Item
	depth int
}

// Model is the bubbletea model for the outline tree view.
//
// Expansion state is keyed by item identity: the engine hands back the
// same *Item for a node as long as its classification is unchanged, so
// a user's collapse survives refreshes, while a node that enters the
// active path arrives as a fresh item and is expanded again.
type Model struct {
	eng   *engine.Engine
	title string

	rows   []row
	cursor int

	// Per-item overrides of the engine's expansion directive.
	expanded map[*engine.Item]bool

	filterInput textinput.Model
	filtering   bool

	width  int
	height int
	offset int

	styleActive   lipgloss.Style
	styleAncestor lipgloss.Style
	stylePlain    lipgloss.Style
	styleMuted    lipgloss.Style
	styleSelected lipgloss.Style
}

func NewModel(eng *engine.Engine, title string) Model {
	ti := textinput.New()
	ti.Placeholder = "filter headings"
	ti.Prompt = "/ "
	ti.CharLimit = 128

	m := Model{
		eng:         eng,
		title:       title,
		expanded:    make(map[*engine.Item]bool),
		filterInput: ti,
		width:       80,
		height:      24,

		styleActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		styleAncestor: lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		stylePlain:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		styleMuted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		styleSelected: lipgloss.NewStyle().Background(lipgloss.Color("236")).Bold(true),
	}
	m.rebuildRows()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case RefreshMsg:
		m.rebuildRows()
		return m, nil

	case RevealMsg:
		m.reveal(msg)
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFiltering(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.cursor = 0
		m.syncSelection()
		m.ensureVisible()
	case "G", "end":
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
			m.syncSelection()
			m.ensureVisible()
		}

	case " ", "tab":
		m.toggleExpand()

	case "enter":
		if it := m.selectedItem(); it != nil {
			m.eng.Activate(it)
		}

	case "/":
		m.filtering = true
		m.filterInput.SetValue(m.eng.FilterTerm())
		m.filterInput.Focus()
		return m, textinput.Blink

	case "esc":
		if m.eng.FilterTerm() != "" {
			m.eng.ClearFilter()
		}
	}
	return m, nil
}

func (m Model) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filterInput.Blur()
		m.eng.ClearFilter()
		return m, nil
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	// The engine re-filters on every keystroke; the refresh signal
	// comes back as a RefreshMsg.
	m.eng.SetFilter(m.filterInput.Value())
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.syncSelection()
	m.ensureVisible()
}

// syncSelection reports the cursor row's heading offset as the tracked
// document position.
func (m *Model) syncSelection() {
	if it := m.selectedItem(); it != nil {
		m.eng.SetActiveSelection(it.Pos())
	}
}

func (m *Model) selectedItem() *engine.Item {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].item
}

func (m *Model) isExpanded(it *engine.Item) bool {
	if v, ok := m.expanded[it]; ok {
		return v
	}
	return it.Expanded
}

func (m *Model) toggleExpand() {
	it := m.selectedItem()
	if it == nil || !it.HasChildren() {
		return
	}
	m.expanded[it] = !m.isExpanded(it)
	m.rebuildRows()
}

// rebuildRows flattens the engine's visible forest into display rows,
// keeping the cursor on the same heading when it survives the rebuild.
// Matching is by node id: a reclassified heading comes back as a fresh
// item, but it is still the same heading to the user.
func (m *Model) rebuildRows() {
	prevID := -1
	if it := m.selectedItem(); it != nil {
		prevID = it.ID()
	}

	m.rows = m.rows[:0]
	var walk func(parent *engine.Item, depth int)
	walk = func(parent *engine.Item, depth int) {
		for _, it := range m.eng.Children(parent) {
			m.rows = append(m.rows, row{item: it, depth: depth})
			if it.HasChildren() && m.isExpanded(it) {
				walk(it, depth+1)
			}
		}
	}
	walk(nil, 0)

	// Drop overrides for items the engine no longer hands out.
	live := make(map[*engine.Item]bool, len(m.rows))
	for _, r := range m.rows {
		live[r.item] = true
	}
	for it := range m.expanded {
		if !live[it] {
			delete(m.expanded, it)
		}
	}

	m.cursor = 0
	if prevID >= 0 {
		for i, r := range m.rows {
			if r.item.ID() == prevID {
				m.cursor = i
				break
			}
		}
	}
	m.ensureVisible()
}

// reveal brings the named item into view: ancestors are expanded when
// asked, then the cursor moves to the item.
func (m *Model) reveal(msg RevealMsg) {
	target := m.eng.ItemByID(msg.ID)
	if target == nil {
		return
	}

	if msg.Opts.Expand {
		for p := m.eng.Parent(target); p != nil; p = m.eng.Parent(p) {
			m.expanded[p] = true
		}
		m.rebuildRows()
	}

	for i, r := range m.rows {
		if r.item == target {
			if msg.Opts.Select {
				m.cursor = i
			}
			m.offsetTo(i)
			return
		}
	}
}

func (m *Model) treeHeight() int {
	h := m.height - 2 // header + status line
	if m.filtering {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) ensureVisible() {
	m.offsetTo(m.cursor)
}

func (m *Model) offsetTo(i int) {
	h := m.treeHeight()
	if i < m.offset {
		m.offset = i
	}
	if i >= m.offset+h {
		m.offset = i - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styleSelected.Width(m.width).Render(" " + m.title))
	sb.WriteString("\n")

	if len(m.rows) == 0 {
		if m.eng.FilterTerm() != "" {
			sb.WriteString(m.styleMuted.Render("  no headings match the filter"))
		} else {
			sb.WriteString(m.styleMuted.Render("  no headings"))
		}
		sb.WriteString("\n")
	}

	h := m.treeHeight()
	end := m.offset + h
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		sb.WriteString(m.renderRow(i))
		sb.WriteString("\n")
	}

	sb.WriteString(m.statusLine())
	if m.filtering {
		sb.WriteString("\n")
		sb.WriteString(m.filterInput.View())
	}
	return sb.String()
}

func (m Model) renderRow(i int) string {
	r := m.rows[i]
	it := r.item

	indicator := " "
	if it.HasChildren() {
		if m.isExpanded(it) {
			indicator = "▾"
		} else {
			indicator = "▸"
		}
	}

	line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", r.depth), indicator, it.Label)

	var style lipgloss.Style
	switch it.State() {
	case engine.StateActive:
		style = m.styleActive
	case engine.StateAncestor:
		style = m.styleAncestor
	default:
		style = m.stylePlain
	}
	line = style.Render(line)

	if i == m.cursor {
		line = m.styleSelected.Render("> ") + line
	} else {
		line = "  " + line
	}
	return line
}

func (m Model) statusLine() string {
	snap := m.eng.Snapshot()
	parts := []string{fmt.Sprintf("%d headings", snap.Headings)}
	if term := strings.TrimSpace(snap.FilterTerm); term != "" {
		parts = append(parts, fmt.Sprintf("filter %q (%d visible)", term, snap.Visible))
	}
	parts = append(parts, "j/k move · space fold · enter jump · / filter · q quit")
	return m.styleMuted.Render(" " + strings.Join(parts, " · "))
}
