package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgallion1/outlined/internal/engine"
	"github.com/dgallion1/outlined/internal/outline"
)

func testEntries() []outline.Entry {
	return []outline.Entry{
		{Level: 1, Text: "Introduction", Pos: 0, SectionEnd: 40},
		{Level: 2, Text: "Background", Pos: 10, SectionEnd: 25},
		{Level: 2, Text: "Approach", Pos: 25, SectionEnd: 40},
		{Level: 1, Text: "Results", Pos: 40, SectionEnd: 60},
	}
}

func newTestModel(t *testing.T) (Model, *engine.Engine, *Host) {
	t.Helper()
	host := NewHost()
	eng := engine.New(host, nil, engine.WithRevealDelay(time.Millisecond))
	if err := eng.SetOutline(testEntries()); err != nil {
		t.Fatalf("SetOutline: %v", err)
	}
	m := NewModel(eng, "paper.md")
	return m, eng, host
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func rowLabels(m Model) []string {
	var out []string
	for _, r := range m.rows {
		out = append(out, r.item.Label)
	}
	return out
}

func TestFlattenExpandedTree(t *testing.T) {
	m, _, _ := newTestModel(t)

	want := []string{"Introduction", "Background", "Approach", "Results"}
	got := rowLabels(m)
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
	if m.rows[1].depth != 1 {
		t.Errorf("Background depth = %d, want 1", m.rows[1].depth)
	}
}

func TestCollapseHidesSubtree(t *testing.T) {
	m, _, _ := newTestModel(t)

	// Cursor starts on Introduction; space collapses it.
	m = update(t, m, key(" "))
	got := rowLabels(m)
	if len(got) != 2 || got[0] != "Introduction" || got[1] != "Results" {
		t.Fatalf("rows after collapse = %v", got)
	}

	m = update(t, m, key(" "))
	if got := rowLabels(m); len(got) != 4 {
		t.Fatalf("rows after re-expand = %v", got)
	}
}

func TestCollapseSurvivesRefresh(t *testing.T) {
	m, eng, _ := newTestModel(t)

	m = update(t, m, key(" ")) // collapse Introduction
	eng.ClearSelection()       // triggers a refresh signal
	m = update(t, m, RefreshMsg{})

	if got := rowLabels(m); len(got) != 2 {
		t.Fatalf("collapse lost across refresh: rows = %v", got)
	}
}

func TestMoveCursorTracksSelection(t *testing.T) {
	m, eng, _ := newTestModel(t)

	m = update(t, m, key("j"))
	m = update(t, m, RefreshMsg{})
	if it := m.selectedItem(); it == nil || it.Label != "Background" {
		t.Fatalf("selected = %v", it)
	}
	snap := eng.Snapshot()
	if item := eng.ItemByID(snap.ActiveID); item == nil || item.Label != "Background" {
		t.Errorf("engine active = %v, want Background", item)
	}
}

func TestRevealSelectsAndExpands(t *testing.T) {
	m, eng, _ := newTestModel(t)

	// Collapse Introduction, then reveal Background inside it.
	m = update(t, m, key(" "))
	target := eng.Children(eng.Children(nil)[0])[0]

	m = update(t, m, RevealMsg{ID: target.ID(), Opts: engine.RevealOptions{Select: true, Expand: true}})

	it := m.selectedItem()
	if it == nil || it.Label != "Background" {
		t.Fatalf("selected after reveal = %v", it)
	}
	if len(m.rows) != 4 {
		t.Errorf("rows after reveal = %v, want full tree", rowLabels(m))
	}
}

func TestRevealUnknownIDIsIgnored(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, RevealMsg{ID: 999, Opts: engine.RevealOptions{Select: true}})
	if it := m.selectedItem(); it == nil || it.Label != "Introduction" {
		t.Errorf("selected = %v, want unchanged Introduction", it)
	}
}

func TestFilterKeystrokes(t *testing.T) {
	m, eng, _ := newTestModel(t)

	m = update(t, m, key("/"))
	if !m.filtering {
		t.Fatal("filtering mode not entered")
	}
	for _, r := range "back" {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if got := eng.FilterTerm(); got != "back" {
		t.Fatalf("engine filter term = %q", got)
	}
	m = update(t, m, RefreshMsg{})
	got := rowLabels(m)
	if len(got) != 2 || got[0] != "Introduction" || got[1] != "Background" {
		t.Fatalf("filtered rows = %v", got)
	}

	// Esc clears the filter entirely.
	m = update(t, m, key("esc"))
	m = update(t, m, RefreshMsg{})
	if m.filtering {
		t.Error("still in filtering mode after esc")
	}
	if got := rowLabels(m); len(got) != 4 {
		t.Errorf("rows after clear = %v", got)
	}
}

func TestViewShowsStates(t *testing.T) {
	m, eng, _ := newTestModel(t)
	eng.SetActiveSelection(12) // inside Background
	m = update(t, m, RefreshMsg{})

	view := m.View()
	if !strings.Contains(view, "Background") {
		t.Fatalf("view missing Background:\n%s", view)
	}
	if !strings.Contains(view, "4 headings") {
		t.Errorf("view missing heading count:\n%s", view)
	}
}

func TestHostBuffersBeforeAttach(t *testing.T) {
	host := NewHost()
	// No program attached yet; signals must not panic or block.
	host.Refresh()
	eng := engine.New(host, nil)
	if err := eng.SetOutline(testEntries()); err != nil {
		t.Fatalf("SetOutline: %v", err)
	}

	host.mu.Lock()
	n := len(host.pending)
	host.mu.Unlock()
	if n < 2 {
		t.Errorf("pending = %d, want >= 2", n)
	}
}
