package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/layout"
	"github.com/matzehuels/gardenflow/pkg/pipeline"
)

var (
	keyEnter     = tea.KeyMsg{Type: tea.KeyEnter}
	keyBackspace = tea.KeyMsg{Type: tea.KeyBackspace}
	keyDown      = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	keyUp        = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	keyQuit      = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

func newTestBrowser(t *testing.T) (*browser, *garden.Garden) {
	t.Helper()
	omni, err := garden.Parse([]byte(omniJSON))
	if err != nil {
		t.Fatal(err)
	}
	labs := &garden.Garden{
		Name:         "Labs",
		Version:      "2",
		Supergardens: []garden.Reference{{Name: "Omni"}},
	}
	discard := log.NewWithOptions(io.Discard, log.Options{})
	b, err := newBrowser(pipeline.NewRunner(nil, nil, discard), garden.NewRegistry(omni, labs),
		pipeline.Options{Logger: discard}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Close)
	return b, omni
}

// step applies msg and runs the resulting command, if any, once.
func step(t *testing.T, m BrowseModel, msg tea.Msg) BrowseModel {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(BrowseModel)
	if cmd != nil {
		next, _ = m.Update(cmd())
		m = next.(BrowseModel)
	}
	return m
}

// cursorTo moves the cursor to the first node matching pred.
func cursorTo(t *testing.T, m BrowseModel, pred func(i int) bool) BrowseModel {
	t.Helper()
	for i := range m.Current.Graph.Nodes {
		if pred(i) {
			m.Cursor = i
			return m
		}
	}
	t.Fatal("no matching node")
	return m
}

func TestBrowseModelNavigation(t *testing.T) {
	b, omni := newTestBrowser(t)
	m := NewBrowseModel(context.Background(), b, omni)

	next, _ := m.Update(m.Init()())
	m = next.(BrowseModel)
	if m.Loading || m.Current == nil || m.Current.Garden.Name != "Omni" {
		t.Fatalf("initial view = %+v, want Omni loaded", m.Current)
	}
	if !strings.Contains(m.View(), "Omni") {
		t.Error("View() does not show the garden name")
	}

	// Follow the subgarden link.
	m = cursorTo(t, m, func(i int) bool { return m.Current.Graph.Nodes[i].Target() == "Labs" })
	m = step(t, m, keyEnter)
	if len(m.History) != 2 || m.Current.Garden.Name != "Labs" {
		t.Fatalf("after enter: history %d, current %s; want Labs", len(m.History), m.Current.Garden.Name)
	}
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after navigation, want 0", m.Cursor)
	}
	if !strings.Contains(m.View(), "Omni › Labs") {
		t.Errorf("View() missing breadcrumb:\n%s", m.View())
	}

	// A second click inside the cooldown is throttled.
	m = cursorTo(t, m, func(i int) bool { return m.Current.Graph.Nodes[i].Target() == "Omni" })
	next, cmd := m.Update(keyEnter)
	m = next.(BrowseModel)
	if cmd != nil {
		t.Error("throttled navigation returned a load command")
	}
	if !strings.HasPrefix(m.Status, "Slow down") {
		t.Errorf("Status = %q, want throttle message", m.Status)
	}

	// Back returns to Omni without consuming the cooldown.
	m = step(t, m, keyBackspace)
	if len(m.History) != 1 || m.Current.Garden.Name != "Omni" {
		t.Errorf("after back: history %d, current %s; want Omni", len(m.History), m.Current.Garden.Name)
	}
}

func TestBrowseModelNotNavigable(t *testing.T) {
	b, omni := newTestBrowser(t)
	m := NewBrowseModel(context.Background(), b, omni)
	next, _ := m.Update(m.Init()())
	m = next.(BrowseModel)

	m = cursorTo(t, m, func(i int) bool { return m.Current.Graph.Nodes[i].Label() == "CLI" })
	next, cmd := m.Update(keyEnter)
	m = next.(BrowseModel)
	if cmd != nil {
		t.Error("item node started a navigation")
	}
	if !strings.Contains(m.Status, "does not link") {
		t.Errorf("Status = %q", m.Status)
	}
}

func TestBrowseModelIgnoresSuperseded(t *testing.T) {
	b, omni := newTestBrowser(t)
	m := NewBrowseModel(context.Background(), b, omni)

	next, _ := m.Update(flowLoadedMsg{err: layout.ErrSuperseded, push: true})
	m = next.(BrowseModel)
	if !m.Loading || m.Status != "" || len(m.History) != 1 {
		t.Errorf("superseded result changed the model: loading=%v status=%q history=%d", m.Loading, m.Status, len(m.History))
	}
}

func TestBrowseModelCursorBounds(t *testing.T) {
	b, omni := newTestBrowser(t)
	m := NewBrowseModel(context.Background(), b, omni)
	next, _ := m.Update(m.Init()())
	m = next.(BrowseModel)

	m = step(t, m, keyUp)
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after up at top, want 0", m.Cursor)
	}
	n := len(m.Current.Graph.Nodes)
	for range n + 3 {
		m = step(t, m, keyDown)
	}
	if m.Cursor != n-1 {
		t.Errorf("Cursor = %d after paging past the end, want %d", m.Cursor, n-1)
	}

	if _, cmd := m.Update(keyQuit); cmd == nil {
		t.Error("q did not quit")
	}
}

func TestGardenListModel(t *testing.T) {
	m := NewGardenListModel([]string{"Labs", "Omni", "Tools"})

	for _, k := range []tea.KeyMsg{keyDown, keyDown, keyDown, keyUp} {
		next, _ := m.Update(k)
		m = next.(GardenListModel)
	}
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1", m.Cursor)
	}

	next, cmd := m.Update(keyEnter)
	m = next.(GardenListModel)
	if m.Selected != "Omni" {
		t.Errorf("Selected = %q, want Omni", m.Selected)
	}
	if cmd == nil {
		t.Error("enter did not quit")
	}
	if !strings.Contains(m.View(), "▸ Omni") {
		t.Errorf("View() does not mark the cursor:\n%s", m.View())
	}
}

func TestGardenListModelScroll(t *testing.T) {
	m := NewGardenListModel([]string{"a", "b", "c", "d", "e", "f", "g", "h"})
	next, _ := m.Update(tea.WindowSizeMsg{Height: 8})
	m = next.(GardenListModel)
	if m.Height != 5 {
		t.Fatalf("Height = %d, want the minimum 5", m.Height)
	}
	for range 6 {
		next, _ = m.Update(keyDown)
		m = next.(GardenListModel)
	}
	if m.Offset != 2 {
		t.Errorf("Offset = %d, want 2", m.Offset)
	}
	if strings.Contains(m.View(), "  a") {
		t.Error("scrolled-off row still rendered")
	}
}
