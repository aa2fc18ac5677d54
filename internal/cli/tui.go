package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/navigate"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const defaultListHeight = 15

// listCursor is the scrolling cursor shared by the list models.
type listCursor struct {
	Cursor int
	Offset int
	Height int
}

func (c *listCursor) up() {
	if c.Cursor > 0 {
		c.Cursor--
		if c.Cursor < c.Offset {
			c.Offset = c.Cursor
		}
	}
}

func (c *listCursor) down(n int) {
	if c.Cursor < n-1 {
		c.Cursor++
		if c.Cursor >= c.Offset+c.Height {
			c.Offset = c.Cursor - c.Height + 1
		}
	}
}

func (c *listCursor) reset() {
	c.Cursor, c.Offset = 0, 0
}

func (c *listCursor) resize(height, chrome int) {
	c.Height = max(height-chrome, 5)
}

// window returns the visible index range for n rows.
func (c *listCursor) window(n int) (start, end int) {
	return c.Offset, min(c.Offset+c.Height, n)
}

// =============================================================================
// GardenListModel - registry garden picker
// =============================================================================

// GardenListModel lets the user pick a registry garden.
type GardenListModel struct {
	Names    []string
	Selected string
	listCursor
}

// NewGardenListModel creates a picker over names.
func NewGardenListModel(names []string) GardenListModel {
	return GardenListModel{Names: names, listCursor: listCursor{Height: defaultListHeight}}
}

func (m GardenListModel) Init() tea.Cmd {
	return nil
}

func (m GardenListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.up()
		case "down", "j":
			m.down(len(m.Names))
		case "enter":
			if len(m.Names) > 0 {
				m.Selected = m.Names[m.Cursor]
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Height, 6)
	}
	return m, nil
}

func (m GardenListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Garden"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	start, end := m.window(len(m.Names))
	for i := start; i < end; i++ {
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + m.Names[i]))
		} else {
			b.WriteString(listNormalStyle.Render("  " + m.Names[i]))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Names)), len(m.Names))))

	return b.String()
}

// =============================================================================
// BrowseModel - interactive flow browser
// =============================================================================

// flowLoadedMsg reports the result of opening a garden.
type flowLoadedMsg struct {
	view *flowView
	push bool
	err  error
}

// BrowseModel shows the nodes of one garden's flow and follows
// cross-garden links.
type BrowseModel struct {
	ctx     context.Context
	browser *browser

	// History holds the visited gardens, the current one last.
	History []*garden.Garden
	Current *flowView
	Status  string
	Loading bool
	listCursor
}

// NewBrowseModel creates a browser model that opens root on Init.
func NewBrowseModel(ctx context.Context, b *browser, root *garden.Garden) BrowseModel {
	return BrowseModel{
		ctx:        ctx,
		browser:    b,
		History:    []*garden.Garden{root},
		Loading:    true,
		listCursor: listCursor{Height: defaultListHeight},
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return m.load(m.History[0], false)
}

// load opens g in the background. push appends g to the history once
// it has loaded.
func (m BrowseModel) load(g *garden.Garden, push bool) tea.Cmd {
	ctx, b := m.ctx, m.browser
	return func() tea.Msg {
		view, err := b.open(ctx, g)
		return flowLoadedMsg{view: view, push: push, err: err}
	}
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case flowLoadedMsg:
		if errors.Is(msg.err, errors.ErrCodeSuperseded) {
			return m, nil
		}
		m.Loading = false
		if msg.err != nil {
			m.Status = errors.UserMessage(msg.err)
			return m, nil
		}
		if msg.push {
			m.History = append(m.History, msg.view.Garden)
		}
		m.Current = msg.view
		m.Status = ""
		if msg.view.Fallback {
			m.Status = "Layout failed, showing initial positions"
		}
		m.reset()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.up()
		case "down", "j":
			if m.Current != nil {
				m.down(len(m.Current.Graph.Nodes))
			}
		case "enter", "l":
			return m.follow()
		case "backspace", "h":
			if len(m.History) > 1 {
				m.History = m.History[:len(m.History)-1]
				m.Loading = true
				return m, m.load(m.History[len(m.History)-1], false)
			}
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Height, 9)
	}
	return m, nil
}

// follow navigates from the node under the cursor.
func (m BrowseModel) follow() (tea.Model, tea.Cmd) {
	n := m.selected()
	if n == nil {
		return m, nil
	}
	if !navigate.Navigable(n) {
		m.Status = fmt.Sprintf("%s does not link to another garden", n.Label())
		return m, nil
	}
	g, err := m.browser.navigate(m.ctx, n)
	if err != nil {
		m.Status = describeNavError(err)
		return m, nil
	}
	m.Status = ""
	m.Loading = true
	return m, m.load(g, true)
}

func (m BrowseModel) selected() *flow.Node {
	if m.Current == nil || m.Cursor >= len(m.Current.Graph.Nodes) {
		return nil
	}
	return &m.Current.Graph.Nodes[m.Cursor]
}

func (m BrowseModel) View() string {
	var b strings.Builder

	crumbs := make([]string, len(m.History))
	for i, g := range m.History {
		crumbs[i] = g.Name
	}
	b.WriteString(StyleTitle.Render(strings.Join(crumbs, " › ")))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open link  ⌫ back  q quit"))
	b.WriteString("\n\n")

	if m.Current == nil {
		if m.Loading {
			b.WriteString(listDimStyle.Render("Building..."))
		}
		if m.Status != "" {
			b.WriteString(StyleWarning.Render(m.Status))
		}
		return b.String()
	}

	v := m.Current
	summary := fmt.Sprintf("%s %s · %d nodes · %d edges · %s",
		v.Garden.Name, v.Garden.Version, v.Graph.NodeCount(), v.Graph.EdgeCount(), v.Elapsed.Round(time.Millisecond))
	if !v.Fallback && v.Width > 0 {
		summary += fmt.Sprintf(" · %.0f×%.0f", v.Width, v.Height)
	}
	b.WriteString(listDimStyle.Render(summary))
	b.WriteString("\n")

	start, end := m.window(len(v.Graph.Nodes))
	rows := make([][]string, 0, end-start)
	for i := start; i < end; i++ {
		n := &v.Graph.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		link := ""
		if t := navigate.Target(n); t != "" {
			link = iconArrow + " " + t
		}
		rows = append(rows, []string{cursor, n.Label(), string(n.Type), link})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Type", "Link").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			idx := start + row
			if idx >= len(v.Graph.Nodes) {
				return lipgloss.NewStyle()
			}
			current := idx == m.Cursor
			navigable := navigate.Navigable(&v.Graph.Nodes[idx])
			switch {
			case current && navigable:
				return listSelectedStyle.Foreground(colorBlue)
			case current:
				return listSelectedStyle
			case navigable && col == 3:
				return lipgloss.NewStyle().Foreground(colorBlue)
			case col == 2:
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(v.Graph.Nodes)), len(v.Graph.Nodes))))
	if m.Loading {
		b.WriteString("  " + listDimStyle.Render("loading..."))
	}
	if m.Status != "" {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render(m.Status))
	}
	return b.String()
}
