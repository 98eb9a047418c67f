package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/topoview/pkg/ocs"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// NodeListModel - Interactive storage node selection
// =============================================================================

// NodeListModel is the bubbletea model for picking storage nodes. Ticks
// live in the [ocs.Selection], so narrowing the list with the name filter
// never drops a selection.
type NodeListModel struct {
	Selection *ocs.Selection
	Cursor    int
	Height    int
	Offset    int
	// Submitted is set when the user confirmed a submittable selection.
	Submitted bool

	filter    textinput.Model
	filtering bool
}

// NewNodeListModel creates a node list over rows.
func NewNodeListModel(rows []ocs.Row) NodeListModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter by name"
	ti.CharLimit = 253
	return NodeListModel{
		Selection: ocs.NewSelection(rows),
		Height:    15,
		filter:    ti,
	}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		visible := len(m.Selection.Rows())
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "/":
			m.filtering = true
			return m, m.filter.Focus()
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < visible-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if visible > 0 {
				row := m.Selection.Rows()[m.Cursor]
				m.Selection.Select(m.Cursor, !row.Selected)
			}
		case "a":
			m.Selection.Select(-1, !m.allVisibleSelected())
		case "enter":
			if m.Selection.CanSubmit() {
				m.Submitted = true
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

// updateFilter feeds keys to the filter input. Enter keeps the filter,
// esc clears it.
func (m NodeListModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *NodeListModel) applyFilter() {
	m.Selection.Filter(m.filter.Value())
	m.Cursor, m.Offset = 0, 0
}

func (m NodeListModel) allVisibleSelected() bool {
	rows := m.Selection.Rows()
	for _, r := range rows {
		if !r.Selected {
			return false
		}
	}
	return len(rows) > 0
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Storage Nodes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  / filter  ⏎ install  q quit"))
	b.WriteString("\n")
	if m.filtering || m.Selection.IsFiltered() {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	visible := m.Selection.Rows()
	end := min(m.Offset+m.Height, len(visible))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := visible[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		check := "[ ]"
		if r.Selected {
			check = "[x]"
		}
		rows = append(rows, []string{cursor + check, r.Name, r.RoleText(), r.Zone, r.CPU, r.Memory})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Role", "Location", "CPU", "Memory").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(visible) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case visible[idx].Selected:
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	count := m.Selection.SelectedCount()
	status := fmt.Sprintf("  %d node(s) selected", count)
	if m.Selection.CanSubmit() {
		b.WriteString(StyleSuccess.Render(status))
	} else {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%s, at least %d required", status, ocs.MinSelectedNodes)))
	}
	if len(visible) < len(m.Selection.All()) {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d of %d shown]", len(visible), len(m.Selection.All()))))
	}

	return b.String()
}
