package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/topoview/pkg/ocs"
)

func testRows() []ocs.Row {
	return []ocs.Row{
		{Name: "worker-a", Zone: "us-east-1a", CPU: "4 cores", Memory: "16 GiB"},
		{Name: "worker-b", Zone: "us-east-1b", CPU: "4 cores", Memory: "16 GiB", Selected: true},
		{Name: "worker-c", Zone: "us-east-1c", CPU: "8 cores", Memory: "32 GiB"},
		{Name: "infra-a", Zone: "us-east-1a", CPU: "2 cores", Memory: "8 GiB"},
	}
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m NodeListModel, msgs ...tea.Msg) (NodeListModel, tea.Cmd) {
	var cmd tea.Cmd
	var next tea.Model = m
	for _, msg := range msgs {
		next, cmd = next.Update(msg)
	}
	return next.(NodeListModel), cmd
}

func TestNodeListToggle(t *testing.T) {
	m := NewNodeListModel(testRows())

	m, _ = send(m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.Selection.All()[0].Selected {
		t.Error("space should tick the row under the cursor")
	}

	m, _ = send(m, keys("j"), keys("j"), tea.KeyMsg{Type: tea.KeySpace})
	if got := m.Selection.SelectedCount(); got != 3 {
		t.Errorf("SelectedCount() = %d, want 3", got)
	}
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2", m.Cursor)
	}

	m, _ = send(m, keys("k"), tea.KeyMsg{Type: tea.KeySpace})
	if m.Selection.All()[1].Selected {
		t.Error("space on a ticked row should untick it")
	}
}

func TestNodeListSelectAllVisible(t *testing.T) {
	m := NewNodeListModel(testRows())

	m, _ = send(m, keys("a"))
	if got := m.Selection.SelectedCount(); got != 4 {
		t.Errorf("a: SelectedCount() = %d, want 4", got)
	}
	m, _ = send(m, keys("a"))
	if got := m.Selection.SelectedCount(); got != 0 {
		t.Errorf("second a: SelectedCount() = %d, want 0", got)
	}
}

func TestNodeListFilterKeepsSelection(t *testing.T) {
	m := NewNodeListModel(testRows())

	m, _ = send(m, keys("/"), keys("infra"), tea.KeyMsg{Type: tea.KeyEnter})
	if got := len(m.Selection.Rows()); got != 1 {
		t.Fatalf("visible rows = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "1 of 4 shown") {
		t.Error("view should report the hidden rows")
	}

	m, _ = send(m, keys("a"))
	if got := m.Selection.SelectedCount(); got != 2 {
		t.Errorf("SelectedCount() = %d, want 2 (hidden worker-b stays ticked)", got)
	}

	m, _ = send(m, keys("/"), tea.KeyMsg{Type: tea.KeyEsc})
	if got := len(m.Selection.Rows()); got != 4 {
		t.Errorf("esc should clear the filter, %d rows visible", got)
	}
	if got := m.Selection.SelectedCount(); got != 2 {
		t.Errorf("clearing the filter changed the selection to %d rows", got)
	}
}

func TestNodeListSubmit(t *testing.T) {
	m := NewNodeListModel(testRows())

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Submitted || cmd != nil {
		t.Error("enter should do nothing below the minimum selection")
	}
	if !strings.Contains(m.View(), "at least 3 required") {
		t.Error("view should show the minimum")
	}

	m, cmd = send(m, keys("a"), tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Submitted {
		t.Error("enter should submit a full selection")
	}
	if cmd == nil {
		t.Error("submit should quit the program")
	}
}

func TestNodeListQuit(t *testing.T) {
	m := NewNodeListModel(testRows())
	m, cmd := send(m, keys("q"))
	if m.Submitted {
		t.Error("q should not submit")
	}
	if cmd == nil {
		t.Error("q should quit the program")
	}
}

func TestNodeListView(t *testing.T) {
	view := NewNodeListModel(testRows()).View()
	for _, want := range []string{"Select Storage Nodes", "worker-a", "us-east-1c", "[x]", "1 node(s) selected"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
