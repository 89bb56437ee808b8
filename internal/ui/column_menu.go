package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ColumnMenu edits which columns of a dialog are shown.
type ColumnMenu struct {
	dialogID string
	header   []string
	visible  []bool
	cursor   int
}

// NewColumnMenu starts editing a copy of visible.
func NewColumnMenu(dialogID string, header []string, visible []bool) *ColumnMenu {
	return &ColumnMenu{
		dialogID: dialogID,
		header:   append([]string(nil), header...),
		visible:  append([]bool(nil), visible...),
	}
}

func (m *ColumnMenu) Up() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *ColumnMenu) Down() {
	if m.cursor < len(m.header)-1 {
		m.cursor++
	}
}

// Toggle flips the column under the cursor. Hiding the last visible column
// is refused.
func (m *ColumnMenu) Toggle() bool {
	if m.visible[m.cursor] && m.visibleCount() <= 1 {
		return false
	}
	m.visible[m.cursor] = !m.visible[m.cursor]
	return true
}

// Visible returns the edited flags.
func (m *ColumnMenu) Visible() []bool {
	return append([]bool(nil), m.visible...)
}

func (m *ColumnMenu) visibleCount() int {
	n := 0
	for _, v := range m.visible {
		if v {
			n++
		}
	}
	return n
}

// View renders the menu as a bordered panel.
func (m *ColumnMenu) View(width, height int) string {
	lines := []string{LabelStyle.Render("Columns"), ""}
	for i, h := range m.header {
		box := "[ ]"
		if m.visible[i] {
			box = "[x]"
		}
		line := box + " " + h
		if i == m.cursor {
			line = SelectedRowStyle.Render(line)
		} else {
			line = NormalRowStyle.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", helpKey("space", "toggle")+"  "+helpKey("enter", "save")+"  "+helpKey("esc", "cancel"))

	panel := PanelStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}
