package ui

import (
	"strings"

	"tabula/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(mode model.Mode, width int) string {
	switch mode {
	case model.ModeColumns:
		return renderColumnsHelp(width)
	case model.ModeExport:
		return renderExportHelp(width)
	default:
		return renderDialogHelp(width)
	}
}

func renderDialogHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("tab", "next col"),
		helpKey("s/1-9", "sort"),
		helpKey("r", "refresh"),
		helpKey("e", "export"),
		helpKey("y/Y", "copy"),
		helpKey("c", "columns"),
		helpKey("[/]", "dialog"),
		helpKey("?", "help"),
	}
	return renderHelpLine(keys, width)
}

func renderColumnsHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("space", "toggle"),
		helpKey("enter", "save"),
		helpKey("esc", "cancel"),
	}
	return renderHelpLine(keys, width)
}

func renderExportHelp(width int) string {
	keys := []string{
		helpKey("enter", "write csv"),
		helpKey("esc", "cancel"),
	}
	return renderHelpLine(keys, width)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Navigation"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"gg", "Jump to top"},
			{"G", "Jump to bottom"},
			{"ctrl+d", "Half page down"},
			{"ctrl+u", "Half page up"},
			{"[ / ] / ← / →", "Previous / next dialog"},
			{"tab / shift+tab", "Cycle active column"},
			{"q", "Quit"},
			{"?", "Toggle help"},
		}),
		titleSection("Table"),
		helpSection([]helpItem{
			{"s", "Sort by active column (again to reverse)"},
			{"1-9", "Sort by visible column N (again to reverse)"},
			{"r / f5", "Refresh rows, keeping the sort"},
			{"c", "Choose visible columns"},
			{"C", "Show all columns"},
		}),
		titleSection("Export"),
		helpSection([]helpItem{
			{"e", "Export table to CSV"},
			{"y", "Copy table to clipboard"},
			{"Y", "Copy selected row to clipboard"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
