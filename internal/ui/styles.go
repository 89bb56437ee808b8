package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorInk   = lipgloss.Color("#161B22")
	ColorPanel = lipgloss.Color("#232A33")
	ColorMuted = lipgloss.Color("#7D8794")
	ColorText  = lipgloss.Color("#DCE3EA")
	ColorTeal  = lipgloss.Color("#5FB3B3")
	ColorAmber = lipgloss.Color("#E5C07B")
	ColorGreen = lipgloss.Color("#98C379")
	ColorCoral = lipgloss.Color("#E06C75")
)

// Chrome around the dialogs.
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTeal).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorTeal).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorMuted)

	BreadcrumbStyle       = lipgloss.NewStyle().Foreground(ColorMuted)
	BreadcrumbActiveStyle = lipgloss.NewStyle().Foreground(ColorText)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorMuted)

	HelpKeyStyle  = lipgloss.NewStyle().Foreground(ColorTeal)
	HelpDescStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorCoral).Padding(0, 1)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen).Padding(0, 1)

	InputStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorPanel).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorTeal).
			Padding(1, 2)

	LabelStyle = lipgloss.NewStyle().Foreground(ColorAmber).Bold(true)
)

// Table cells.
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorTeal).
				Background(ColorPanel).
				Bold(true).
				Padding(0, 1)

	// ActiveHeaderStyle marks the column "s" would sort.
	ActiveHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorAmber).
				Underline(true)

	DividerStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	NormalRowStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorInk).
				Background(ColorTeal).
				Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().Foreground(ColorMuted).Padding(0, 1)

	EmptyStateStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true).
			Padding(2, 4)
)
