package tui

import "github.com/charmbracelet/lipgloss"

// Status colors
var (
	colorFail   = lipgloss.Color("#FF0000")
	colorWarn   = lipgloss.Color("#FFFF00")
	colorOK     = lipgloss.Color("#00FF00")
	colorMuted  = lipgloss.Color("#888888")
	colorAccent = lipgloss.Color("#7B68EE")
	colorBorder = lipgloss.Color("#444444")
)

// Panel styles
var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	styleDetailPanel = lipgloss.NewStyle().
				Padding(0, 1).
				BorderStyle(lipgloss.NormalBorder()).
				BorderTop(true).
				BorderForeground(colorBorder)

	styleFooter = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleNote = lipgloss.NewStyle().
			Foreground(colorWarn)

	styleSearchPrompt = lipgloss.NewStyle().
				Foreground(colorAccent).Bold(true)
)

// statusStyle returns the lipgloss style for a row status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "inaccessible":
		return lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	case "unlisted", "unknown":
		return lipgloss.NewStyle().Foreground(colorWarn)
	case "ok":
		return lipgloss.NewStyle().Foreground(colorOK)
	case "skipped", "empty":
		return lipgloss.NewStyle().Foreground(colorMuted)
	default:
		return lipgloss.NewStyle()
	}
}
