package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var tableColumns = []table.Column{
	{Title: "Database", Width: 20},
	{Title: "Collection", Width: 28},
	{Title: "Documents", Width: 12},
	{Title: "Status", Width: 14},
	{Title: "Sample", Width: 8},
}

// buildRows converts entries to table rows.
func buildRows(entries []entry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		collection := e.Collection
		if collection == "" {
			collection = "-"
		}
		rows = append(rows, table.Row{
			truncate(e.Database, tableColumns[0].Width),
			truncate(collection, tableColumns[1].Width),
			countLabel(e.Count),
			statusLabel(e.Status),
			sampleLabel(e),
		})
	}
	return rows
}

func countLabel(count int64) string {
	if count < 0 {
		return "?"
	}
	return fmt.Sprintf("%d", count)
}

func statusLabel(s string) string {
	switch s {
	case "ok":
		return "OK"
	case "inaccessible":
		return "NO ACCESS"
	case "unlisted":
		return "UNLISTED"
	case "unknown":
		return "UNREADABLE"
	case "skipped":
		return "SKIPPED"
	case "empty":
		return "EMPTY"
	default:
		return s
	}
}

func sampleLabel(e entry) string {
	if len(e.Samples) == 0 {
		return ""
	}
	if e.Truncated {
		return fmt.Sprintf("%d+", len(e.Samples))
	}
	return fmt.Sprintf("%d", len(e.Samples))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return s[:maxLen]
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}

// newTable creates a bubbles table with standard columns and styling.
func newTable(rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(tableColumns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorAccent).
		Bold(false)
	t.SetStyles(s)

	return t
}
