package tui

import (
	"fmt"
	"strings"
)

// detailHeight is the fixed number of lines for the detail panel.
const detailHeight = 6

// renderDetail produces the detail view for a selected row.
func renderDetail(e *entry, width int) string {
	if e == nil {
		return styleDetailPanel.Width(width).Render("Nothing selected")
	}

	var b strings.Builder

	name := e.Database
	if e.Collection != "" {
		name += "." + e.Collection
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", statusStyle(e.Status).Render(statusLabel(e.Status)), name))

	if e.Count >= 0 {
		line := fmt.Sprintf("Documents: %d", e.Count)
		if e.Truncated {
			line += fmt.Sprintf(" (showing %d)", len(e.Samples))
		}
		b.WriteString(line + "\n")
	}

	if e.Note != "" {
		b.WriteString(fmt.Sprintf("Note: %s\n", e.Note))
	}

	for i, s := range e.Samples {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, s))
	}

	return styleDetailPanel.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}
