package tui

import (
	"fmt"
	"strings"

	"github.com/ppiankov/mongoscope/internal/models"
)

// headerHeight is the number of terminal lines the header occupies.
const headerHeight = 5

// renderHeader produces the header string from the report and its rows.
func renderHeader(report *models.ServerReport, entries []entry, width int) string {
	var b strings.Builder

	// Line 1: title and target
	b.WriteString(fmt.Sprintf("mongoscope  %s", report.Target))
	b.WriteString("\n")

	// Line 2: totals
	collections := 0
	for _, db := range report.Databases {
		collections += len(db.Collections)
	}
	b.WriteString(fmt.Sprintf("Databases: %d/%d  Collections: %d", len(report.Databases), report.TotalDatabases, collections))
	if report.TotalSize > 0 {
		b.WriteString(fmt.Sprintf("  Size: %.2f MB", float64(report.TotalSize)/(1024*1024)))
	}
	b.WriteString("\n")

	// Line 3: status breakdown
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Status]++
	}
	parts := make([]string, 0, len(statusPriority))
	for _, status := range []string{"ok", "empty", "unknown", "unlisted", "inaccessible", "skipped"} {
		if n := counts[status]; n > 0 {
			parts = append(parts, statusStyle(status).Render(fmt.Sprintf("%s:%d", status, n)))
		}
	}
	b.WriteString(strings.Join(parts, "  "))

	// Line 4: listing note
	if report.Error != "" {
		b.WriteString("\n")
		b.WriteString(styleNote.Render(report.Error))
	}

	return styleHeader.Width(width).Render(b.String())
}
