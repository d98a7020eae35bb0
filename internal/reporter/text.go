package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/mongoscope/internal/models"
)

const bytesPerMB = 1024 * 1024

// TextReporter generates the human-readable crawl report
type TextReporter struct {
	writer io.Writer
}

// NewTextReporter creates a new text reporter
func NewTextReporter(writer io.Writer) *TextReporter {
	return &TextReporter{
		writer: writer,
	}
}

// Generate writes the report. Output depends only on the report value.
func (r *TextReporter) Generate(report *models.ServerReport) error {
	var b strings.Builder
	for _, line := range Lines(report) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(r.writer, b.String())
	return err
}

// Lines renders the report as ordered text lines: a preamble, then one block
// per database followed by a blank separator line.
func Lines(report *models.ServerReport) []string {
	var lines []string
	add := func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("Target: %s", report.Target)
	switch report.Mode {
	case models.ModeDatabase:
		add("Mode: single database")
	default:
		add("Databases: %d (%d crawled)", report.TotalDatabases, len(report.Databases))
		if report.TotalSize > 0 {
			add("Total size: %s", formatMB(report.TotalSize))
		}
	}
	if report.Error != "" {
		add("Note: %s", report.Error)
	}
	add("")

	for _, db := range report.Databases {
		lines = append(lines, databaseLines(report, db)...)
		add("")
	}

	return lines
}

func databaseLines(report *models.ServerReport, db models.DatabaseReport) []string {
	var lines []string
	add := func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	header := db.Name
	if size, ok := report.Size(db.Name); ok {
		header = fmt.Sprintf("%s: %s", db.Name, formatMB(size))
	}

	switch db.Status {
	case models.StatusInaccessible:
		add("%s (could not access)", header)
		if db.Error != "" {
			add("  reason: %s", db.Error)
		}
		return lines
	case models.StatusSkipped:
		add("%s (skipped)", header)
		return lines
	}

	add("%s", header)
	if db.Status == models.StatusUnlisted {
		add("  (could not list collections)")
	}
	if db.Error != "" {
		add("  note: %s", db.Error)
	}
	if db.Status == models.StatusOK && len(db.Collections) == 0 {
		add("  (no collections)")
	}

	for _, coll := range db.Collections {
		lines = append(lines, collectionLines(coll)...)
	}
	return lines
}

func collectionLines(coll models.CollectionSummary) []string {
	if !coll.CountKnown() {
		lines := []string{fmt.Sprintf("  %s: (could not access)", coll.Name)}
		if coll.Error != "" {
			lines = append(lines, fmt.Sprintf("    reason: %s", coll.Error))
		}
		return lines
	}

	line := fmt.Sprintf("  %s: %d document(s)", coll.Name, coll.Count)
	if coll.Truncated {
		line += fmt.Sprintf(" (showing %d of %d)", len(coll.Samples), coll.Count)
	}

	lines := []string{line}
	for i, sample := range coll.Samples {
		lines = append(lines, fmt.Sprintf("    %d. %s", i+1, sample))
	}
	return lines
}

// formatMB formats a byte count in megabytes with two decimals.
func formatMB(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/bytesPerMB)
}
