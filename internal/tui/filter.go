package tui

import (
	"sort"
	"strings"

	"github.com/ppiankov/mongoscope/internal/models"
)

// entry is one browsable row: a collection, or a database that yielded no
// collections to show.
type entry struct {
	order      int
	Database   string
	Collection string // empty for database-level rows
	Count      int64
	Status     string
	Samples    []string
	Truncated  bool
	Note       string
}

// Row status values beyond the database statuses.
const (
	statusEmpty   = "empty"
	statusUnknown = "unknown"
)

// flatten turns a report into rows in server order.
func flatten(report *models.ServerReport) []entry {
	var entries []entry
	add := func(e entry) {
		e.order = len(entries)
		entries = append(entries, e)
	}

	for _, db := range report.Databases {
		if db.Status != models.StatusOK || len(db.Collections) == 0 {
			status, count := db.Status, models.UnknownCount
			if status == models.StatusOK {
				status, count = statusEmpty, 0
			}
			add(entry{Database: db.Name, Count: count, Status: status, Note: db.Error})
			if db.Status != models.StatusOK {
				continue
			}
		}

		for _, c := range db.Collections {
			status := models.StatusOK
			if !c.CountKnown() {
				status = statusUnknown
			}
			add(entry{
				Database:   db.Name,
				Collection: c.Name,
				Count:      c.Count,
				Status:     status,
				Samples:    c.Samples,
				Truncated:  c.Truncated,
				Note:       c.Error,
			})
		}
	}
	return entries
}

// filterState holds current active filters.
type filterState struct {
	Database   string
	SearchText string
}

// sortField enumerates columns that can be sorted.
type sortField int

const (
	sortByServerOrder sortField = iota
	sortByDatabase
	sortByCollection
	sortByCount
	sortByStatus
)

// sortFieldCount is the total number of sortable columns.
const sortFieldCount = 5

var statusPriority = map[string]int{
	models.StatusInaccessible: 0,
	models.StatusUnlisted:     1,
	statusUnknown:             2,
	models.StatusSkipped:      3,
	statusEmpty:               4,
	models.StatusOK:           5,
}

// applyFilters returns entries matching all active filters.
func applyFilters(entries []entry, f filterState) []entry {
	result := make([]entry, 0, len(entries))
	searchLower := strings.ToLower(f.SearchText)

	for _, e := range entries {
		if f.Database != "" && e.Database != f.Database {
			continue
		}
		if searchLower != "" && !matchesSearch(e, searchLower) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func matchesSearch(e entry, searchLower string) bool {
	if strings.Contains(strings.ToLower(e.Database), searchLower) ||
		strings.Contains(strings.ToLower(e.Collection), searchLower) ||
		strings.Contains(strings.ToLower(e.Status), searchLower) ||
		strings.Contains(strings.ToLower(e.Note), searchLower) {
		return true
	}
	for _, s := range e.Samples {
		if strings.Contains(strings.ToLower(s), searchLower) {
			return true
		}
	}
	return false
}

// sortEntries sorts a slice of entries in place by the given field.
func sortEntries(entries []entry, field sortField) {
	sort.SliceStable(entries, func(i, j int) bool {
		switch field {
		case sortByServerOrder:
			return entries[i].order < entries[j].order
		case sortByDatabase:
			return entries[i].Database < entries[j].Database
		case sortByCollection:
			return entries[i].Collection < entries[j].Collection
		case sortByCount:
			return entries[i].Count > entries[j].Count
		case sortByStatus:
			return statusPriority[entries[i].Status] < statusPriority[entries[j].Status]
		default:
			return false
		}
	})
}

// uniqueDatabases returns database names in first-seen order.
func uniqueDatabases(entries []entry) []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if !seen[e.Database] {
			seen[e.Database] = true
			names = append(names, e.Database)
		}
	}
	return names
}

// sortFieldName returns a human-readable name for the sort field.
func sortFieldName(f sortField) string {
	switch f {
	case sortByServerOrder:
		return "server order"
	case sortByDatabase:
		return "database"
	case sortByCollection:
		return "collection"
	case sortByCount:
		return "count"
	case sortByStatus:
		return "status"
	default:
		return "unknown"
	}
}
