package crawler

import (
	"context"
	"strings"

	"github.com/ppiankov/mongoscope/internal/models"
)

// CrawlDatabase probes every collection of the session's database in the
// order the server lists them. Failures are recorded in the report; nothing
// is returned as an error.
func (c *Crawler) CrawlDatabase(ctx context.Context, s Session, budget int) models.DatabaseReport {
	report := models.DatabaseReport{
		Name:        s.DatabaseName(),
		Status:      models.StatusOK,
		Collections: []models.CollectionSummary{},
	}

	names, err := s.ListCollectionNames(ctx)
	if err != nil {
		lerr := &ListingError{Scope: "collections", Database: report.Name, Err: err}
		c.logf("%v", lerr)
		report.Status = models.StatusUnlisted
		report.Error = lerr.Error()
		return report
	}

	for _, name := range names {
		if c.config.SkipSystemCollections && strings.HasPrefix(name, "system.") {
			continue
		}
		summary := c.Probe(ctx, s, name, budget)
		if summary.Error != "" {
			c.logf("%s.%s: %s", report.Name, name, summary.Error)
		}
		report.Collections = append(report.Collections, summary)
	}

	report.TotalCollections = len(report.Collections)
	return report
}
