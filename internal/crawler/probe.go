package crawler

import (
	"context"

	"github.com/ppiankov/mongoscope/internal/models"
	"github.com/ppiankov/mongoscope/internal/redact"
)

// Probe counts a collection and takes a redacted sample:
//   - empty collections get no sample
//   - up to SmallThreshold documents are all sampled
//   - larger collections show SampleWindow documents and are marked truncated
//
// A failed count or sample yields an unknown count and no sample.
func (c *Crawler) Probe(ctx context.Context, s Session, collection string, budget int) models.CollectionSummary {
	summary := models.CollectionSummary{
		Name:    collection,
		Samples: []string{},
	}

	count, err := s.CountDocuments(ctx, collection)
	if err != nil {
		return failedProbe(summary, &ProbeError{Collection: collection, Op: "count", Err: err})
	}
	summary.Count = count

	if count == 0 {
		return summary
	}

	limit := int64(c.config.SmallThreshold)
	if count > limit {
		limit = int64(c.config.SampleWindow)
		summary.Truncated = true
	}

	docs, err := s.FindDocuments(ctx, collection, limit)
	if err != nil {
		return failedProbe(summary, &ProbeError{Collection: collection, Op: "sample", Err: err})
	}

	for i, doc := range docs {
		if int64(i) >= limit {
			break
		}
		summary.Samples = append(summary.Samples, redact.Document(doc, c.config.Policy, budget))
	}

	return summary
}

func failedProbe(summary models.CollectionSummary, err *ProbeError) models.CollectionSummary {
	summary.Count = models.UnknownCount
	summary.Samples = []string{}
	summary.Truncated = false
	summary.Error = err.Error()
	return summary
}
