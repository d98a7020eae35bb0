package models

// CrawlMode selects how databases are discovered.
type CrawlMode string

const (
	// ModeServer enumerates every database through the admin namespace.
	ModeServer CrawlMode = "server"
	// ModeDatabase connects directly to one named database.
	ModeDatabase CrawlMode = "database"
)

// UnknownCount marks a collection whose documents could not be counted.
const UnknownCount int64 = -1

// Database status values
const (
	StatusOK           = "ok"
	StatusInaccessible = "inaccessible" // connection could not be opened
	StatusUnlisted     = "unlisted"     // collections could not be listed
	StatusSkipped      = "skipped"      // crawl was cancelled first
)

// DatabaseInfo is one entry of the server's database listing.
type DatabaseInfo struct {
	Name       string `json:"name" yaml:"name"`
	SizeOnDisk int64  `json:"size_on_disk" yaml:"size_on_disk"`
	Empty      bool   `json:"empty" yaml:"empty"`
}

// CollectionSummary is the probe result for one collection. Samples are
// already redacted.
type CollectionSummary struct {
	Name      string   `json:"name" yaml:"name"`
	Count     int64    `json:"count" yaml:"count"`
	Samples   []string `json:"samples" yaml:"samples"`
	Truncated bool     `json:"truncated" yaml:"truncated"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// CountKnown reports whether Count holds a real document count.
func (c CollectionSummary) CountKnown() bool {
	return c.Count != UnknownCount
}

// DatabaseReport holds the collections of one database in listing order.
type DatabaseReport struct {
	Name             string              `json:"name" yaml:"name"`
	Status           string              `json:"status" yaml:"status"`
	Collections      []CollectionSummary `json:"collections" yaml:"collections"`
	TotalCollections int                 `json:"total_collections" yaml:"total_collections"`
	Error            string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Accessible reports whether the database could be opened.
func (d DatabaseReport) Accessible() bool {
	return d.Status != StatusInaccessible && d.Status != StatusSkipped
}

// ServerReport is the result of one crawl. It lives only until rendered.
type ServerReport struct {
	Mode           CrawlMode        `json:"mode" yaml:"mode"`
	Target         string           `json:"target" yaml:"target"` // redacted
	Databases      []DatabaseReport `json:"databases" yaml:"databases"`
	TotalDatabases int              `json:"total_databases" yaml:"total_databases"`
	SizeOnDisk     map[string]int64 `json:"size_on_disk,omitempty" yaml:"size_on_disk,omitempty"`
	TotalSize      int64            `json:"total_size,omitempty" yaml:"total_size,omitempty"`
	Error          string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Size returns the on-disk size the server reported for a database.
func (r *ServerReport) Size(database string) (int64, bool) {
	if r.SizeOnDisk == nil {
		return 0, false
	}
	size, ok := r.SizeOnDisk[database]
	return size, ok
}

// Failures counts databases and collections that could not be inspected.
func (r *ServerReport) Failures() (databases, collections int) {
	for _, db := range r.Databases {
		if db.Status != StatusOK {
			databases++
		}
		for _, c := range db.Collections {
			if !c.CountKnown() {
				collections++
			}
		}
	}
	return databases, collections
}
