// Package crawler discovers databases and collections on a MongoDB server and
// builds crawl reports. It never writes to a terminal.
package crawler

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ppiankov/mongoscope/internal/models"
	"github.com/ppiankov/mongoscope/internal/redact"
	"github.com/ppiankov/mongoscope/internal/target"
)

const (
	// DefaultSmallThreshold is the count up to which a collection is sampled
	// in full.
	DefaultSmallThreshold = 5

	// DefaultSampleWindow is how many documents are shown for larger
	// collections.
	DefaultSampleWindow = 1

	// DefaultOperationTimeout bounds the crawl of one database.
	DefaultOperationTimeout = 60 * time.Second

	MaxSmallThreshold = 10
	MaxSampleWindow   = 3
)

// Session is the part of a live connection the crawler reads from. Each
// session is owned by exactly one goroutine.
type Session interface {
	DatabaseName() string
	ListDatabases(ctx context.Context) ([]models.DatabaseInfo, int64, error)
	ListCollectionNames(ctx context.Context) ([]string, error)
	CountDocuments(ctx context.Context, collection string) (int64, error)
	FindDocuments(ctx context.Context, collection string, limit int64) ([]bson.D, error)
	Close() error
}

// OpenFunc opens a session against a target.
type OpenFunc func(ctx context.Context, t target.Target) (Session, error)

// Config controls sampling, redaction and scheduling.
type Config struct {
	SmallThreshold int
	SampleWindow   int
	Policy         redact.Policy
	// PreviewBytes overrides the per-mode preview budget when positive.
	PreviewBytes int
	// Concurrency is the number of databases crawled at once.
	Concurrency      int
	OperationTimeout time.Duration
	// SkipSystemDatabases omits admin, config and local in server mode.
	SkipSystemDatabases bool
	// SkipSystemCollections omits system.* collections.
	SkipSystemCollections bool
	// Logf receives progress messages. Optional.
	Logf func(format string, args ...interface{})
}

// Crawler walks a server or a single database.
type Crawler struct {
	open   OpenFunc
	config Config
}

// New creates a crawler. Zero config values fall back to defaults.
func New(open OpenFunc, config Config) *Crawler {
	if config.SmallThreshold <= 0 {
		config.SmallThreshold = DefaultSmallThreshold
	}
	if config.SampleWindow <= 0 {
		config.SampleWindow = DefaultSampleWindow
	}
	if config.SampleWindow > config.SmallThreshold {
		config.SampleWindow = config.SmallThreshold
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.OperationTimeout <= 0 {
		config.OperationTimeout = DefaultOperationTimeout
	}
	if len(config.Policy.IdentityFields) == 0 {
		config.Policy = redact.DefaultPolicy()
	}

	return &Crawler{
		open:   open,
		config: config,
	}
}

func (c *Crawler) logf(format string, args ...interface{}) {
	if c.config.Logf != nil {
		c.config.Logf(format, args...)
	}
}

// budget returns the preview budget for a crawl mode.
func (c *Crawler) budget(mode models.CrawlMode) int {
	if c.config.PreviewBytes > 0 {
		return c.config.PreviewBytes
	}
	if mode == models.ModeDatabase {
		return redact.DatabasePreviewBytes
	}
	return redact.ServerPreviewBytes
}

// ListingError reports databases or collections that could not be enumerated.
type ListingError struct {
	Scope    string // "databases" or "collections"
	Database string
	Err      error
}

func (e *ListingError) Error() string {
	if e.Database == "" {
		return redact.Text(fmt.Sprintf("could not list %s: %v", e.Scope, e.Err))
	}
	return redact.Text(fmt.Sprintf("could not list %s of %s: %v", e.Scope, e.Database, e.Err))
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// ProbeError reports a collection that could not be counted or sampled.
type ProbeError struct {
	Collection string
	Op         string // "count" or "sample"
	Err        error
}

func (e *ProbeError) Error() string {
	return redact.Text(fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err))
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
