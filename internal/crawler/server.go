package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/ppiankov/mongoscope/internal/models"
	"github.com/ppiankov/mongoscope/internal/redact"
	"github.com/ppiankov/mongoscope/internal/target"
)

// systemDatabases are skipped when SkipSystemDatabases is set.
var systemDatabases = map[string]bool{
	"admin":  true,
	"config": true,
	"local":  true,
}

// ErrNoDatabase is returned when database mode has no database to open.
var ErrNoDatabase = errors.New("no database named in the connection target")

// Crawl runs one crawl in the given mode. The returned error is non-nil only
// when nothing could be crawled (the first connection failed) or the crawl
// was cancelled; in the latter case the partial report is returned as well.
func (c *Crawler) Crawl(ctx context.Context, root target.Target, mode models.CrawlMode) (*models.ServerReport, error) {
	if mode == models.ModeDatabase {
		return c.CrawlDatabaseTarget(ctx, root)
	}
	return c.CrawlServer(ctx, root)
}

// CrawlServer lists every database through the admin namespace and crawls
// each one over its own short-lived session.
func (c *Crawler) CrawlServer(ctx context.Context, root target.Target) (*models.ServerReport, error) {
	report := &models.ServerReport{
		Mode:      models.ModeServer,
		Target:    root.String(),
		Databases: []models.DatabaseReport{},
	}

	dbs, totalSize, err := c.listDatabases(ctx, root)
	if err != nil {
		var lerr *ListingError
		if !errors.As(err, &lerr) {
			return report, err
		}

		report.Error = lerr.Error()
		fallback := root.Database()
		if fallback == "" || fallback == target.AdminDatabase {
			return report, nil
		}
		c.logf("falling back to database %s", fallback)
		dbs = []models.DatabaseInfo{{Name: fallback}}
	} else {
		report.TotalDatabases = len(dbs)
		report.TotalSize = totalSize
		report.SizeOnDisk = make(map[string]int64, len(dbs))
		for _, db := range dbs {
			report.SizeOnDisk[db.Name] = db.SizeOnDisk
		}
	}

	names := make([]string, 0, len(dbs))
	for _, db := range dbs {
		if c.config.SkipSystemDatabases && systemDatabases[db.Name] {
			continue
		}
		names = append(names, db.Name)
	}

	c.logf("crawling %d database(s) with concurrency %d", len(names), c.config.Concurrency)
	report.Databases = c.crawlDatabases(ctx, root, names, c.budget(models.ModeServer))

	return report, ctx.Err()
}

// listDatabases opens the admin namespace just long enough to list databases.
// A failed open is returned as is; a failed listing as *ListingError.
func (c *Crawler) listDatabases(ctx context.Context, root target.Target) ([]models.DatabaseInfo, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.OperationTimeout)
	defer cancel()

	admin, err := c.open(ctx, root.WithDatabase(target.AdminDatabase))
	if err != nil {
		return nil, 0, err
	}
	defer c.closeSession(target.AdminDatabase, admin)

	dbs, totalSize, err := admin.ListDatabases(ctx)
	if err != nil {
		return nil, 0, &ListingError{Scope: "databases", Err: err}
	}
	return dbs, totalSize, nil
}

// CrawlDatabaseTarget crawls only the database named by root, skipping the
// admin listing.
func (c *Crawler) CrawlDatabaseTarget(ctx context.Context, root target.Target) (*models.ServerReport, error) {
	report := &models.ServerReport{
		Mode:      models.ModeDatabase,
		Target:    root.String(),
		Databases: []models.DatabaseReport{},
	}

	name := root.Database()
	if name == "" {
		return report, ErrNoDatabase
	}

	opCtx, cancel := context.WithTimeout(ctx, c.config.OperationTimeout)
	defer cancel()

	s, err := c.open(opCtx, root)
	if err != nil {
		return report, err
	}
	defer c.closeSession(name, s)

	db := c.CrawlDatabase(opCtx, s, c.budget(models.ModeDatabase))
	db.Name = name
	if db.Error == "" {
		db.Error = interruption(ctx, opCtx, c.config.OperationTimeout)
	}

	report.Databases = append(report.Databases, db)
	report.TotalDatabases = 1
	return report, ctx.Err()
}

// interruption describes why opCtx ended early: cancellation of the parent
// crawl or the per-database timeout. It is empty when opCtx is still live.
func interruption(parent, opCtx context.Context, timeout time.Duration) string {
	if err := parent.Err(); err != nil {
		return "crawl interrupted: " + err.Error()
	}
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("timed out after %s", timeout)
	}
	return ""
}

// crawlDatabases crawls names sequentially or on a bounded worker pool.
// Results keep the order of names: each worker writes only its own slot and
// the slice is read after every worker has finished.
func (c *Crawler) crawlDatabases(ctx context.Context, root target.Target, names []string, budget int) []models.DatabaseReport {
	results := make([]models.DatabaseReport, len(names))

	workers := c.config.Concurrency
	if workers > len(names) {
		workers = len(names)
	}

	if workers <= 1 {
		for i, name := range names {
			results[i] = c.crawlOne(ctx, root, name, budget)
		}
		return results
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		c.logf("worker pool unavailable, crawling sequentially: %v", err)
		for i, name := range names {
			results[i] = c.crawlOne(ctx, root, name, budget)
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			results[i] = skippedDatabase(name, err)
			continue
		}

		i, name := i, name
		task := func() {
			defer wg.Done()
			results[i] = c.crawlOne(ctx, root, name, budget)
		}

		wg.Add(1)
		if err := pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	return results
}

// crawlOne opens a session for one database, crawls it and closes it. It
// never fails: problems are recorded in the returned report.
func (c *Crawler) crawlOne(ctx context.Context, root target.Target, name string, budget int) (report models.DatabaseReport) {
	if err := ctx.Err(); err != nil {
		return skippedDatabase(name, err)
	}

	defer func() {
		if r := recover(); r != nil {
			report = inaccessibleDatabase(name, fmt.Errorf("crawl aborted: %v", r))
		}
	}()

	opCtx, cancel := context.WithTimeout(ctx, c.config.OperationTimeout)
	defer cancel()

	c.logf("crawling database %s", name)
	s, err := c.open(opCtx, root.WithDatabase(name))
	if err != nil {
		c.logf("database %s: %v", name, err)
		return inaccessibleDatabase(name, err)
	}
	defer c.closeSession(name, s)

	report = c.CrawlDatabase(opCtx, s, budget)
	report.Name = name
	if report.Error == "" {
		report.Error = interruption(ctx, opCtx, c.config.OperationTimeout)
	}
	return report
}

func (c *Crawler) closeSession(name string, s Session) {
	if err := s.Close(); err != nil {
		c.logf("closing %s: %v", name, err)
	}
}

func inaccessibleDatabase(name string, err error) models.DatabaseReport {
	return models.DatabaseReport{
		Name:        name,
		Status:      models.StatusInaccessible,
		Collections: []models.CollectionSummary{},
		Error:       redact.Text(err.Error()),
	}
}

func skippedDatabase(name string, err error) models.DatabaseReport {
	return models.DatabaseReport{
		Name:        name,
		Status:      models.StatusSkipped,
		Collections: []models.CollectionSummary{},
		Error:       err.Error(),
	}
}
