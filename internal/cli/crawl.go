package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/ppiankov/mongoscope/internal/config"
	"github.com/ppiankov/mongoscope/internal/conn"
	"github.com/ppiankov/mongoscope/internal/crawler"
	"github.com/ppiankov/mongoscope/internal/models"
	"github.com/ppiankov/mongoscope/internal/redact"
	"github.com/ppiankov/mongoscope/internal/reporter"
	"github.com/ppiankov/mongoscope/internal/target"
)

// openSession builds the crawler's open function. Tests replace it.
var openSession = func(opts conn.Options) crawler.OpenFunc {
	return func(ctx context.Context, t target.Target) (crawler.Session, error) {
		h, err := conn.Open(ctx, t, opts)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	report, err := crawlReport(cmd.Context(), cfg)
	if report == nil || (err != nil && !isInterrupted(err)) {
		return err
	}

	if outErr := generateOutput(report, cfg.Format, cfg.Output); outErr != nil {
		return fmt.Errorf("failed to write report: %w", outErr)
	}
	return err
}

// crawlReport resolves the target from c and runs one crawl. A non-nil report
// with an interruption error is partial and still worth rendering.
func crawlReport(ctx context.Context, c *config.Config) (*models.ServerReport, error) {
	if err := c.RequireURI(); err != nil {
		return nil, err
	}

	root, err := target.Parse(c.URI)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "uri", Reason: err.Error()}
	}

	mode := c.CrawlMode()
	if mode == models.ModeDatabase && c.Database != "" {
		root = root.WithDatabase(c.Database)
	}

	logVerbose("crawling %s in %s mode", root, mode)

	cr := crawler.New(openSession(connOptions(c)), crawlerConfig(c))
	report, err := cr.Crawl(ctx, root, mode)
	if err != nil {
		if isInterrupted(err) {
			return report, fmt.Errorf("crawl interrupted, report is partial: %w", err)
		}
		return nil, err
	}

	dbFailures, collFailures := report.Failures()
	logVerbose("crawled %d database(s): %d not fully accessible, %d unreadable collection(s)",
		len(report.Databases), dbFailures, collFailures)

	return report, nil
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

func connOptions(c *config.Config) conn.Options {
	opts := conn.Options{ConnectTimeout: c.ConnectTimeout}
	if c.Debug {
		opts.Sink = conn.NewHCLogSink(hclog.New(&hclog.LoggerOptions{
			Name:   "mongo-driver",
			Level:  hclog.Debug,
			Output: os.Stderr,
		}))
	}
	return opts
}

func crawlerConfig(c *config.Config) crawler.Config {
	return crawler.Config{
		SmallThreshold:        c.Threshold,
		SampleWindow:          c.Window,
		Policy:                redact.Policy{IdentityFields: c.IdentityFields},
		PreviewBytes:          c.PreviewBytes,
		Concurrency:           c.Concurrency,
		OperationTimeout:      c.OperationTimeout,
		SkipSystemDatabases:   c.SkipSystem,
		SkipSystemCollections: c.SkipSystem,
		Logf:                  logDebug,
	}
}

// generateOutput renders the report to stdout or outputPath.
func generateOutput(report *models.ServerReport, format, outputPath string) error {
	var writer io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		writer = f
	}

	r, err := reporter.New(format, writer)
	if err != nil {
		return err
	}
	if err := r.Generate(report); err != nil {
		return err
	}

	if outputPath != "" {
		logVerbose("report written to %s", outputPath)
	}
	return nil
}
