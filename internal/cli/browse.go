package cli

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ppiankov/mongoscope/internal/reporter"
	"github.com/ppiankov/mongoscope/internal/tui"
)

var (
	// isTerminal reports whether stdout can host the interactive browser.
	isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

	runBrowser = tui.Run
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Crawl, then explore the report interactively",
	Long: `Browse runs the same crawl as the root command and opens the result in an
interactive table: search with /, filter by database with d, cycle the sort
with s and copy the selected row with c.

When stdout is not a terminal the plain text report is printed instead.`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	report, err := crawlReport(cmd.Context(), cfg)
	if report == nil || (err != nil && !isInterrupted(err)) {
		return err
	}

	if !isTerminal() {
		logVerbose("stdout is not a terminal, printing the text report")
		if outErr := generateOutput(report, reporter.FormatText, ""); outErr != nil {
			return outErr
		}
		return err
	}

	if uiErr := runBrowser(report); uiErr != nil {
		return uiErr
	}
	return err
}
