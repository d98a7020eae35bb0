package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mongoscope/internal/config"
	"github.com/ppiankov/mongoscope/internal/redact"
	"github.com/ppiankov/mongoscope/internal/target"
)

var doctorFormat string

// doctorConfigErr holds a configuration load failure so doctor can report it.
var doctorConfigErr error

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity",
	Long: `Doctor validates your mongoscope setup end-to-end:

  1. Config file: found and valid?
  2. Connection string: set and well-formed?
  3. Connectivity: does the server answer a ping?
  4. Privileges: may these credentials list databases?

Fix the issues it reports, then run 'mongoscope'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		doctorConfigErr = loadConfig(cmd, args)
		if doctorConfigErr != nil {
			cfg = config.DefaultConfig()
		}
		return nil
	},
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "text",
		"output format: text or json")
}

type doctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "warn", "fail"
	Detail string `json:"detail,omitempty"`
}

type doctorResult struct {
	Checks  []doctorCheck `json:"checks"`
	Summary string        `json:"summary"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []doctorCheck

	// 1. Config file
	checks = append(checks, checkConfig(doctorConfigErr))

	// 2. Connection string
	root, uriCheck := checkURI(cfg)
	checks = append(checks, uriCheck)

	// 3-4. Connectivity and privileges
	if uriCheck.Status == "ok" {
		checks = append(checks, checkServer(cmd.Context(), root)...)
	}

	result := buildDoctorResult(checks)

	if doctorFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return writeDoctorText(result)
}

func buildDoctorResult(checks []doctorCheck) doctorResult {
	fails, warns := 0, 0
	for _, c := range checks {
		switch c.Status {
		case "fail":
			fails++
		case "warn":
			warns++
		}
	}

	summary := "all checks passed"
	if fails > 0 {
		summary = fmt.Sprintf("%d issue(s) found", fails)
	} else if warns > 0 {
		summary = fmt.Sprintf("ok with %d warning(s)", warns)
	}

	return doctorResult{Checks: checks, Summary: summary}
}

func writeDoctorText(result doctorResult) error {
	icons := map[string]string{
		"ok":   "✓",
		"warn": "△",
		"fail": "✗",
	}

	for _, c := range result.Checks {
		icon := icons[c.Status]
		if c.Detail != "" {
			fmt.Printf("  %s %-12s %s\n", icon, c.Name, redact.Text(c.Detail))
		} else {
			fmt.Printf("  %s %s\n", icon, c.Name)
		}
	}

	fmt.Printf("\n%s\n", result.Summary)
	return nil
}

func checkConfig(loadErr error) doctorCheck {
	if loadErr != nil {
		return doctorCheck{
			Name:   "config",
			Status: "fail",
			Detail: loadErr.Error(),
		}
	}

	path := config.ConfigPath()
	if configFile != "" {
		path = configFile
	}

	if _, err := os.Stat(path); err != nil {
		if _, err := os.Stat("mongoscope.yaml"); err == nil {
			return doctorCheck{Name: "config", Status: "ok", Detail: "mongoscope.yaml"}
		}
		return doctorCheck{
			Name:   "config",
			Status: "ok",
			Detail: "no config file (using defaults). Run: mongoscope init",
		}
	}

	return doctorCheck{
		Name:   "config",
		Status: "ok",
		Detail: path,
	}
}

func checkURI(c *config.Config) (target.Target, doctorCheck) {
	if err := c.RequireURI(); err != nil {
		return target.Target{}, doctorCheck{
			Name:   "uri",
			Status: "fail",
			Detail: err.Error(),
		}
	}

	root, err := target.Parse(c.URI)
	if err != nil {
		return target.Target{}, doctorCheck{
			Name:   "uri",
			Status: "fail",
			Detail: err.Error(),
		}
	}

	return root, doctorCheck{
		Name:   "uri",
		Status: "ok",
		Detail: root.String(),
	}
}

// checkServer pings the admin namespace and tries to list databases.
func checkServer(ctx context.Context, root target.Target) []doctorCheck {
	open := openSession(connOptions(cfg))

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout+cfg.OperationTimeout)
	defer cancel()

	s, err := open(ctx, root.WithDatabase(target.AdminDatabase))
	if err != nil {
		return []doctorCheck{{
			Name:   "connect",
			Status: "fail",
			Detail: err.Error(),
		}}
	}
	defer func() { _ = s.Close() }()

	checks := []doctorCheck{{
		Name:   "connect",
		Status: "ok",
		Detail: root.Hosts(),
	}}

	dbs, _, err := s.ListDatabases(ctx)
	if err != nil {
		detail := "listDatabases not permitted; server mode will fall back to the database in the URI"
		if root.Database() == "" || root.Database() == target.AdminDatabase {
			detail = "listDatabases not permitted; use --mode database with a database in the URI"
		}
		checks = append(checks, doctorCheck{
			Name:   "privileges",
			Status: "warn",
			Detail: detail,
		})
		return checks
	}

	checks = append(checks, doctorCheck{
		Name:   "privileges",
		Status: "ok",
		Detail: fmt.Sprintf("%d database(s) visible", len(dbs)),
	})
	return checks
}
