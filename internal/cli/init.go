package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mongoscope/internal/config"
)

var (
	initPath  string
	initPrint bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Init writes a commented sample mongoscope.yaml. Existing files are never
overwritten. Use --print to write the sample to stdout instead.

The connection string does not belong in this file; keep it in
MONGOSCOPE_URI or a .env file.`,
	PersistentPreRunE: skipConfig,
	RunE:              runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", "",
		"where to write the file (default: user config location)")
	initCmd.Flags().BoolVar(&initPrint, "print", false,
		"print the sample configuration instead of writing it")
}

func runInit(cmd *cobra.Command, args []string) error {
	if initPrint {
		fmt.Print(config.GenerateSampleConfig())
		return nil
	}

	path := initPath
	if path == "" {
		path = config.ConfigPath()
	}

	if err := config.WriteSampleConfig(path); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
