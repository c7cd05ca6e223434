// Package cli implements the spindle command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/config"
	"github.com/spindle-dev/spindle/internal/db"
	"github.com/spindle-dev/spindle/internal/logging"
)

var (
	cfg *config.Config

	jsonOutput     bool
	nonInteractive bool
	noProgress     bool

	flagTemplatesDir string
	flagNoCache      bool
	flagLogLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "spindle",
	Short: "Compose instruction templates and coordinate portal support agents",
	Long: `Spindle composes layered instruction templates for the developer-portal
support agents and launches their external runtimes, recording every
render and run in a local event log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if flagTemplatesDir != "" {
			loaded.Templates.Dir = flagTemplatesDir
		}
		if flagNoCache {
			loaded.Templates.NoCache = true
		}
		if flagLogLevel != "" {
			loaded.Log.Level = flagLogLevel
		}
		logging.Setup(loaded.Log.Level, loaded.Log.Format)
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; fail when input would be required")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable progress output on stderr")
	rootCmd.PersistentFlags().StringVar(&flagTemplatesDir, "templates-dir", "", "Override the template search paths with a single directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Re-read templates from source on every access")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

// GetConfig returns the loaded configuration, or nil before PersistentPreRunE.
func GetConfig() *config.Config {
	return cfg
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func openDatabase() (*db.DB, error) {
	return db.Open(GetConfig().Data.Path)
}
