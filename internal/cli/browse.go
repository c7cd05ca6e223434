package cli

import (
	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/tui"
)

var browseTheme string

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().StringVar(&browseTheme, "theme", "default", "Color theme (default, high-contrast)")
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse templates interactively",
	Long:  "Browse the template library in a terminal UI, with raw and composed previews.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if IsNonInteractive() {
			return &PreflightError{
				Message:  "browse requires an interactive terminal",
				Hint:     "Run without --non-interactive and with a TTY",
				NextStep: "spindle templates list",
			}
		}

		return tui.Run(tui.Config{
			Store: GetConfig().NewStore(),
			Theme: browseTheme,
		})
	},
}
