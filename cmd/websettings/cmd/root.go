package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "websettings",
	Short: "websettings configures constrained devices through one-time web sessions",
	Long: `A device registers its configuration schema and shows a short one-time code
on screen; a human enters the code in a browser, edits the settings, and the
device picks the changes up by long-polling a revision number.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
