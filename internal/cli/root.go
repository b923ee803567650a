package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the unipilotd command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "unipilotd",
		Short:        "UniPilot tutoring backend",
		Long:         "UniPilot daemon for running the tutoring API, applying migrations and managing course documents",
		SilenceUsage: true,
	}

	AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(MigrateCmd())
	rootCmd.AddCommand(IngestCmd())
	rootCmd.AddCommand(ExportCmd())

	return rootCmd
}
