package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "repofetch",
		Short: "Mirror the dependency closure of pacman packages",
		Long: `Repofetch resolves package, group or capability names against a set of
pacman repositories and downloads the full transitive closure of their
runtime dependencies, fetching each artifact exactly once.

One catalog is loaded per repository/architecture pair, in the order
given on the command line; that order is also the resolution order.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewResolveCmd())
	rootCmd.AddCommand(NewFetchCmd())

	return rootCmd
}
