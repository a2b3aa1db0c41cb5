package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "suidash",
	Short: "Sui address dashboard backend",
	Long: `Backend for the Sui address dashboard. Enriches addresses with
balance, community-membership, and activity-tier data fetched from a Sui
fullnode and the local query tool, behind an in-memory
stale-while-revalidate cache that collapses per-address round trips into
batched oracle calls.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
