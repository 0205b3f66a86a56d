package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorumlabs/quorum/internal/buildconfig"
)

var rootCmd = &cobra.Command{
	Use:           "quorum",
	Short:         "Quorum - iterative evidence research engine",
	Long:          "Runs multi-round evidence research with persistent vector memory, deterministic scoring, and conflict resolution.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quorum %s (%s)\n", buildconfig.Version(), buildconfig.Commit())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}
