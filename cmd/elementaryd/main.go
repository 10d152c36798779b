// Package main provides the entry point for the elementaryd control-thread
// server and its companion CLI commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/b00lduck/elementary/cmd/elementaryd/commands"
	"github.com/b00lduck/elementary/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "elementaryd",
		Short: "elementaryd - real-time audio signal-graph control plane",
		Long: `elementaryd reconciles client-submitted signal graphs against a
live audio runtime over a WebSocket control connection.

Commands:
  serve         Run the WebSocket control-thread server
  render-graph  Reconcile a directive file against an empty graph and print the emitted instructions
  stats         Summarize a session log written by the serve command
  version       Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewRenderGraphCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "elementaryd %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
