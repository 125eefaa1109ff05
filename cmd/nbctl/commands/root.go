// Package commands implements the nbctl command tree.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/nifiops/nifibridge/cmd/nbctl/cmdutil"
)

// Version information set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "nbctl",
	Short: "Operator CLI for the NiFi bridge",
	Long: `nbctl talks to a running nifibridge server over its HTTP API.

It lists the configured NiFi servers, browses and calls the tool catalog,
and runs guided workflows. Point it at the bridge with --bridge-url or the
NIFIBRIDGE_URL environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmdutil.Flags.BridgeURL, "bridge-url", "",
		"Bridge API base URL (default http://localhost:8089, or NIFIBRIDGE_URL)")
	rootCmd.PersistentFlags().StringVarP(&cmdutil.Flags.Server, "server", "s", "",
		"NiFi server id to target (sent as X-Nifi-Server-Id)")
	rootCmd.PersistentFlags().StringVar(&cmdutil.Flags.RequestID, "request-id", "",
		"Correlation id to attach to requests")
	rootCmd.PersistentFlags().StringVarP(&cmdutil.Flags.Output, "output", "o", "table",
		"Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&cmdutil.Flags.NoColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serversCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(workflowsCmd)
}
