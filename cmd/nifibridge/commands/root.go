// Package commands implements the nifibridge server CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time via ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "nifibridge",
	Short: "NiFi Bridge - tool and workflow middleware for Apache NiFi",
	Long: `NiFi Bridge exposes Apache NiFi management as a catalog of JSON tools
and guided workflows over HTTP, for dispatch by LLM agents and chat UIs.

It connects to one or more preconfigured NiFi instances and serves the
tool catalog, tool dispatch, workflow execution and server-sent event
streams on a single port.

Use "nifibridge [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/nifibridge/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(configCmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
