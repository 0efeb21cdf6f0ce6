// Package cmd provides command-line interface commands for scriptdeck
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"scriptdeck/internal/log"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scriptdeck",
	Short: "Console for cataloguing, running and scheduling maintenance scripts",
	Long: `scriptdeck - Command-line console for operations scripts

Catalogues maintenance and automation scripts by category, runs them with
live output streaming and cancellation, and schedules them through the host
OS task scheduler.

Features:
  • Category-based script catalog (index.json)
  • Interactive execution with per-run log files
  • Once / daily / weekly / interval scheduling
  • Self-contained wrapper launchers for headless scheduled runs
  • Run history and optional mail reports`,
	Example: `  # List the catalog
  scriptdeck list

  # Run a script and stream its output
  scriptdeck run backup nightly-backup

  # Schedule a script every day at 02:00
  scriptdeck schedule set backup nightly-backup --daily 02:00

  # Show the registered tasks
  scriptdeck schedule list`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			log.SetDebugMode(true)
			log.Debug("Debug mode enabled")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file")
}
