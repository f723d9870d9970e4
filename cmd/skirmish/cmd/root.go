package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skirmish",
	Short: "Event bus demonstration driven by wargame scenarios",
	Long: `skirmish plays wargame scenarios over an in-process event bus.

Available commands:
  run      Play a scenario and print the result
  kinds    List the message kinds the wargame module publishes
  version  Print the version

Use "skirmish [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
