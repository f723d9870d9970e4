package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/eventbus/internal/app"
)

var (
	runScenarioPath string
	runOutputFormat string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a scenario",
	Long: `Play a YAML scenario over the event bus and print the outcome.

Logs go to stderr; stdout carries only the result.

Configuration comes from the environment (or a .env file):
  LOG_FORMAT         text | json (default text)
  LOG_LEVEL          debug | info | warn | error (default info)
  SKIRMISH_SCENARIO  scenario path used when --scenario is not given

Examples:
  skirmish run --scenario battles/ridge.yaml
  skirmish run --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(runOutputFormat); err != nil {
			return err
		}
		cfg, injector, err := setup(cmd, runScenarioPath)
		if err != nil {
			return err
		}
		defer app.Shutdown(injector)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		result, err := app.RunScenario(ctx, injector, cfg.ScenarioPath)
		if err != nil {
			return err
		}

		if runOutputFormat == "json" {
			return printJSON(cmd.OutOrStdout(), result)
		}
		printResultTable(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runScenarioPath, "scenario", "s", "", "Scenario file (overrides SKIRMISH_SCENARIO)")
	runCmd.Flags().StringVarP(&runOutputFormat, "format", "f", "table", "Output format: table, json")
}
