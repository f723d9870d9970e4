package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nfrund/eventbus/internal/app"
	"github.com/nfrund/eventbus/internal/eventbus"
)

var (
	kindsScenarioPath string
	kindsOutputFormat string
)

// kindsCmd represents the kinds command
var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the message kinds the wargame module publishes",
	Long: `Deploy a scenario without playing it and list every wargame kind with
the number of subscribers it has when the battle starts.

Examples:
  skirmish kinds --scenario battles/ridge.yaml
  skirmish kinds --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(kindsOutputFormat); err != nil {
			return err
		}
		cfg, injector, err := setup(cmd, kindsScenarioPath)
		if err != nil {
			return err
		}
		defer app.Shutdown(injector)

		kinds, err := app.ListKinds(injector, cfg.ScenarioPath)
		if err != nil {
			return err
		}

		if kindsOutputFormat == "json" {
			return printJSON(cmd.OutOrStdout(), struct {
				Kinds []eventbus.KindInfo `json:"kinds"`
				Count int                 `json:"count"`
			}{Kinds: kinds, Count: len(kinds)})
		}
		printKindsTable(cmd.OutOrStdout(), kinds)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
	kindsCmd.Flags().StringVarP(&kindsScenarioPath, "scenario", "s", "", "Scenario file (overrides SKIRMISH_SCENARIO)")
	kindsCmd.Flags().StringVarP(&kindsOutputFormat, "format", "f", "table", "Output format: table, json")
}
