package cmd

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/eventbus/internal/app"
	"github.com/nfrund/eventbus/internal/config"
	"github.com/nfrund/eventbus/internal/logging"
)

// setup loads configuration, sends logs to the command's stderr and builds the
// service container. A non-empty scenarioPath overrides SKIRMISH_SCENARIO.
func setup(cmd *cobra.Command, scenarioPath string) (*config.Config, *do.RootScope, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if scenarioPath != "" {
		cfg.ScenarioPath = scenarioPath
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
	return cfg, app.NewContainer(cfg, afero.NewOsFs(), logger), nil
}

func checkFormat(format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format %q: valid formats are table, json", format)
	}
	return nil
}
