/*
PURPOSE:
  Defines the root Cobra command for Variant Runner.
  Handles global flags and shared config loading.

REQUIREMENTS:
  User-specified:
  - --config selects the YAML file; --verbose enables debug logging.

  Implementation-discovered:
  - Every subcommand needs the same Load + override path, so it lives here.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/variant-runner/main.go
  - Calls: Child commands (run, list, signals, report, functions)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.
  - Usage is not printed for runtime errors.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Subcommands write to cmd.OutOrStdout() so tests can capture output.

RELATED FILES:
  - cmd/variant-runner/main.go
  - internal/config/config.go
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/daryltucker/variant-runner/internal/config"
	"github.com/daryltucker/variant-runner/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "variant-runner",
		Short: "Compare system-prompt variants across tasks and models",
		Long: `Runs every (model, prompt, task) combination against a generation API,
then compares the responses side by side and scores them for behavioral signals.
Use 'run --help' for experiment options.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	output.Logger.Debug("Configuration loaded", "models", cfg.ModelKeys(), "workers", cfg.Workers)
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./variant_runner.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
