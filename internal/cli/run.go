/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes one comparison run for the given model keys.

REQUIREMENTS:
  User-specified:
  - Model keys as positional arguments; none means the configured default.
  - Unknown keys fail before any request is sent, with a non-zero exit.
  - Flags for overrides.

  Implementation-discovered:
  - Load config first, apply flag overrides, validate again.
  - Only flags the user actually set override the config file.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Runner.Run()
  - Uses: internal/config

ERROR HANDLING:
  - Returns *model.ConfigurationError or *model.SerializationError to main.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Validate -> Runner.Run.

USAGE:
  variant-runner run haiku sonnet --tasks task_A_pipeline -w 8

RELATED FILES:
  - internal/cli/root.go
  - internal/engine/runner.go
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/daryltucker/variant-runner/internal/config"
	"github.com/daryltucker/variant-runner/internal/engine"
	"github.com/daryltucker/variant-runner/internal/output"
)

var (
	promptsFilter   []string
	tasksFilter     []string
	workersOverride int
	outputOverride  string
	runNameOverride string
	maxTokens       int
	focusTask       string
	focusModel      string
	csvPath         string
	metricsFile     string
)

var runCmd = &cobra.Command{
	Use:   "run [models...]",
	Short: "Run every prompt variant against every task for the given models",
	Long: `Executes one comparison run.
The process follows a fixed protocol:
1. Pre-flight: model keys, prompts and tasks are checked before any request is sent.
2. Dispatch: for each model, all (prompt, task) units run through a bounded worker pool.
3. Report: side-by-side comparisons per task, then the signal matrix and token usage.
4. Save: every record, failures included, is written to a JSON artifact.

Existing artifacts are never overwritten; a numeric suffix is added instead
(e.g., experiment_haiku.json.1).`,
	Example: `  # Run the default model
  variant-runner run

  # Compare two models
  variant-runner run haiku sonnet

  # Only some prompts and tasks, with more workers
  variant-runner run opus --prompts vanilla --tasks task_A_pipeline,task_G_contrast -w 8

  # Focus the report on one task and export the matrix
  variant-runner run --focus-task task_G_contrast --csv matrix.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// 2. Overrides
		if err := applyRunOverrides(cmd, cfg); err != nil {
			return err
		}

		// 3. Execution
		opts := engine.Options{
			Models:      args,
			Prompts:     promptsFilter,
			Tasks:       tasksFilter,
			Focus:       output.Filter{Task: focusTask, Model: focusModel},
			CSVPath:     csvPath,
			MetricsFile: metricsFile,
		}
		summary, err := newRunner(cfg, cmd).Run(cmd.Context(), opts)
		if err != nil {
			return err
		}
		output.Logger.Debug("Run complete", "records", len(summary.Records), "artifact", summary.ArtifactPath)
		return nil
	},
}

// newRunner is replaced in tests to avoid real generation clients.
var newRunner = func(cfg *config.Config, cmd *cobra.Command) *engine.Runner {
	return engine.NewRunner(cfg, cmd.OutOrStdout())
}

func applyRunOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = workersOverride
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputOverride
	}
	if flags.Changed("run-name") {
		cfg.RunName = runNameOverride
	}
	if flags.Changed("max-tokens") {
		cfg.MaxTokens = maxTokens
	}
	return cfg.Validate()
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&promptsFilter, "prompts", nil, "Comma-separated subset of prompt variants (default all)")
	runCmd.Flags().StringSliceVar(&tasksFilter, "tasks", nil, "Comma-separated subset of tasks (default all)")
	runCmd.Flags().IntVarP(&workersOverride, "workers", "w", engine.DefaultWorkers, "Number of concurrent generation calls")
	runCmd.Flags().StringVarP(&outputOverride, "output-dir", "o", "", "Output directory for the JSON artifact")
	runCmd.Flags().StringVar(&runNameOverride, "run-name", "", "Artifact name prefix")
	runCmd.Flags().IntVar(&maxTokens, "max-tokens", 2048, "Maximum output tokens per response")
	runCmd.Flags().StringVar(&focusTask, "focus-task", "", "Only show comparisons and matrix rows for this task")
	runCmd.Flags().StringVar(&focusModel, "focus-model", "", "Only show comparisons and matrix rows for this model")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "Also write the signal matrix to this CSV file")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write dispatch metrics in Prometheus text format to this file")
}
