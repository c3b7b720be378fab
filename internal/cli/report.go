/*
PURPOSE:
  Defines the 'report' subcommand.
  Re-renders the console report from a saved JSON artifact.

REQUIREMENTS:
  Implementation-discovered:
  - Artifacts outlive the console; comparisons and the matrix must be
    reproducible without re-running any generation.
  - The current rule table is applied, so a tuned table can be tried
    against old results.

ARCHITECTURE INTEGRATION:
  - Calls: internal/output (ReadArtifact, Comparison, SignalMatrix, TokenSummary)

ERROR HANDLING:
  - Unreadable or malformed artifacts return an error.

USAGE:
  variant-runner report output/experiment_haiku.json --focus-task task_G_contrast
*/

package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/daryltucker/variant-runner/internal/model"
	"github.com/daryltucker/variant-runner/internal/output"
	"github.com/daryltucker/variant-runner/internal/signals"
)

var (
	reportTask  string
	reportModel string
)

var reportCmd = &cobra.Command{
	Use:   "report FILE",
	Short: "Re-render comparisons and the signal matrix from a saved artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := signals.New(cfg.Rules())
		if err != nil {
			return err
		}

		records, err := output.ReadArtifact(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		focus := output.Filter{Task: reportTask, Model: reportModel}

		var models, tasks []string
		for _, r := range records {
			if !slices.Contains(models, r.Model) {
				models = append(models, r.Model)
			}
			if !slices.Contains(tasks, r.Task) {
				tasks = append(tasks, r.Task)
			}
		}
		slices.Sort(models)
		slices.Sort(tasks)

		for _, m := range models {
			if focus.Model != "" && focus.Model != m {
				continue
			}
			byModel := slices.DeleteFunc(slices.Clone(records), func(r model.ResultRecord) bool {
				return r.Model != m
			})
			for _, t := range tasks {
				if focus.Task != "" && focus.Task != t {
					continue
				}
				output.Comparison(out, byModel, t, cfg.DisplayLimit)
			}
		}

		output.SignalMatrix(out, records, c, focus)
		output.FailureSummary(out, records)
		output.TokenSummary(out, output.Totals(records))
		fmt.Fprintf(out, "\n%d records from %s\n", len(records), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportTask, "focus-task", "", "Only show this task")
	reportCmd.Flags().StringVar(&reportModel, "focus-model", "", "Only show this model")
}
