/*
PURPOSE:
  Defines the 'list' subcommand.
  Shows the catalog: model keys, prompt variants and tasks.

REQUIREMENTS:
  User-specified:
  - List what can be run before running it.

  Implementation-discovered:
  - --remote queries the Ollama host for installed models, which helps
    when wiring local models into the config.

ARCHITECTURE INTEGRATION:
  - Calls: internal/catalog, internal/engine.Ollama.ListModels()

ERROR HANDLING:
  - Content that cannot be resolved is shown as an error in place of its size.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  variant-runner list
  variant-runner list --remote

RELATED FILES:
  - internal/engine/ollama.go
*/

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/daryltucker/variant-runner/internal/config"
	"github.com/daryltucker/variant-runner/internal/engine"
)

var listRemote bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known models, prompt variants and tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if listRemote {
			pc := cfg.Providers[config.ProviderOllama]
			o := engine.NewOllama(pc.Endpoint, cfg.RequestTimeout)
			defer o.Close()

			fmt.Fprintf(out, "Querying %s...\n", pc.Endpoint)
			models, err := o.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list ollama models: %w", err)
			}
			for _, m := range models {
				fmt.Fprintf(out, "- %s\n", m)
			}
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tPROVIDER\tID")
		for _, key := range cfg.ModelKeys() {
			m := cfg.Models[key]
			marker := ""
			for _, d := range cfg.DefaultModels {
				if d == key {
					marker = " (default)"
				}
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%s\n", key, marker, m.Provider, m.ID)
		}
		tw.Flush()

		listContent(cmd, "PROMPT", cfg.PromptNames(), cfg.ResolvePrompt)
		listContent(cmd, "TASK", cfg.TaskNames(), cfg.ResolveTask)
		return nil
	},
}

func listContent(cmd *cobra.Command, title string, names []string, resolve func(string) (string, error)) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\n%s\tSIZE\n", title)
	for _, name := range names {
		text, err := resolve(name)
		if err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\n", name, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s chars\n", name, humanize.Comma(int64(len([]rune(text)))))
	}
	tw.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listRemote, "remote", false, "Query the configured Ollama host for installed models")
}
