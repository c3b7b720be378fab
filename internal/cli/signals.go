package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/daryltucker/variant-runner/internal/signals"
)

var showMatches bool

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Show the active signal rule table",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := activeClassifier()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tLABEL\tPATTERNS")
		for _, r := range c.Rules() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Category, r.Header(), strings.Join(r.Patterns, ", "))
		}
		return tw.Flush()
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify FILE...",
	Short: "Score text files against the signal rule table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := activeClassifier()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		header := []string{"FILE"}
		for _, r := range c.Rules() {
			header = append(header, r.Header())
		}
		header = append(header, "TOTAL")
		fmt.Fprintln(tw, strings.Join(header, "\t"))

		var failed int
		matches := make(map[string]map[signals.Category][]string)
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				failed++
				continue
			}
			text := string(data)
			v := c.ClassifyText(text)

			row := []string{path}
			for _, cat := range c.Categories() {
				row = append(row, fmt.Sprint(v.Get(cat)))
			}
			row = append(row, fmt.Sprint(v.Total()))
			fmt.Fprintln(tw, strings.Join(row, "\t"))

			if showMatches {
				matches[path] = c.Matches(text)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if showMatches {
			for _, path := range args {
				m, ok := matches[path]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "\n%s:\n", path)
				for _, cat := range c.Categories() {
					if len(m[cat]) > 0 {
						fmt.Fprintf(out, "  %-22s %s\n", cat, strings.Join(m[cat], ", "))
					}
				}
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be read", failed, len(args))
		}
		return nil
	},
}

func activeClassifier() (*signals.Classifier, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return signals.New(cfg.Rules())
}

func init() {
	signalsCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(signalsCmd)
	classifyCmd.Flags().BoolVar(&showMatches, "matches", false, "Also print which patterns matched")
}
