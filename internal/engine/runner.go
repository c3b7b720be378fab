/*
PURPOSE:
  High-level runner that orchestrates one comparison run.
  Catalog -> per-model dispatch phases -> comparisons -> signal matrix ->
  token summary -> artifact.

REQUIREMENTS:
  User-specified:
  - Fail on unknown model keys before anything is sent.
  - Run each model's batch through the worker pool and show per-task
    comparisons after each batch.
  - Print the signal matrix and token usage, then save every record.

  Implementation-discovered:
  - Prompt and task text are resolved up front so missing content is a
    configuration error, not a per-unit failure.
  - Console reporting happens before the artifact write, so a failed write
    never loses the report.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/catalog, internal/engine, internal/output, internal/signals

ERROR HANDLING:
  - *model.ConfigurationError before dispatch.
  - Per-unit failures stay in their records.
  - *model.SerializationError after reporting.

IMPLEMENTATION RULES:
  - Generators are opened for the run and closed when it ends.

USAGE:
  r := engine.NewRunner(cfg, os.Stdout)
  err := r.Run(ctx, engine.Options{Models: []string{"haiku"}})

RELATED FILES:
  - internal/engine/dispatcher.go
  - internal/output/report.go
*/

package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/daryltucker/variant-runner/internal/catalog"
	"github.com/daryltucker/variant-runner/internal/config"
	"github.com/daryltucker/variant-runner/internal/model"
	"github.com/daryltucker/variant-runner/internal/output"
	"github.com/daryltucker/variant-runner/internal/signals"
)

// Options selects what one run covers.
type Options struct {
	// Models are the model keys to run; empty means the configured defaults.
	Models []string
	// Prompts and Tasks restrict the run; empty means all known.
	Prompts []string
	Tasks   []string
	// Focus narrows comparisons and the matrix to one task or model.
	Focus output.Filter
	// CSVPath, when set, also writes the signal matrix as CSV.
	CSVPath string
	// MetricsFile, when set, writes dispatch metrics in Prometheus text format.
	MetricsFile string
}

// OpenFunc opens the generation clients for a run.
type OpenFunc func(ctx context.Context, cfg *config.Config, keys []string) (*Generators, error)

// Summary describes a finished run.
type Summary struct {
	Records      []model.ResultRecord
	ArtifactPath string
	Totals       output.TokenTotals
}

// Runner executes comparison runs.
type Runner struct {
	cfg  *config.Config
	out  io.Writer
	open OpenFunc
}

// NewRunner creates a runner that reports to out.
func NewRunner(cfg *config.Config, out io.Writer) *Runner {
	return &Runner{cfg: cfg, out: out, open: OpenGenerators}
}

// WithOpener replaces how generation clients are opened.
func (r *Runner) WithOpener(open OpenFunc) *Runner {
	r.open = open
	return r
}

// Run executes the full comparison run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	cfg := r.cfg

	keys := opts.Models
	if len(keys) == 0 {
		keys = cfg.DefaultModels
	}

	// 1. Pre-flight: every key, prompt, task and rule checked before any call.
	cat := catalog.New(cfg)
	units, err := cat.Units(keys, opts.Prompts, opts.Tasks)
	if err != nil {
		return nil, err
	}
	classifier, err := signals.New(cfg.Rules())
	if err != nil {
		return nil, &model.ConfigurationError{Kind: "config", Err: err}
	}
	texts, err := r.resolveTexts(units)
	if err != nil {
		return nil, err
	}

	gens, err := r.open(ctx, cfg, keys)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := gens.Close(); err != nil {
			output.Logger.Warn("Failed to close generation clients", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	dispatcher := NewDispatcher(NewAdapter(gens, cfg.MaxTokens), cfg.Workers, r.out, cfg.ErrorExcerpt).
		WithMetrics(NewMetrics(registry))

	// 2. Execution: one pool per model phase.
	var all []model.ResultRecord
	for _, key := range dedupe(keys) {
		phase := texts.jobs(catalog.ForModel(units, key))
		output.PhaseBanner(r.out, key, len(phase), texts.prompts, texts.tasks)
		output.Logger.Debug("Dispatching phase", "model", key, "units", len(phase), "workers", dispatcher.Workers())

		records := dispatcher.Dispatch(ctx, phase)
		all = append(all, records...)

		if opts.Focus.Model != "" && opts.Focus.Model != key {
			continue
		}
		for _, task := range texts.tasks {
			if opts.Focus.Task != "" && opts.Focus.Task != task {
				continue
			}
			output.Comparison(r.out, records, task, cfg.DisplayLimit)
		}
	}

	// 3. Reporting.
	output.SignalMatrix(r.out, all, classifier, opts.Focus)
	output.FailureSummary(r.out, all)
	totals := output.Totals(all)
	output.TokenSummary(r.out, totals)

	if opts.CSVPath != "" {
		rows := output.BuildMatrix(all, classifier, opts.Focus)
		if err := output.WriteMatrixCSV(opts.CSVPath, rows, classifier.Rules()); err != nil {
			output.Logger.Error("Failed to write matrix CSV", "path", opts.CSVPath, "error", err)
		}
	}
	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, registry); err != nil {
			output.Logger.Error("Failed to write metrics file", "path", opts.MetricsFile, "error", err)
		}
	}

	// 4. Persistence, last.
	summary := &Summary{Records: all, Totals: totals}
	path, err := output.WriteArtifact(output.ArtifactPath(cfg.OutputDir, cfg.RunName, dedupe(keys)), all)
	if err != nil {
		return summary, err
	}
	summary.ArtifactPath = path

	fmt.Fprintf(r.out, "\n\nSaved %d results to %s\n", len(all), path)
	fmt.Fprintf(r.out, "\nNext steps:\n")
	fmt.Fprintf(r.out, "  - Review responses for categorical differences, not just quality\n")
	fmt.Fprintf(r.out, "  - Promote winners: %s run %s\n", programName(), strings.Join(otherModels(cfg.ModelKeys(), keys), " "))
	return summary, nil
}

// contentSet holds resolved prompt and task text, in first-seen order.
type contentSet struct {
	promptText map[string]string
	taskText   map[string]string
	prompts    []string
	tasks      []string
}

func (r *Runner) resolveTexts(units []model.ExperimentUnit) (*contentSet, error) {
	cs := &contentSet{promptText: make(map[string]string), taskText: make(map[string]string)}
	for _, u := range units {
		if _, ok := cs.promptText[u.Prompt]; !ok {
			text, err := r.cfg.ResolvePrompt(u.Prompt)
			if err != nil {
				return nil, err
			}
			cs.promptText[u.Prompt] = text
			cs.prompts = append(cs.prompts, u.Prompt)
		}
		if _, ok := cs.taskText[u.Task]; !ok {
			text, err := r.cfg.ResolveTask(u.Task)
			if err != nil {
				return nil, err
			}
			cs.taskText[u.Task] = text
			cs.tasks = append(cs.tasks, u.Task)
		}
	}
	return cs, nil
}

func (cs *contentSet) jobs(units []model.ExperimentUnit) []Job {
	jobs := make([]Job, 0, len(units))
	for _, u := range units {
		jobs = append(jobs, Job{Unit: u, PromptText: cs.promptText[u.Prompt], TaskText: cs.taskText[u.Task]})
	}
	return jobs
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

func otherModels(known, used []string) []string {
	var out []string
	for _, k := range known {
		if !slices.Contains(used, k) {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return known
	}
	return out
}

func programName() string {
	if len(os.Args) > 0 {
		name := os.Args[0]
		if i := strings.LastIndexAny(name, `/\`); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return "variant-runner"
}
