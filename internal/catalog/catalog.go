/*
PURPOSE:
  Enumerates the experiments to run: the cross product of model keys,
  prompt variants and tasks.

REQUIREMENTS:
  User-specified:
  - Unspecified prompts/tasks mean "all known".
  - An unknown model key fails before anything is dispatched.

  Implementation-discovered:
  - Prompt and task names are validated the same way so typos on
    --prompts/--tasks fail fast too.
  - Ordering is model-major, then prompt, then task; prompts and tasks
    default to lexicographic order.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go
  - Uses: internal/config, internal/model

ERROR HANDLING:
  - Returns *model.ConfigurationError for unknown keys.

IMPLEMENTATION RULES:
  - No side effects. No content loading here.

USAGE:
  cat := catalog.New(cfg)
  units, err := cat.Units(models, nil, nil)

RELATED FILES:
  - internal/engine/dispatcher.go
*/

package catalog

import (
	"slices"

	"github.com/daryltucker/variant-runner/internal/config"
	"github.com/daryltucker/variant-runner/internal/model"
)

// Catalog knows the valid values of each experiment axis.
type Catalog struct {
	models  []string
	prompts []string
	tasks   []string
}

// New builds a catalog from the configured models, prompts and tasks.
func New(cfg *config.Config) *Catalog {
	return &Catalog{
		models:  cfg.ModelKeys(),
		prompts: cfg.PromptNames(),
		tasks:   cfg.TaskNames(),
	}
}

// FromNames builds a catalog from explicit axis values.
func FromNames(models, prompts, tasks []string) *Catalog {
	c := &Catalog{
		models:  slices.Clone(models),
		prompts: slices.Clone(prompts),
		tasks:   slices.Clone(tasks),
	}
	slices.Sort(c.models)
	slices.Sort(c.prompts)
	slices.Sort(c.tasks)
	return c
}

// Models returns the known model keys.
func (c *Catalog) Models() []string { return slices.Clone(c.models) }

// Prompts returns the known prompt variant names.
func (c *Catalog) Prompts() []string { return slices.Clone(c.prompts) }

// Tasks returns the known task names.
func (c *Catalog) Tasks() []string { return slices.Clone(c.tasks) }

// CheckModels verifies every key is known.
func (c *Catalog) CheckModels(keys []string) error {
	return check("model", keys, c.models)
}

// Units returns the cross product of the requested axes.
// Nil or empty prompts/tasks select every known value.
// Every requested key is checked before anything is returned.
func (c *Catalog) Units(models, prompts, tasks []string) ([]model.ExperimentUnit, error) {
	if err := c.CheckModels(models); err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		prompts = c.prompts
	} else if err := check("prompt", prompts, c.prompts); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		tasks = c.tasks
	} else if err := check("task", tasks, c.tasks); err != nil {
		return nil, err
	}

	units := make([]model.ExperimentUnit, 0, len(models)*len(prompts)*len(tasks))
	for _, m := range dedupe(models) {
		for _, p := range dedupe(prompts) {
			for _, t := range dedupe(tasks) {
				units = append(units, model.ExperimentUnit{Model: m, Prompt: p, Task: t})
			}
		}
	}
	return units, nil
}

// Filter keeps the units whose prompt and task are in the given subsets.
// An empty subset keeps everything on that axis.
func Filter(units []model.ExperimentUnit, prompts, tasks []string) []model.ExperimentUnit {
	out := make([]model.ExperimentUnit, 0, len(units))
	for _, u := range units {
		if len(prompts) > 0 && !slices.Contains(prompts, u.Prompt) {
			continue
		}
		if len(tasks) > 0 && !slices.Contains(tasks, u.Task) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// ForModel keeps the units for one model key.
func ForModel(units []model.ExperimentUnit, key string) []model.ExperimentUnit {
	out := make([]model.ExperimentUnit, 0, len(units))
	for _, u := range units {
		if u.Model == key {
			out = append(out, u)
		}
	}
	return out
}

func check(kind string, keys, known []string) error {
	for _, k := range keys {
		if !slices.Contains(known, k) {
			return &model.ConfigurationError{Kind: kind, Name: k, Known: slices.Clone(known)}
		}
	}
	return nil
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
