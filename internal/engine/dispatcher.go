/*
PURPOSE:
  Runs many generation calls concurrently behind a fixed-size worker pool
  and collects one result record per unit.

REQUIREMENTS:
  User-specified:
  - Bounded concurrency (default 5 workers).
  - Print one progress line per completed unit, with a short error excerpt
    on failure.
  - Return only when every unit has finished.

  Implementation-discovered:
  - errgroup.Group with SetLimit gives the bounded pool and the barrier.
  - Workers never return errors; a failing unit is just another record.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go
  - Uses: internal/engine/adapter.go (through UnitRunner), internal/output

ERROR HANDLING:
  - None escapes. Outcomes carry failures.

IMPLEMENTATION RULES:
  - Results are appended in completion order under a mutex; callers sort.
  - No cancellation, no dispatcher-level timeout.

USAGE:
  d := engine.NewDispatcher(adapter, 5, os.Stdout, 50)
  records := d.Dispatch(ctx, jobs)

RELATED FILES:
  - internal/output/progress.go
*/

package engine

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/daryltucker/variant-runner/internal/model"
	"github.com/daryltucker/variant-runner/internal/output"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 5

// Job is one unit plus its resolved prompt and task text.
type Job struct {
	Unit       model.ExperimentUnit
	PromptText string
	TaskText   string
}

// UnitRunner executes one unit. *Adapter is the production implementation.
type UnitRunner interface {
	Run(ctx context.Context, unit model.ExperimentUnit, promptText, taskText string) model.Outcome
}

// Dispatcher fans jobs out to a bounded pool and fans results back in.
type Dispatcher struct {
	runner       UnitRunner
	workers      int
	progress     io.Writer
	errorExcerpt int
	metrics      *Metrics
}

// NewDispatcher creates a dispatcher. workers < 1 falls back to DefaultWorkers.
// progress may be nil to suppress progress lines.
func NewDispatcher(runner UnitRunner, workers int, progress io.Writer, errorExcerpt int) *Dispatcher {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Dispatcher{
		runner:       runner,
		workers:      workers,
		progress:     progress,
		errorExcerpt: errorExcerpt,
	}
}

// WithMetrics attaches dispatch metrics.
func (d *Dispatcher) WithMetrics(m *Metrics) *Dispatcher {
	d.metrics = m
	return d
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int { return d.workers }

// Dispatch runs every job and returns one record per job once all have finished.
// The returned slice is in completion order.
func (d *Dispatcher) Dispatch(ctx context.Context, jobs []Job) []model.ResultRecord {
	var (
		mu      sync.Mutex
		results = make([]model.ResultRecord, 0, len(jobs))
		g       errgroup.Group
	)
	g.SetLimit(d.workers)

	for _, job := range jobs {
		g.Go(func() error {
			d.metrics.started()
			rec := d.runner.Run(ctx, job.Unit, job.PromptText, job.TaskText).Record()

			mu.Lock()
			defer mu.Unlock()
			results = append(results, rec)
			d.metrics.observe(rec)
			if d.progress != nil {
				fmt.Fprintln(d.progress, output.ProgressLine(rec, d.errorExcerpt))
			}
			if rec.Failed() {
				output.Logger.Debug("Unit failed", "model", rec.Model, "prompt", rec.Prompt, "task", rec.Task, "error", rec.ErrorText())
			}
			return nil
		})
	}

	// Workers never return errors.
	_ = g.Wait()
	return results
}
