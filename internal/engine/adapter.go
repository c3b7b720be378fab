package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/daryltucker/variant-runner/internal/model"
)

// Adapter turns one experiment unit into exactly one generation call.
// It never returns an error: every failure is captured in the Outcome.
type Adapter struct {
	gens      *Generators
	maxTokens int
	now       func() time.Time
}

// NewAdapter creates an adapter that caps every response at maxTokens.
func NewAdapter(gens *Generators, maxTokens int) *Adapter {
	return &Adapter{gens: gens, maxTokens: maxTokens, now: time.Now}
}

// Run issues the call for unit with pre-resolved prompt and task text.
func (a *Adapter) Run(ctx context.Context, unit model.ExperimentUnit, promptText, taskText string) (out model.Outcome) {
	out.Unit = unit
	start := a.now()

	defer func() {
		if r := recover(); r != nil {
			out.Generation = nil
			out.Failure = &model.GenerationCallError{Unit: unit, Err: fmt.Errorf("generation panicked: %v", r)}
		}
		out.Elapsed = a.now().Sub(start)
	}()

	gen, modelID, err := a.gens.Lookup(unit.Model)
	if err != nil {
		out.Failure = &model.GenerationCallError{Unit: unit, Err: err}
		return out
	}

	resp, err := gen.Generate(ctx, Request{
		Model:     modelID,
		System:    promptText,
		User:      taskText,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		out.Failure = &model.GenerationCallError{Unit: unit, Err: err}
		return out
	}

	out.Generation = &model.Generation{
		Text:         resp.Text,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}
	return out
}
