/*
PURPOSE:
  Defines the core data structures used throughout Variant Runner.
  These models represent experiment units, call outcomes, and result records.

REQUIREMENTS:
  User-specified:
  - Record model, prompt variant, task, response text, token usage, elapsed time.
  - A failed call keeps its error text instead of a response.

  Implementation-discovered:
  - Need JSON tags matching the artifact format (time_s in seconds, null response/error).
  - Exactly one of Response / Error is set; enforced by constructing records only from an Outcome.

ARCHITECTURE INTEGRATION:
  - Used by: internal/catalog, internal/engine, internal/signals, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs). Error types live in errors.go.

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Records are values; never mutate one after it leaves the dispatcher.

USAGE:
  rec := outcome.Record()

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add them here and update the JSON/CSV writers.

RELATED FILES:
  - internal/output/json.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when adding new fields to the artifact.
*/

package model

import (
	"encoding/json"
	"math"
	"time"
)

// ExperimentUnit identifies one request to issue: a model, a prompt variant and a task.
type ExperimentUnit struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Task   string `json:"task"`
}

// Generation is the successful payload of one generation call.
type Generation struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Outcome is what the adapter produces for one unit.
// Exactly one of Generation and Failure is non-nil.
type Outcome struct {
	Unit       ExperimentUnit
	Generation *Generation
	Failure    *GenerationCallError
	Elapsed    time.Duration
}

// Succeeded reports whether the call produced a response.
func (o Outcome) Succeeded() bool {
	return o.Generation != nil
}

// Record flattens the outcome into a ResultRecord.
func (o Outcome) Record() ResultRecord {
	rec := ResultRecord{
		Model:   o.Unit.Model,
		Prompt:  o.Unit.Prompt,
		Task:    o.Unit.Task,
		Elapsed: o.Elapsed,
	}
	if o.Generation != nil {
		text := o.Generation.Text
		rec.Response = &text
		rec.InputTokens = o.Generation.InputTokens
		rec.OutputTokens = o.Generation.OutputTokens
		return rec
	}

	msg := "unknown failure"
	if o.Failure != nil {
		msg = o.Failure.Error()
	}
	rec.Error = &msg
	return rec
}

// ResultRecord is the outcome of executing one ExperimentUnit.
type ResultRecord struct {
	Model        string        `json:"model"`
	Prompt       string        `json:"prompt"`
	Task         string        `json:"task"`
	Response     *string       `json:"response"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Elapsed      time.Duration `json:"-"`
	Error        *string       `json:"error"`
}

// Unit returns the experiment unit the record belongs to.
func (r ResultRecord) Unit() ExperimentUnit {
	return ExperimentUnit{Model: r.Model, Prompt: r.Prompt, Task: r.Task}
}

// Failed reports whether the record carries an error instead of a response.
func (r ResultRecord) Failed() bool {
	return r.Error != nil
}

// ResponseText returns the response or "" for failed records.
func (r ResultRecord) ResponseText() string {
	if r.Response == nil {
		return ""
	}
	return *r.Response
}

// ErrorText returns the error description or "" for successful records.
func (r ResultRecord) ErrorText() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// Seconds returns the elapsed time in seconds, rounded to one decimal.
func (r ResultRecord) Seconds() float64 {
	return math.Round(r.Elapsed.Seconds()*10) / 10
}

type recordJSON struct {
	Model        string  `json:"model"`
	Prompt       string  `json:"prompt"`
	Task         string  `json:"task"`
	Response     *string `json:"response"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TimeS        float64 `json:"time_s"`
	Error        *string `json:"error"`
}

// MarshalJSON writes the elapsed time as time_s.
func (r ResultRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Model:        r.Model,
		Prompt:       r.Prompt,
		Task:         r.Task,
		Response:     r.Response,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		TimeS:        r.Seconds(),
		Error:        r.Error,
	})
}

// UnmarshalJSON reads records written by MarshalJSON.
func (r *ResultRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ResultRecord{
		Model:        raw.Model,
		Prompt:       raw.Prompt,
		Task:         raw.Task,
		Response:     raw.Response,
		InputTokens:  raw.InputTokens,
		OutputTokens: raw.OutputTokens,
		Elapsed:      time.Duration(raw.TimeS * float64(time.Second)),
		Error:        raw.Error,
	}
	return nil
}
