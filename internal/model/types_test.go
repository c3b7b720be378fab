package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unitA = ExperimentUnit{Model: "modelX", Prompt: "promptA", Task: "taskA"}

func TestOutcomeRecord_ExactlyOneOfResponseOrError(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		failed  bool
	}{
		{
			name: "success",
			outcome: Outcome{
				Unit:       unitA,
				Generation: &Generation{Text: "hello", InputTokens: 12, OutputTokens: 3},
				Elapsed:    1500 * time.Millisecond,
			},
		},
		{
			name: "success with empty text",
			outcome: Outcome{
				Unit:       unitA,
				Generation: &Generation{},
			},
		},
		{
			name: "failure",
			outcome: Outcome{
				Unit:    unitA,
				Failure: &GenerationCallError{Unit: unitA, Err: errors.New("request timeout")},
				Elapsed: 30 * time.Second,
			},
			failed: true,
		},
		{
			name:    "neither set counts as failure",
			outcome: Outcome{Unit: unitA},
			failed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.outcome.Record()

			assert.NotEqual(t, rec.Response == nil, rec.Error == nil, "exactly one of response/error must be set")
			assert.Equal(t, tt.failed, rec.Failed())
			assert.Equal(t, unitA, rec.Unit())
			if tt.failed {
				assert.Zero(t, rec.InputTokens)
				assert.Zero(t, rec.OutputTokens)
			}
		})
	}
}

func TestOutcomeRecord_CopiesUsage(t *testing.T) {
	rec := Outcome{
		Unit:       unitA,
		Generation: &Generation{Text: "hello", InputTokens: 12, OutputTokens: 3},
		Elapsed:    1540 * time.Millisecond,
	}.Record()

	assert.Equal(t, "hello", rec.ResponseText())
	assert.Equal(t, "", rec.ErrorText())
	assert.Equal(t, 12, rec.InputTokens)
	assert.Equal(t, 3, rec.OutputTokens)
	assert.InDelta(t, 1.5, rec.Seconds(), 1e-9)
}

func TestResultRecord_JSONShape(t *testing.T) {
	msg := "rate limited"
	rec := ResultRecord{
		Model:   "haiku",
		Prompt:  "v4_control",
		Task:    "task_A_pipeline",
		Elapsed: 2 * time.Second,
		Error:   &msg,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Nil(t, fields["response"])
	assert.Contains(t, fields, "response")
	assert.Equal(t, "rate limited", fields["error"])
	assert.Equal(t, 2.0, fields["time_s"])
	assert.Equal(t, 0.0, fields["input_tokens"])

	var back ResultRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.Unit(), back.Unit())
	assert.Equal(t, "rate limited", back.ErrorText())
	assert.Nil(t, back.Response)
	assert.Equal(t, 2*time.Second, back.Elapsed)
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Kind: "model", Name: "gpt9", Known: []string{"haiku", "opus"}}
	assert.Equal(t, "unknown model: gpt9. Choose from: haiku, opus", err.Error())

	cause := errors.New("workers must be at least 1")
	err = &ConfigurationError{Kind: "config", Err: cause}
	assert.Equal(t, "invalid config: workers must be at least 1", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestSerializationError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &SerializationError{Path: "output/run.json", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "output/run.json")

	var target *SerializationError
	assert.True(t, errors.As(error(err), &target))
}
