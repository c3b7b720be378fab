package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/variant-runner/internal/model"
	"github.com/daryltucker/variant-runner/internal/signals"
)

func TestAdapter_Success(t *testing.T) {
	gen := echoGenerator()
	a := NewAdapter(stubGenerators(gen, "haiku"), 2048)
	a.now = fixedClock(1500 * time.Millisecond)

	unit := model.ExperimentUnit{Model: "haiku", Prompt: "v4_control", Task: "task_A"}
	out := a.Run(context.Background(), unit, "system text", "task text")

	require.True(t, out.Succeeded())
	assert.Nil(t, out.Failure)
	assert.Equal(t, "system text|task text", out.Generation.Text)
	assert.Equal(t, 10, out.Generation.InputTokens)
	assert.Equal(t, 5, out.Generation.OutputTokens)
	assert.Equal(t, 1500*time.Millisecond, out.Elapsed)
	assert.Equal(t, unit, out.Unit)

	require.Len(t, gen.seen, 1)
	assert.Equal(t, Request{Model: "haiku-id", System: "system text", User: "task text", MaxTokens: 2048}, gen.seen[0])
}

func TestAdapter_TimeoutBecomesFailure(t *testing.T) {
	a := NewAdapter(stubGenerators(failingOn("task"), "haiku"), 2048)

	unit := model.ExperimentUnit{Model: "haiku", Prompt: "v4_control", Task: "task_A"}
	out := a.Run(context.Background(), unit, "sys", "task text")

	require.False(t, out.Succeeded())
	assert.Nil(t, out.Generation)
	require.NotNil(t, out.Failure)
	assert.Equal(t, unit, out.Failure.Unit)

	rec := out.Record()
	assert.Nil(t, rec.Response)
	assert.Contains(t, rec.ErrorText(), "timeout")
	assert.Zero(t, rec.InputTokens)
	assert.Zero(t, rec.OutputTokens)
	assert.True(t, signals.Default().Classify(rec.Response).Empty())
}

func TestAdapter_UnknownModelKey(t *testing.T) {
	gen := echoGenerator()
	a := NewAdapter(stubGenerators(gen, "haiku"), 100)

	out := a.Run(context.Background(), model.ExperimentUnit{Model: "opus", Prompt: "p", Task: "t"}, "s", "u")

	require.NotNil(t, out.Failure)
	assert.Contains(t, out.Failure.Error(), `"opus"`)
	assert.Zero(t, gen.calls.Load())
}

func TestAdapter_RecoversPanics(t *testing.T) {
	gen := &stubGenerator{name: "anthropic", fn: func(Request) (Response, error) {
		panic("provider bug")
	}}
	a := NewAdapter(stubGenerators(gen, "haiku"), 100)

	out := a.Run(context.Background(), model.ExperimentUnit{Model: "haiku", Prompt: "p", Task: "t"}, "s", "u")

	assert.Nil(t, out.Generation)
	require.NotNil(t, out.Failure)
	assert.Contains(t, out.Failure.Error(), "provider bug")
}
