package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/variant-runner/internal/config"
	"github.com/daryltucker/variant-runner/internal/model"
)

func TestUnits_CrossProduct(t *testing.T) {
	cat := FromNames([]string{"modelX"}, []string{"promptB", "promptA"}, []string{"taskA", "taskB"})

	units, err := cat.Units([]string{"modelX"}, nil, nil)
	require.NoError(t, err)

	require.Len(t, units, 4)
	seen := make(map[model.ExperimentUnit]bool)
	for _, u := range units {
		assert.False(t, seen[u], "duplicate unit %v", u)
		seen[u] = true
	}
	assert.Equal(t, []model.ExperimentUnit{
		{Model: "modelX", Prompt: "promptA", Task: "taskA"},
		{Model: "modelX", Prompt: "promptA", Task: "taskB"},
		{Model: "modelX", Prompt: "promptB", Task: "taskA"},
		{Model: "modelX", Prompt: "promptB", Task: "taskB"},
	}, units)
}

func TestUnits_ModelMajorOrder(t *testing.T) {
	cat := FromNames([]string{"haiku", "opus"}, []string{"p"}, []string{"t1", "t2"})

	units, err := cat.Units([]string{"opus", "haiku"}, nil, nil)
	require.NoError(t, err)

	require.Len(t, units, 4)
	assert.Equal(t, "opus", units[0].Model)
	assert.Equal(t, "opus", units[1].Model)
	assert.Equal(t, "haiku", units[2].Model)
}

func TestUnits_UnknownModelFailsFast(t *testing.T) {
	cat := FromNames([]string{"haiku", "opus"}, []string{"p"}, []string{"t"})

	units, err := cat.Units([]string{"haiku", "gpt9"}, nil, nil)
	require.Error(t, err)
	assert.Nil(t, units, "no partial unit list on error")

	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "model", cfgErr.Kind)
	assert.Equal(t, "gpt9", cfgErr.Name)
	assert.Equal(t, []string{"haiku", "opus"}, cfgErr.Known)
}

func TestUnits_SubsetsAndUnknownNames(t *testing.T) {
	cat := FromNames([]string{"m"}, []string{"p1", "p2", "p3"}, []string{"t1", "t2"})

	units, err := cat.Units([]string{"m"}, []string{"p2"}, []string{"t2"})
	require.NoError(t, err)
	assert.Equal(t, []model.ExperimentUnit{{Model: "m", Prompt: "p2", Task: "t2"}}, units)

	_, err = cat.Units([]string{"m"}, []string{"p9"}, nil)
	var cfgErr *model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "prompt", cfgErr.Kind)

	_, err = cat.Units([]string{"m"}, nil, []string{"t9"})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "task", cfgErr.Kind)
}

func TestUnits_DuplicateKeysCollapse(t *testing.T) {
	cat := FromNames([]string{"m"}, []string{"p"}, []string{"t"})

	units, err := cat.Units([]string{"m", "m"}, []string{"p", "p"}, nil)
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestNew_FromConfig(t *testing.T) {
	cat := New(config.DefaultConfig())

	assert.Equal(t, []string{"haiku", "opus", "sonnet"}, cat.Models())
	units, err := cat.Units([]string{"haiku"}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, units, len(cat.Prompts())*len(cat.Tasks()))
}

func TestFilterAndForModel(t *testing.T) {
	units := []model.ExperimentUnit{
		{Model: "a", Prompt: "p1", Task: "t1"},
		{Model: "a", Prompt: "p2", Task: "t1"},
		{Model: "b", Prompt: "p1", Task: "t2"},
	}

	assert.Len(t, Filter(units, nil, nil), 3)
	assert.Len(t, Filter(units, []string{"p1"}, nil), 2)
	assert.Len(t, Filter(units, []string{"p1"}, []string{"t2"}), 1)
	assert.Empty(t, Filter(units, []string{"p3"}, nil))
	assert.Len(t, ForModel(units, "a"), 2)
}
