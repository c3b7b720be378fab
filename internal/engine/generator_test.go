package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/variant-runner/internal/config"
	"github.com/daryltucker/variant-runner/internal/model"
)

func TestGenerators_Lookup(t *testing.T) {
	gen := echoGenerator()
	gens := stubGenerators(gen, "haiku", "sonnet")

	g, id, err := gens.Lookup("sonnet")
	require.NoError(t, err)
	assert.Same(t, gen, g)
	assert.Equal(t, "sonnet-id", id)

	_, _, err = gens.Lookup("opus")
	assert.ErrorContains(t, err, `no client configured for model "opus"`)
}

func TestGenerators_LookupMissingProvider(t *testing.T) {
	gens := NewGenerators(map[string]config.ModelConfig{
		"local": {Provider: config.ProviderOllama, ID: "llama3"},
	}, map[string]Generator{})

	_, _, err := gens.Lookup("local")
	assert.ErrorContains(t, err, "no ollama client open")
}

func TestGenerators_CloseIsIdempotent(t *testing.T) {
	gen := echoGenerator()
	gens := stubGenerators(gen, "haiku")

	require.NoError(t, gens.Close())
	assert.True(t, gen.closed.Load())
	require.NoError(t, gens.Close())

	_, _, err := gens.Lookup("haiku")
	assert.Error(t, err, "closed generators no longer route")
}

func TestOpenGenerators_MissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := config.DefaultConfig()

	_, err := OpenGenerators(context.Background(), cfg, []string{"haiku"})
	var cerr *model.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestOpenGenerators_UnknownModel(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := OpenGenerators(context.Background(), cfg, []string{"gpt-9"})
	var cerr *model.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "gpt-9", cerr.Name)
}

func TestOpenGenerators_SharesOneClientPerProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	cfg := config.DefaultConfig()
	cfg.Models["local"] = config.ModelConfig{Provider: config.ProviderOllama, ID: "llama3"}

	gens, err := OpenGenerators(context.Background(), cfg, []string{"haiku", "opus", "local"})
	require.NoError(t, err)
	defer gens.Close()

	assert.Len(t, gens.byProvider, 2)
	a, _, err := gens.Lookup("haiku")
	require.NoError(t, err)
	b, id, err := gens.Lookup("opus")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "claude-opus-4-6-20250414", id)

	l, _, err := gens.Lookup("local")
	require.NoError(t, err)
	assert.Equal(t, "ollama", l.Name())
}
