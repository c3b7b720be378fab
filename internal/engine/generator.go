/*
PURPOSE:
  Defines the boundary to the remote generation service and the per-run set
  of provider clients.

REQUIREMENTS:
  User-specified:
  - One call takes (model id, system text, user text, max output tokens) and
    returns (text, input tokens, output tokens) or an error.

  Implementation-discovered:
  - Models map to providers (anthropic, openai, gemini, ollama); one client
    per provider is shared read-only by all workers.
  - Clients are created before dispatch and closed after the run, never
    held in package-level state.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/adapter.go, internal/engine/runner.go
  - Uses: internal/config

ERROR HANDLING:
  - Missing API keys or unknown providers are *model.ConfigurationError,
    raised while opening clients, before any unit is dispatched.

IMPLEMENTATION RULES:
  - Generator implementations must be safe for concurrent use.

USAGE:
  gens, err := engine.OpenGenerators(ctx, cfg, []string{"haiku"})
  defer gens.Close()

RELATED FILES:
  - internal/engine/anthropic.go
  - internal/engine/openai.go
  - internal/engine/gemini.go
  - internal/engine/ollama.go
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/daryltucker/variant-runner/internal/config"
	"github.com/daryltucker/variant-runner/internal/model"
	"github.com/daryltucker/variant-runner/internal/output"
)

// Request is one generation call.
type Request struct {
	Model     string
	System    string
	User      string
	MaxTokens int
}

// Response is the text and usage returned by one generation call.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Generator issues blocking generation calls against one provider.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
	Close() error
}

// Generators routes model keys to provider clients for the duration of a run.
type Generators struct {
	models     map[string]config.ModelConfig
	byProvider map[string]Generator
}

// NewGenerators assembles a routing table from already-constructed clients.
func NewGenerators(models map[string]config.ModelConfig, byProvider map[string]Generator) *Generators {
	return &Generators{models: models, byProvider: byProvider}
}

// OpenGenerators constructs one client per provider used by the given model keys.
func OpenGenerators(ctx context.Context, cfg *config.Config, keys []string) (*Generators, error) {
	g := &Generators{
		models:     make(map[string]config.ModelConfig, len(keys)),
		byProvider: make(map[string]Generator),
	}

	for _, key := range keys {
		m, ok := cfg.Models[key]
		if !ok {
			_ = g.Close()
			return nil, &model.ConfigurationError{Kind: "model", Name: key, Known: cfg.ModelKeys()}
		}
		g.models[key] = m
		if _, ok := g.byProvider[m.Provider]; ok {
			continue
		}

		gen, err := openProvider(ctx, cfg, m.Provider)
		if err != nil {
			_ = g.Close()
			return nil, err
		}
		output.Logger.Debug("Opened generation client", "provider", m.Provider)
		g.byProvider[m.Provider] = gen
	}
	return g, nil
}

func openProvider(ctx context.Context, cfg *config.Config, provider string) (Generator, error) {
	pc, ok := cfg.Providers[provider]
	if !ok {
		known := make([]string, 0, len(cfg.Providers))
		for name := range cfg.Providers {
			known = append(known, name)
		}
		sort.Strings(known)
		return nil, &model.ConfigurationError{Kind: "provider", Name: provider, Known: known}
	}
	key, err := cfg.APIKey(provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case config.ProviderAnthropic:
		return NewAnthropic(pc.Endpoint, key, cfg.RequestTimeout), nil
	case config.ProviderOpenAI:
		return NewOpenAI(pc.Endpoint, key, cfg.RequestTimeout), nil
	case config.ProviderGemini:
		return NewGemini(ctx, pc.Endpoint, key, cfg.RequestTimeout)
	case config.ProviderOllama:
		return NewOllama(pc.Endpoint, cfg.RequestTimeout), nil
	default:
		return nil, &model.ConfigurationError{
			Kind:  "provider",
			Name:  provider,
			Known: []string{config.ProviderAnthropic, config.ProviderGemini, config.ProviderOllama, config.ProviderOpenAI},
		}
	}
}

// Lookup returns the client and provider model id for a model key.
func (g *Generators) Lookup(key string) (Generator, string, error) {
	m, ok := g.models[key]
	if !ok {
		return nil, "", fmt.Errorf("no client configured for model %q", key)
	}
	gen, ok := g.byProvider[m.Provider]
	if !ok {
		return nil, "", fmt.Errorf("no %s client open for model %q", m.Provider, key)
	}
	return gen, m.ID, nil
}

// Close releases every client. It is safe to call more than once.
func (g *Generators) Close() error {
	var errs []error
	for name, gen := range g.byProvider {
		if err := gen.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s client: %w", name, err))
		}
		delete(g.byProvider, name)
	}
	return errors.Join(errs...)
}
