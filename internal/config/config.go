/*
PURPOSE:
  Defines the configuration structure and loading logic for Variant Runner.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Configure known models, prompt variants, tasks, worker count and output location.
  - Unknown or missing content is a fatal error before any request is made.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Prompt and task content can be inline text or a file next to the config.
  - Struct-tag validation (validator/v10) catches bad numbers early.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/catalog, internal/engine
  - Dependencies: gopkg.in/yaml.v3, github.com/go-playground/validator/v10

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default config file falls back to DefaultConfig().
  - Validation and content problems are *model.ConfigurationError.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (5 workers, 2048 max tokens, 1500 display chars).

USAGE:
  cfg, err := config.Load("variant_runner.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/cli/root.go
  - internal/assets (built-in prompts and tasks)

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/daryltucker/variant-runner/internal/assets"
	"github.com/daryltucker/variant-runner/internal/model"
	"github.com/daryltucker/variant-runner/internal/signals"
)

// Provider names understood by the engine.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// Config represents the full configuration for Variant Runner.
type Config struct {
	RunName        string        `yaml:"run_name" validate:"required"`
	OutputDir      string        `yaml:"output_dir" validate:"required"`
	Workers        int           `yaml:"workers" validate:"gte=1"`
	MaxTokens      int           `yaml:"max_tokens" validate:"gte=1"`
	DisplayLimit   int           `yaml:"display_limit" validate:"gte=1"`
	ErrorExcerpt   int           `yaml:"error_excerpt" validate:"gte=1"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// DefaultModels is used when no model keys are given on the command line.
	DefaultModels []string                  `yaml:"default_models" validate:"min=1"`
	Providers     map[string]ProviderConfig `yaml:"providers" validate:"dive"`
	Models        map[string]ModelConfig    `yaml:"models" validate:"min=1,dive"`
	Prompts       map[string]Content        `yaml:"prompts" validate:"min=1"`
	Tasks         map[string]Content        `yaml:"tasks" validate:"min=1"`
	// Signals overrides the built-in rule table when non-empty.
	Signals []signals.Rule `yaml:"signals"`

	// baseDir resolves relative content files; set by Load.
	baseDir string
}

// ProviderConfig holds connection settings for one generation backend.
type ProviderConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// ModelConfig maps a short model key to a provider and its model identifier.
type ModelConfig struct {
	Provider string `yaml:"provider" validate:"required,oneof=anthropic openai gemini ollama"`
	ID       string `yaml:"id" validate:"required"`
}

// Content is a prompt or task body, inline or from a file.
type Content struct {
	Text string `yaml:"text"`
	File string `yaml:"file"`
}

var validate = validator.New()

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RunName:        "experiment",
		OutputDir:      "output",
		Workers:        5,
		MaxTokens:      2048,
		DisplayLimit:   1500,
		ErrorExcerpt:   50,
		RequestTimeout: 120 * time.Second,
		DefaultModels:  []string{"haiku"},
		Providers: map[string]ProviderConfig{
			ProviderAnthropic: {APIKeyEnv: "ANTHROPIC_API_KEY"},
			ProviderOpenAI:    {APIKeyEnv: "OPENAI_API_KEY"},
			ProviderGemini:    {APIKeyEnv: "GEMINI_API_KEY"},
			ProviderOllama:    {Endpoint: "http://localhost:11434"},
		},
		Models: map[string]ModelConfig{
			"haiku":  {Provider: ProviderAnthropic, ID: "claude-haiku-4-5-20251001"},
			"sonnet": {Provider: ProviderAnthropic, ID: "claude-sonnet-4-6-20250514"},
			"opus":   {Provider: ProviderAnthropic, ID: "claude-opus-4-6-20250414"},
		},
		Prompts: builtinContent(assets.Prompts()),
		Tasks:   builtinContent(assets.Tasks()),
	}
}

func builtinContent(m map[string]string) map[string]Content {
	out := make(map[string]Content, len(m))
	for name, text := range m {
		out[name] = Content{Text: text}
	}
	return out
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		defaults := []string{"variant_runner.yaml", "runner.yaml"}
		found := false
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				found = true
				break
			}
		}
		if !found {
			return cfg, nil
		}
	}

	// A file that declares models, prompts or tasks replaces the built-in set
	// instead of merging into it.
	var present map[string]yaml.Node
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if _, ok := present["models"]; ok {
		cfg.Models = nil
		if _, ok := present["default_models"]; !ok {
			cfg.DefaultModels = nil
		}
	}
	if _, ok := present["prompts"]; ok {
		cfg.Prompts = nil
	}
	if _, ok := present["tasks"]; ok {
		cfg.Tasks = nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(path)
	if len(cfg.DefaultModels) == 0 && len(cfg.Models) > 0 {
		cfg.DefaultModels = cfg.ModelKeys()[:1]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints, provider references and the signal rule table.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &model.ConfigurationError{Kind: "config", Err: err}
	}
	for key, m := range c.Models {
		if _, ok := c.Providers[m.Provider]; !ok {
			return &model.ConfigurationError{
				Kind:  "provider",
				Name:  m.Provider,
				Known: sortedKeys(c.Providers),
				Err:   fmt.Errorf("referenced by model %q", key),
			}
		}
	}
	for _, key := range c.DefaultModels {
		if _, ok := c.Models[key]; !ok {
			return &model.ConfigurationError{Kind: "model", Name: key, Known: c.ModelKeys()}
		}
	}
	if len(c.Signals) > 0 {
		if err := signals.ValidateRules(c.Signals); err != nil {
			return &model.ConfigurationError{Kind: "config", Err: fmt.Errorf("signals: %w", err)}
		}
	}
	return nil
}

// Rules returns the configured signal rule table, or the built-in one.
func (c *Config) Rules() []signals.Rule {
	if len(c.Signals) > 0 {
		return c.Signals
	}
	return signals.DefaultRules()
}

// ModelKeys returns the known model keys, sorted.
func (c *Config) ModelKeys() []string { return sortedKeys(c.Models) }

// PromptNames returns the known prompt variant names, sorted.
func (c *Config) PromptNames() []string { return sortedKeys(c.Prompts) }

// TaskNames returns the known task names, sorted.
func (c *Config) TaskNames() []string { return sortedKeys(c.Tasks) }

// ResolvePrompt returns the text of a prompt variant.
func (c *Config) ResolvePrompt(name string) (string, error) {
	return c.resolve("prompt", name, c.Prompts)
}

// ResolveTask returns the text of a task.
func (c *Config) ResolveTask(name string) (string, error) {
	return c.resolve("task", name, c.Tasks)
}

func (c *Config) resolve(kind, name string, set map[string]Content) (string, error) {
	content, ok := set[name]
	if !ok {
		return "", &model.ConfigurationError{Kind: kind, Name: name, Known: sortedKeys(set)}
	}

	text := content.Text
	if content.File != "" {
		p := content.File
		if !filepath.IsAbs(p) && c.baseDir != "" {
			p = filepath.Join(c.baseDir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return "", &model.ConfigurationError{
				Kind: kind,
				Err:  fmt.Errorf("%s %q: cannot read %s: %w", kind, name, p, err),
			}
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &model.ConfigurationError{
			Kind: kind,
			Err:  fmt.Errorf("%s %q has no content", kind, name),
		}
	}
	return text, nil
}

// APIKey reads the API key for a provider from its configured environment variable.
func (c *Config) APIKey(provider string) (string, error) {
	p, ok := c.Providers[provider]
	if !ok {
		return "", &model.ConfigurationError{Kind: "provider", Name: provider, Known: sortedKeys(c.Providers)}
	}
	if p.APIKeyEnv == "" {
		return "", nil
	}
	key := os.Getenv(p.APIKeyEnv)
	if key == "" {
		return "", &model.ConfigurationError{
			Kind: "provider",
			Err:  fmt.Errorf("%s is not set for provider %s", p.APIKeyEnv, provider),
		}
	}
	return key, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
