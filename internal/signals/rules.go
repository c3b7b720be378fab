/*
PURPOSE:
  Defines the signal rule table: named categories, each backed by a fixed list
  of lowercase phrases.

REQUIREMENTS:
  User-specified:
  - Five categories: adaptive branching, operation generation, multi-voice,
    self-prediction, meta-reasoning.

  Implementation-discovered:
  - Rule tables are data so categories can be added or overridden from YAML
    without touching dispatch or reporting code.

ARCHITECTURE INTEGRATION:
  - Used by: internal/signals/classifier.go, internal/config (override section)

ERROR HANDLING:
  - ValidateRules rejects empty categories, duplicate categories and
    empty patterns.

IMPLEMENTATION RULES:
  - Patterns are stored lowercase; matching lowercases the text once.
  - Category order is display order.

USAGE:
  c, err := signals.New(signals.DefaultRules())

SELF-HEALING INSTRUCTIONS:
  - Adding a category here automatically adds a column to the matrix and CSV.

RELATED FILES:
  - internal/signals/classifier.go

MAINTENANCE:
  - Update when the detection vocabulary changes.
*/

package signals

import (
	"errors"
	"fmt"
	"strings"
)

// Category names a signal dimension.
type Category string

const (
	AdaptiveBranching   Category = "adaptive_branching"
	OperationGeneration Category = "operation_generation"
	MultiVoice          Category = "multi_voice"
	SelfPrediction      Category = "self_prediction"
	MetaReasoning       Category = "meta_reasoning"
)

// Rule binds a category to the phrases that evidence it.
type Rule struct {
	Category Category `yaml:"category"`
	Label    string   `yaml:"label,omitempty"`
	Patterns []string `yaml:"patterns"`
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		{
			// reasoning about input properties before choosing a path
			Category: AdaptiveBranching,
			Label:    "Branch",
			Patterns: []string{
				"if ", "because the structure", "since this is", "this is hierarchical",
				"this is flat", "branching", "the other path", "other branch",
				"had i chosen", "the alternative",
			},
		},
		{
			// operations derived from the input rather than the prompt
			Category: OperationGeneration,
			Label:    "GenOps",
			Patterns: []string{
				"operation 1", "operation 2", "operation 3",
				"i derive", "i identify", "the most useful",
				"this structure suggests", "specific to this",
			},
		},
		{
			Category: MultiVoice,
			Label:    "Voice",
			Patterns: []string{
				"expert 1", "expert 2", "expert 3", "disagrees with", "counters",
				"pushes back", "the first expert", "the second", "the third",
				"the defender", "the critic", "perspective 1", "perspective 2",
			},
		},
		{
			Category: SelfPrediction,
			Label:    "Predict",
			Patterns: []string{
				"i predict", "my prediction", "i expected", "was i right",
				"the gap between", "blind spot", "i didn't anticipate",
				"surprisingly", "contrary to my expectation",
			},
		},
		{
			Category: MetaReasoning,
			Label:    "Meta",
			Patterns: []string{
				"my framing", "my analysis", "this frame hides", "what i missed",
				"the other branch would", "i chose this path because",
				"the argument itself reveals", "emergent",
			},
		},
	}
}

// ValidateRules checks a rule table for structural problems.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return errors.New("rule table is empty")
	}
	seen := make(map[Category]bool, len(rules))
	for i, r := range rules {
		if r.Category == "" {
			return fmt.Errorf("rule %d has no category", i)
		}
		if seen[r.Category] {
			return fmt.Errorf("duplicate category %q", r.Category)
		}
		seen[r.Category] = true
		if len(r.Patterns) == 0 {
			return fmt.Errorf("category %q has no patterns", r.Category)
		}
		for _, p := range r.Patterns {
			if p == "" {
				return fmt.Errorf("category %q has an empty pattern", r.Category)
			}
		}
	}
	return nil
}

// Header returns the column label for a rule.
func (r Rule) Header() string {
	if r.Label != "" {
		return r.Label
	}
	return string(r.Category)
}

func normalize(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		patterns := make([]string, 0, len(r.Patterns))
		dup := make(map[string]bool, len(r.Patterns))
		for _, p := range r.Patterns {
			p = strings.ToLower(p)
			if dup[p] {
				continue
			}
			dup[p] = true
			patterns = append(patterns, p)
		}
		out[i] = Rule{Category: r.Category, Label: r.Label, Patterns: patterns}
	}
	return out
}
