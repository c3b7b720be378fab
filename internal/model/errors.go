package model

import (
	"fmt"
	"strings"
)

// ConfigurationError is a fatal pre-flight problem: an unknown key or missing content.
type ConfigurationError struct {
	Kind  string   // "model", "prompt", "task", "provider", "config"
	Name  string   // offending key, may be empty for general config problems
	Known []string // valid choices, when there is a fixed set
	Err   error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	if e.Name != "" {
		fmt.Fprintf(&b, "unknown %s: %s", e.Kind, e.Name)
	} else {
		fmt.Fprintf(&b, "invalid %s", e.Kind)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Known) > 0 {
		fmt.Fprintf(&b, ". Choose from: %s", strings.Join(e.Known, ", "))
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// GenerationCallError is one unit's failure to get a response from the generation service.
type GenerationCallError struct {
	Unit ExperimentUnit
	Err  error
}

func (e *GenerationCallError) Error() string {
	if e.Err == nil {
		return "generation failed"
	}
	return e.Err.Error()
}

func (e *GenerationCallError) Unwrap() error {
	return e.Err
}

// SerializationError is a failure to persist the run artifact.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to write results to %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
