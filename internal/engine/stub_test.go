package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/daryltucker/variant-runner/internal/config"
)

// stubGenerator answers from a function and counts calls.
type stubGenerator struct {
	name   string
	fn     func(req Request) (Response, error)
	calls  atomic.Int64
	closed atomic.Bool

	mu   sync.Mutex
	seen []Request
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Generate(_ context.Context, req Request) (Response, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.seen = append(s.seen, req)
	s.mu.Unlock()
	return s.fn(req)
}

func (s *stubGenerator) Close() error {
	s.closed.Store(true)
	return nil
}

func echoGenerator() *stubGenerator {
	return &stubGenerator{name: "anthropic", fn: func(req Request) (Response, error) {
		return Response{Text: fmt.Sprintf("%s|%s", req.System, req.User), InputTokens: 10, OutputTokens: 5}, nil
	}}
}

func stubGenerators(gen Generator, keys ...string) *Generators {
	models := make(map[string]config.ModelConfig, len(keys))
	for _, k := range keys {
		models[k] = config.ModelConfig{Provider: config.ProviderAnthropic, ID: k + "-id"}
	}
	return NewGenerators(models, map[string]Generator{config.ProviderAnthropic: gen})
}

// failingOn fails every request whose user text contains marker.
func failingOn(marker string) *stubGenerator {
	return &stubGenerator{name: "anthropic", fn: func(req Request) (Response, error) {
		if strings.Contains(req.User, marker) {
			return Response{}, errors.New("request timeout after 120s")
		}
		return Response{Text: "fine", InputTokens: 3, OutputTokens: 2}, nil
	}}
}

// fixedClock advances by step on every call.
func fixedClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(step)
		return t
	}
}
