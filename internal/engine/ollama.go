/*
PURPOSE:
  Generation client for Ollama hosts.
  Handles model discovery and non-streaming generation with a system prompt.

REQUIREMENTS:
  User-specified:
  - Detect models (list --remote).
  - One non-streaming /api/generate call per unit, with usage counters.

  Implementation-discovered:
  - Needs http.Client with timeouts; ResponseHeaderTimeout separates
    "server accepted but model still loading" from connection failures.
  - Ollama reports prompt_eval_count / eval_count as token usage.
  - API-side errors arrive as {"error": "..."} with a 200 or non-200 status.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/adapter.go (through Generator), internal/cli/list.go
  - Uses: internal/output (debug logging)

ERROR HANDLING:
  - No retries here. Every failure is returned to the adapter, which
    records it on the unit.
  - Network errors are classified (header timeout vs. connection error).

IMPLEMENTATION RULES:
  - Use net/http.
  - Enforce timeouts.

USAGE:
  o := engine.NewOllama("http://localhost:11434", 2*time.Minute)
  models, err := o.ListModels(ctx)

SELF-HEALING INSTRUCTIONS:
  - If Ollama API changes, update endpoints (/api/tags, /api/generate).

RELATED FILES:
  - internal/engine/generator.go

MAINTENANCE:
  - Update for new Ollama API features.
*/

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"github.com/daryltucker/variant-runner/internal/output"
)

const ollamaDefaultEndpoint = "http://localhost:11434"

// Ollama handles Ollama interactions.
type Ollama struct {
	baseURL string
	client  *http.Client
}

// NewOllama creates an Ollama client.
func NewOllama(baseURL string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = ollamaDefaultEndpoint
	}

	// ResponseHeaderTimeout covers the time until the first response byte,
	// which is where model loading happens.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Name returns the provider name.
func (o *Ollama) Name() string { return "ollama" }

// ListModels returns the models available on the host.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(payload.Models))
	for _, m := range payload.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Generate runs one non-streaming generation.
func (o *Ollama) Generate(ctx context.Context, req Request) (Response, error) {
	payload := map[string]any{
		"model":  req.Model,
		"prompt": req.User,
		"stream": false,
		"options": map[string]any{
			"num_predict": req.MaxTokens,
		},
	}
	if req.System != "" {
		payload["system"] = req.System
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			output.Logger.Debug("Network: Connected", "remote", info.Conn.RemoteAddr(), "reused", info.Reused)
		},
		GotFirstResponseByte: func() {
			output.Logger.Debug("Network: First Byte Received", "model", req.Model)
		},
	}
	ctx = httptrace.WithClientTrace(ctx, trace)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		if strings.Contains(err.Error(), "awaiting headers") {
			return Response{}, fmt.Errorf("Ollama Header Timeout (model loading?): %w", err)
		}
		return Response{}, fmt.Errorf("Network/Connection Error: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var data struct {
		Response        string `json:"response"`
		Done            bool   `json:"done"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
		Error           string `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &data); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Response{}, &APIError{Provider: "ollama", StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(bodyBytes))}
		}
		return Response{}, fmt.Errorf("Ollama returned invalid JSON: %w (Body: %s)", err, string(bodyBytes))
	}
	if data.Error != "" || resp.StatusCode != http.StatusOK {
		msg := data.Error
		if msg == "" {
			msg = resp.Status
		}
		return Response{}, &APIError{Provider: "ollama", StatusCode: resp.StatusCode, Message: msg}
	}

	return Response{
		Text:         data.Response,
		InputTokens:  data.PromptEvalCount,
		OutputTokens: data.EvalCount,
	}, nil
}

// Close releases idle connections.
func (o *Ollama) Close() error {
	o.client.CloseIdleConnections()
	return nil
}
