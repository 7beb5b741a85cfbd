// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// =============================================================================
// OLLAMA ADAPTER
// =============================================================================

// DefaultOllamaURL is the local Ollama endpoint.
// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6
// resolution issues on Windows.
const DefaultOllamaURL = "http://127.0.0.1:11434"

// OllamaAdapter covers a local Ollama server speaking newline-delimited
// JSON: one {response, done} object per line.
type OllamaAdapter struct {
	baseURL string
}

// NewOllamaAdapter creates an adapter for the given Ollama base URL.
// An empty baseURL falls back to DefaultOllamaURL.
func NewOllamaAdapter(baseURL string) *OllamaAdapter {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	return &OllamaAdapter{baseURL: baseURL}
}

// Name identifies the backend.
func (a *OllamaAdapter) Name() string {
	return "ollama"
}

// generateRequest is the body for Ollama's /api/generate endpoint.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// BuildRequest builds the streaming POST against /api/generate.
func (a *OllamaAdapter) BuildRequest(ctx context.Context, model, prompt string) (*http.Request, error) {
	body, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// generateLine is one line of Ollama's response stream.
type generateLine struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// ParseLine parses one line of the NDJSON stream. Blank and undecodable
// lines are skipped. The done flag marks the terminal chunk; no further
// lines are processed after it.
func (a *OllamaAdapter) ParseLine(line []byte) *Chunk {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	var payload generateLine
	if err := json.Unmarshal(line, &payload); err != nil {
		// Malformed lines are dropped, not surfaced.
		return nil
	}

	if payload.Error != "" {
		return &Chunk{Err: payload.Error}
	}
	return &Chunk{Text: payload.Response, Done: payload.Done}
}
