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
// PROXY SSE CONSTANTS
// =============================================================================

const (
	// RouteGemini and RoutePerplexity are the proxy route suffixes for the
	// two cloud backends sharing the SSE framing.
	RouteGemini     = "/api/gemini"
	RoutePerplexity = "/api/perplexity"

	// Generation parameters sent with every proxied request.
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
)

// ssePrefix marks the payload-carrying lines of the SSE framing.
var ssePrefix = []byte("data: ")

// sseDone is the literal sentinel signalling stream completion.
var sseDone = []byte("[DONE]")

// =============================================================================
// SSE ADAPTER
// =============================================================================

// SSEAdapter covers the proxy-backed cloud providers. Gemini and Perplexity
// sit behind the same proxy framing and differ only in route suffix.
type SSEAdapter struct {
	name    string
	baseURL string
	route   string
}

// NewSSEAdapter creates an adapter posting to baseURL+route.
func NewSSEAdapter(name, baseURL, route string) *SSEAdapter {
	return &SSEAdapter{name: name, baseURL: baseURL, route: route}
}

// Name identifies the backend.
func (a *SSEAdapter) Name() string {
	return a.name
}

// sseRequest is the JSON body the proxy expects.
type sseRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	Stream      bool    `json:"stream"`
}

// BuildRequest builds the streaming POST against the proxy route.
func (a *SSEAdapter) BuildRequest(ctx context.Context, model, prompt string) (*http.Request, error) {
	body, err := json.Marshal(sseRequest{
		Model:       model,
		Prompt:      prompt,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+a.route, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	return req, nil
}

// ssePayload is the JSON carried by a data line. The proxy sends either an
// incremental content delta or an error, never both.
type ssePayload struct {
	Content string `json:"content"`
	Error   string `json:"error"`
}

// ParseLine parses one line of the SSE stream.
//
// Lines without the "data: " prefix are framing noise and are skipped, as
// are data payloads that fail to decode. A decodable error payload becomes
// an error chunk and aborts the stream at the driver.
func (a *SSEAdapter) ParseLine(line []byte) *Chunk {
	line = bytes.TrimRight(line, "\r\n")
	if !bytes.HasPrefix(line, ssePrefix) {
		return nil
	}

	data := line[len(ssePrefix):]
	if bytes.Equal(data, sseDone) {
		return &Chunk{Done: true}
	}

	var payload ssePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		// Malformed payloads are dropped, not surfaced.
		return nil
	}

	if payload.Error != "" {
		return &Chunk{Err: payload.Error}
	}
	if payload.Content != "" {
		return &Chunk{Text: payload.Content}
	}
	return nil
}
