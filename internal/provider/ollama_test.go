// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestOllamaAdapter_ParseLine(t *testing.T) {
	adapter := NewOllamaAdapter("")

	tests := []struct {
		name string
		line string
		want *Chunk
	}{
		{"delta", `{"response":"Hel","done":false}`, &Chunk{Text: "Hel"}},
		{"terminal with text", `{"response":"lo","done":true}`, &Chunk{Text: "lo", Done: true}},
		{"terminal empty", `{"response":"","done":true}`, &Chunk{Done: true}},
		{"error payload", `{"error":"model not loaded"}`, &Chunk{Err: "model not loaded"}},
		{"blank line", ``, nil},
		{"whitespace line", `   `, nil},
		{"malformed", `{"response":`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := adapter.ParseLine([]byte(tc.line))
			if tc.want == nil {
				if got != nil {
					t.Fatalf("ParseLine(%q) = %+v, want nil", tc.line, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseLine(%q) = nil, want %+v", tc.line, tc.want)
			}
			if *got != *tc.want {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tc.line, got, tc.want)
			}
		})
	}
}

func TestOllamaAdapter_ChunkSequence(t *testing.T) {
	adapter := NewOllamaAdapter("")

	var accumulated strings.Builder
	lines := []string{
		`{"response":"Hel","done":false}`,
		`{"response":"lo","done":true}`,
	}

	var chunks []*Chunk
	for _, line := range lines {
		if c := adapter.ParseLine([]byte(line)); c != nil {
			chunks = append(chunks, c)
			accumulated.WriteString(c.Text)
		}
	}

	if len(chunks) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(chunks))
	}
	if chunks[0].Text != "Hel" || chunks[0].Done {
		t.Errorf("first chunk = %+v, want non-terminal 'Hel'", chunks[0])
	}
	if chunks[1].Text != "lo" || !chunks[1].Done {
		t.Errorf("second chunk = %+v, want terminal 'lo'", chunks[1])
	}
	if accumulated.String() != "Hello" {
		t.Errorf("accumulated = %q, want 'Hello'", accumulated.String())
	}
}

func TestOllamaAdapter_BuildRequest(t *testing.T) {
	adapter := NewOllamaAdapter("http://127.0.0.1:11434")

	req, err := adapter.BuildRequest(context.Background(), "llama3", "hello")
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}

	if got := req.URL.String(); got != "http://127.0.0.1:11434/api/generate" {
		t.Errorf("URL = %q", got)
	}

	body, _ := io.ReadAll(req.Body)
	var payload generateRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload.Model != "llama3" || payload.Prompt != "hello" || !payload.Stream {
		t.Errorf("payload = %+v", payload)
	}
}

func TestOllamaAdapter_DefaultURL(t *testing.T) {
	adapter := NewOllamaAdapter("")

	req, err := adapter.BuildRequest(context.Background(), "llama3", "hi")
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}
	if got := req.URL.Host; got != "127.0.0.1:11434" {
		t.Errorf("Host = %q, want default Ollama endpoint", got)
	}
}
