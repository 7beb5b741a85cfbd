// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// =============================================================================
// NORMALIZED CHUNK
// =============================================================================

// Chunk is one normalized fragment of a streamed response.
// Exactly one of the three meanings applies per chunk: incremental text,
// a terminal signal (possibly carrying final text), or an upstream error.
type Chunk struct {
	// Text is the incremental text delta, possibly empty.
	Text string

	// Done marks the backend's terminal signal.
	Done bool

	// Err carries the error text of a decodable upstream error payload.
	// A chunk with Err set aborts the stream.
	Err string
}

// IsError reports whether the chunk carries an upstream error payload.
func (c *Chunk) IsError() bool {
	return c.Err != ""
}

// =============================================================================
// ADAPTER INTERFACE
// =============================================================================

// Adapter translates one backend's request/response format to and from the
// normalized chunk model.
type Adapter interface {
	// Name identifies the backend for display and telemetry.
	Name() string

	// BuildRequest builds the provider-specific streaming request for the
	// given model and fully rendered contextual prompt.
	BuildRequest(ctx context.Context, model, prompt string) (*http.Request, error)

	// ParseLine parses a single response line into a normalized chunk.
	// A nil result means the line carries nothing (framing noise, blank
	// line, or an undecodable payload) and must be skipped silently.
	ParseLine(line []byte) *Chunk
}

// =============================================================================
// REGISTRY
// =============================================================================

// ErrUnsupportedModel is returned when no adapter is registered for a
// requested model discriminator. No request is issued in that case.
var ErrUnsupportedModel = errors.New("unsupported model")

// Registry resolves model discriminators to adapters. Models register
// either by exact name or by name prefix (the Gemini family registers as
// the "gemini" prefix).
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]Adapter
	prefixes []prefixEntry
}

type prefixEntry struct {
	prefix  string
	adapter Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		exact: make(map[string]Adapter),
	}
}

// Register binds an exact model name to an adapter.
func (r *Registry) Register(model string, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[model] = a
}

// RegisterPrefix binds every model name with the given prefix to an adapter.
// Exact registrations win over prefix matches.
func (r *Registry) RegisterPrefix(prefix string, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes = append(r.prefixes, prefixEntry{prefix: prefix, adapter: a})
}

// Reset removes all registrations. Used when rebuilding the registry from
// a freshly loaded config.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact = make(map[string]Adapter)
	r.prefixes = nil
}

// Resolve returns the adapter for a model discriminator, or
// ErrUnsupportedModel when none matches.
func (r *Registry) Resolve(model string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.exact[model]; ok {
		return a, nil
	}
	for _, e := range r.prefixes {
		if strings.HasPrefix(model, e.prefix) {
			return e.adapter, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
}

// Models returns the exactly-registered model names, for display.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.exact))
	for name := range r.exact {
		out = append(out, name)
	}
	return out
}
