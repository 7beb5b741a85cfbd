// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/hud/internal/config"
	"github.com/jeranaias/hud/internal/conversation"
	"github.com/jeranaias/hud/internal/events"
	"github.com/jeranaias/hud/internal/provider"
	"github.com/jeranaias/hud/internal/stream"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrEmptyPrompt is returned when a submitted prompt is blank.
var ErrEmptyPrompt = errors.New("prompt is empty")

// ErrTooFast is returned when submits arrive faster than the rate guard
// allows. Double-fired hotkeys are the usual cause.
var ErrTooFast = errors.New("submitted too fast, try again")

// submitInterval is the minimum spacing between accepted submits.
const submitInterval = 200 * time.Millisecond

// =============================================================================
// ENGINE
// =============================================================================

// Engine wires the conversation store, adapter registry, cancel flag and
// stream driver into one command surface.
type Engine struct {
	store    *conversation.Store
	registry *provider.Registry
	cancel   *stream.CancelFlag
	driver   *stream.Driver
	limiter  *rate.Limiter

	mu           sync.RWMutex
	defaultModel string
}

// New builds an engine from config. The registry maps the cloud backends
// through the shared proxy and the configured local model to Ollama.
func New(cfg *config.Config, recorder stream.Recorder) *Engine {
	store := conversation.NewStoreWithCapacity(cfg.History.Capacity)

	registry := provider.NewRegistry()
	populateRegistry(registry, cfg)

	cancel := stream.NewCancelFlag()
	driver := stream.NewDriver(store, registry, cancel, &stream.Config{
		ResponseHeaderTimeout: time.Duration(cfg.Stream.HeaderTimeoutSecs) * time.Second,
		Recorder:              recorder,
	})

	return &Engine{
		store:        store,
		registry:     registry,
		cancel:       cancel,
		driver:       driver,
		limiter:      rate.NewLimiter(rate.Every(submitInterval), 1),
		defaultModel: cfg.DefaultModel,
	}
}

// populateRegistry registers the config-selected backends: the Perplexity
// and Gemini families behind the shared proxy, and the local Ollama model.
func populateRegistry(registry *provider.Registry, cfg *config.Config) {
	registry.Register("sonar", provider.NewSSEAdapter("perplexity", cfg.Proxy.BaseURL, provider.RoutePerplexity))
	registry.RegisterPrefix("gemini", provider.NewSSEAdapter("gemini", cfg.Proxy.BaseURL, provider.RouteGemini))
	if cfg.Ollama.Model != "" {
		registry.Register(cfg.Ollama.Model, provider.NewOllamaAdapter(cfg.Ollama.URL))
	}
}

// Reconfigure rebuilds the adapter registry from a freshly loaded config,
// so endpoint changes apply without restarting. The selected default model
// is kept when it still resolves; otherwise the config's default takes over.
func (e *Engine) Reconfigure(cfg *config.Config) {
	e.registry.Reset()
	populateRegistry(e.registry, cfg)

	if _, err := e.registry.Resolve(e.DefaultModel()); err != nil {
		e.mu.Lock()
		e.defaultModel = cfg.DefaultModel
		e.mu.Unlock()
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// SubmitPrompt runs one stream to completion, delivering events to sink.
// An empty model selects the configured default. The returned error mirrors
// the terminal error event; completed and cancelled streams return nil.
//
// Guarded submits: a call arriving within the rate window fails with
// ErrTooFast before any state is touched.
func (e *Engine) SubmitPrompt(ctx context.Context, sink events.Sink, prompt, model string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}
	if !e.limiter.Allow() {
		return ErrTooFast
	}
	if model == "" {
		model = e.DefaultModel()
	}
	return e.driver.Stream(ctx, sink, prompt, model)
}

// History returns a snapshot of the conversation, oldest first.
func (e *Engine) History() []conversation.Message {
	return e.store.History()
}

// ClearHistory removes all conversation messages.
func (e *Engine) ClearHistory() {
	e.store.Clear()
}

// StopStream requests cancellation of the active stream. It returns
// immediately; the stream observes the flag at its next line boundary.
// Calling with no stream active is harmless: the flag is reset when the
// next stream starts.
func (e *Engine) StopStream() {
	e.cancel.Set()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// DefaultModel returns the model used when a submit names none.
func (e *Engine) DefaultModel() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defaultModel
}

// SetDefaultModel switches the default model. Unknown models are rejected
// so a typo cannot strand later submits.
func (e *Engine) SetDefaultModel(model string) error {
	if _, err := e.registry.Resolve(model); err != nil {
		return err
	}
	e.mu.Lock()
	e.defaultModel = model
	e.mu.Unlock()
	return nil
}

// Models lists the exactly registered model names.
func (e *Engine) Models() []string {
	return e.registry.Models()
}
