// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/hud/internal/conversation"
	"github.com/jeranaias/hud/internal/events"
	"github.com/jeranaias/hud/internal/provider"
)

// =============================================================================
// STATES
// =============================================================================

// State is the position of a stream in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
	StateCompleted
	StateCancelled
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRequesting:
		return "Requesting"
	case StateStreaming:
		return "Streaming"
	case StateCompleted:
		return "Completed"
	case StateCancelled:
		return "Cancelled"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// =============================================================================
// RESULT AND RECORDER
// =============================================================================

// Result summarizes one finished stream invocation.
type Result struct {
	Model     string
	Provider  string
	State     State
	Text      string
	Chunks    int
	TTFT      time.Duration
	Duration  time.Duration
	StartedAt time.Time
}

// Recorder receives the result of every finished stream. The telemetry
// ledger implements it; a nil recorder disables recording.
type Recorder interface {
	Record(Result)
}

// =============================================================================
// DRIVER CONFIGURATION
// =============================================================================

// maxErrorBody bounds how much of a non-2xx response body is carried into
// the error message.
const maxErrorBody = 64 * 1024

// Config holds driver options.
type Config struct {
	// ResponseHeaderTimeout bounds the wait for upstream response headers
	// (default: 30s). The body itself streams without a deadline and is
	// bounded only by context cancellation.
	ResponseHeaderTimeout time.Duration

	// Recorder receives per-stream results. Optional.
	Recorder Recorder
}

// newStreamingClient builds the pooled HTTP client used for streaming.
// No overall timeout: a stream lives as long as the backend keeps sending.
// Dial, TLS and header waits are bounded so a dead backend fails fast.
func newStreamingClient(headerTimeout time.Duration) *http.Client {
	if headerTimeout == 0 {
		headerTimeout = 30 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: headerTimeout,
		},
	}
}

// =============================================================================
// DRIVER
// =============================================================================

// Driver owns the request/response lifecycle of inference streams. One
// driver serves one conversation store and one cancel flag; at most one
// stream should be active at a time (the shared flag makes overlapping
// streams indistinguishable for cancellation).
type Driver struct {
	store    *conversation.Store
	registry *provider.Registry
	cancel   *CancelFlag
	client   *http.Client
	recorder Recorder
}

// NewDriver creates a stream driver.
func NewDriver(store *conversation.Store, registry *provider.Registry, cancel *CancelFlag, cfg *Config) *Driver {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Driver{
		store:    store,
		registry: registry,
		cancel:   cancel,
		client:   newStreamingClient(cfg.ResponseHeaderTimeout),
		recorder: cfg.Recorder,
	}
}

// buildContextualPrompt prepends the rendered conversation to the prompt.
func buildContextualPrompt(context, prompt string) string {
	if context == "" {
		return prompt
	}
	return "Previous conversation:\n" + context + "\n\nUser: " + prompt
}

// Stream runs one full invocation: commits the user turn, resolves the
// adapter, issues the request, and pumps the response through the adapter
// until a terminal state. Events go to sink; the returned error mirrors
// the error event (nil for Completed and Cancelled).
func (d *Driver) Stream(ctx context.Context, sink events.Sink, prompt, model string) error {
	d.cancel.Reset()
	startedAt := time.Now()

	d.store.Append(conversation.RoleUser, prompt)
	contextual := buildContextualPrompt(d.store.RenderContext(), prompt)

	result := Result{Model: model, StartedAt: startedAt}

	adapter, err := d.registry.Resolve(model)
	if err != nil {
		return d.fail(sink, &result, &Error{
			Type:    ErrTypeUnsupportedModel,
			Message: "unsupported model: " + model,
			Cause:   err,
		})
	}
	result.Provider = adapter.Name()

	req, err := adapter.BuildRequest(ctx, model, contextual)
	if err != nil {
		return d.fail(sink, &result, &Error{
			Type:    ErrTypeTransport,
			Message: "failed to build request",
			Cause:   err,
		})
	}

	// Requesting
	resp, err := d.client.Do(req)
	if err != nil {
		msg := "failed to connect to " + adapter.Name()
		if adapter.Name() == "ollama" {
			msg += " (is Ollama running?)"
		}
		return d.fail(sink, &result, &Error{
			Type:    ErrTypeTransport,
			Message: msg,
			Cause:   err,
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return d.fail(sink, &result, &Error{
			Type:    ErrTypeStatus,
			Message: adapter.Name() + " returned " + resp.Status + ": " + string(body),
			Status:  resp.StatusCode,
			Body:    string(body),
		})
	}

	// Streaming
	return d.pump(ctx, sink, adapter, resp.Body, &result)
}

// pump is the streaming loop: one line per iteration, cancellation checked
// first, then parse, accumulate, and emit.
func (d *Driver) pump(ctx context.Context, sink events.Sink, adapter provider.Adapter, body io.Reader, result *Result) error {
	reader := bufio.NewReader(body)
	var acc strings.Builder
	var firstToken time.Time

	for {
		// Cancellation checkpoint. Partial content is discarded, not
		// committed; the user turn stays in the store.
		if d.cancel.IsSet() || ctx.Err() != nil {
			result.State = StateCancelled
			result.Duration = time.Since(result.StartedAt)
			d.record(*result)
			sink.Emit(events.Event{Kind: events.KindCancelled, Text: "response stopped"})
			return nil
		}

		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if chunk := adapter.ParseLine(line); chunk != nil {
				if chunk.IsError() {
					return d.fail(sink, result, &Error{
						Type:    ErrTypePayload,
						Message: adapter.Name() + " error: " + chunk.Err,
					})
				}
				if chunk.Text != "" {
					if firstToken.IsZero() {
						firstToken = time.Now()
						result.TTFT = firstToken.Sub(result.StartedAt)
					}
					acc.WriteString(chunk.Text)
					result.Chunks++
					sink.Emit(events.Event{Kind: events.KindChunk, Text: chunk.Text})
				}
				if chunk.Done {
					return d.complete(sink, result, acc.String())
				}
			}
		}

		if err != nil {
			if err == io.EOF {
				// Stream ended without a terminal signal: graceful
				// completion with whatever accumulated.
				return d.complete(sink, result, acc.String())
			}
			return d.fail(sink, result, &Error{
				Type:    ErrTypeTransport,
				Message: "stream read failed",
				Cause:   err,
			})
		}
	}
}

// complete commits the assistant turn and emits the done event.
func (d *Driver) complete(sink events.Sink, result *Result, text string) error {
	d.store.Append(conversation.RoleAssistant, text)

	result.State = StateCompleted
	result.Text = text
	result.Duration = time.Since(result.StartedAt)
	d.record(*result)

	sink.Emit(events.Event{Kind: events.KindDone, Text: text})
	return nil
}

// fail emits the error event and returns the error as the command result.
func (d *Driver) fail(sink events.Sink, result *Result, streamErr *Error) error {
	result.State = StateFailed
	result.Duration = time.Since(result.StartedAt)
	d.record(*result)

	sink.Emit(events.Event{Kind: events.KindError, Text: streamErr.Error()})
	return streamErr
}

func (d *Driver) record(r Result) {
	if d.recorder != nil {
		d.recorder.Record(r)
	}
}
