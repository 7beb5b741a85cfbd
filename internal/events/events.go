// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events defines the lifecycle events a stream emits toward the
// host layer, and the sink abstraction that delivers them.
//
// Events for a single stream are strictly ordered: zero or more chunk
// events in arrival order, followed by exactly one terminal event (done,
// cancelled, or error). The core never emits more than one terminal event
// per invocation.
package events

// =============================================================================
// EVENT MODEL
// =============================================================================

// Kind tags a lifecycle event.
type Kind string

const (
	// KindChunk carries one incremental text delta.
	KindChunk Kind = "response-chunk"

	// KindDone carries the full accumulated text of a completed stream.
	KindDone Kind = "response-done"

	// KindCancelled signals that a user-requested stop was honored.
	KindCancelled Kind = "response-cancelled"

	// KindError signals that the stream aborted; Text carries the error.
	KindError Kind = "response-error"
)

// Event is one named event with its payload.
type Event struct {
	Kind Kind
	Text string
}

// Terminal reports whether the event ends a stream.
func (e Event) Terminal() bool {
	return e.Kind != KindChunk
}

// =============================================================================
// SINK
// =============================================================================

// Sink delivers events to the host layer. Emit must not block for long;
// it is called synchronously from the stream-processing loop.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls the function.
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// =============================================================================
// CHANNEL SINK
// =============================================================================

// ChannelSink buffers events on a channel so the host can drain them as a
// lazy, finite sequence. Used by the headless mode and by tests.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Emit delivers the event to the channel and closes it after a terminal
// event, ending the drained sequence.
func (s *ChannelSink) Emit(e Event) {
	s.ch <- e
	if e.Terminal() {
		close(s.ch)
	}
}

// Events returns the receive side for draining.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Drain collects all events until the terminal one.
func (s *ChannelSink) Drain() []Event {
	var out []Event
	for e := range s.ch {
		out = append(out, e)
	}
	return out
}
