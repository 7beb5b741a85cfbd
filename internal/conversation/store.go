// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"strings"
	"sync"
)

// DefaultCapacity is the number of messages retained for context.
// Older messages are evicted first-in-first-out once the bound is reached.
const DefaultCapacity = 20

// =============================================================================
// STORE
// =============================================================================

// Store is a bounded, append-only message log with FIFO eviction.
//
// Thread-safety: every operation takes the store mutex, so a context render
// never observes a partial append and concurrent appends serialize without
// lost updates or duplicate IDs.
type Store struct {
	mu       sync.Mutex
	messages []Message
	capacity int
}

// NewStore creates a store with the default capacity.
func NewStore() *Store {
	return NewStoreWithCapacity(DefaultCapacity)
}

// NewStoreWithCapacity creates a store bounded at the given capacity.
// Non-positive capacities fall back to the default.
func NewStoreWithCapacity(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		messages: make([]Message, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a message at the tail and returns its generated ID.
// When the store is full the oldest message is evicted first.
// Append always succeeds.
func (s *Store) Append(role Role, content string) string {
	msg := NewMessage(role, content)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	if len(s.messages) > s.capacity {
		// Strict FIFO: drop the head. Copy down rather than reslice so the
		// evicted message does not pin the backing array.
		copy(s.messages, s.messages[1:])
		s.messages = s.messages[:s.capacity]
	}

	return msg.ID
}

// RenderContext projects the current messages into "{role}: {content}"
// lines joined by newlines. Returns "" for an empty store. Pure read.
func (s *Store) RenderContext() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return ""
	}

	var b strings.Builder
	for i, msg := range s.messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return b.String()
}

// History returns a snapshot copy of the current messages in chronological
// order. Mutating the returned slice does not affect the store.
func (s *Store) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear empties the store unconditionally.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = s.messages[:0]
}

// Len returns the current number of messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Cap returns the capacity bound.
func (s *Store) Cap() int {
	return s.capacity
}
