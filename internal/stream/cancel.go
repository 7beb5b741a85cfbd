// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "sync/atomic"

// =============================================================================
// CANCEL FLAG
// =============================================================================

// CancelFlag is the cooperative cancellation token shared between the stop
// command and the active stream loop.
//
// Set returns immediately; it does not wait for the stream to observe the
// flag. Observation happens only at line boundaries inside the streaming
// loop, so cancellation latency is bounded by the gap between two incoming
// chunks. The driver resets the flag at the start of every new stream;
// once set it stays set until that reset. One flag per engine means only
// one stream is meaningfully cancellable at a time.
type CancelFlag struct {
	flag atomic.Bool
}

// NewCancelFlag creates an unset flag.
func NewCancelFlag() *CancelFlag {
	return &CancelFlag{}
}

// Set requests cancellation of the active stream.
func (f *CancelFlag) Set() {
	f.flag.Store(true)
}

// Reset clears the flag. Called at the start of every new stream.
func (f *CancelFlag) Reset() {
	f.flag.Store(false)
}

// IsSet reports whether cancellation was requested.
func (f *CancelFlag) IsSet() bool {
	return f.flag.Load()
}
