// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the interactive Bubble Tea host over the engine. It owns
// a textarea for prompts, a viewport transcript, and a spinner shown while
// a stream is in flight.
//
// Stream events cross into the Bubble Tea loop as messages: the submit
// command runs the engine in a goroutine behind a channel sink, and a
// subscription command converts each event into a ResponseChunkMsg,
// ResponseDoneMsg, ResponseCancelledMsg, or ResponseErrorMsg.
//
// Slash commands (/clear, /model, /stats, /help, /quit) are dispatched
// through a handler registry; Esc stops the active stream.
package chat
