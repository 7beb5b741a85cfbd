// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine is the command surface of the assistant core. It owns the
// conversation store, the adapter registry, the cancel flag, and the stream
// driver, and exposes the four operations hosts call: submit a prompt, read
// history, clear history, and stop the active stream.
//
// An engine supports one active stream at a time. Hosts that want parallel
// streams create independent engines; each engine's cancel flag affects only
// its own streams.
package engine
