// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream drives the HTTP lifecycle of one inference request: it
// issues the outbound request built by a provider adapter, feeds the
// response bytes through the adapter line by line, applies cooperative
// cancellation at every line boundary, accumulates the full response, and
// emits lifecycle events toward the host.
//
// A stream moves through the states
//
//	Idle -> Requesting -> Streaming -> {Completed | Cancelled | Failed}
//
// and every terminal state is final for that invocation. Partial content
// accumulated before a failure or cancellation is discarded, never
// committed to the conversation; the user turn that triggered the stream
// stays committed so the context is preserved for a retry.
package stream
