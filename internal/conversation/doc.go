// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation implements the bounded conversation history that is
// threaded into every outbound inference request.
//
// The Store keeps at most Capacity messages (default 20) in strict
// chronological order, evicting the oldest entry when a new one would
// exceed the bound. All operations are safe for concurrent use.
package conversation
