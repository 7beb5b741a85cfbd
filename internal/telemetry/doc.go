// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records per-stream usage in a local SQLite ledger:
// which model ran, how the stream ended, how many chunks arrived, time to
// first token, and total duration. The ledger backs the /stats view.
//
// Usage data is operational metadata only; no prompt or response content
// is ever written.
package telemetry
