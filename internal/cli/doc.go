// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the headless surfaces: the one-shot ask command
// and an interactive readline chat loop for terminals where the full TUI
// is unwanted (pipes, ssh sessions, scripts).
package cli
