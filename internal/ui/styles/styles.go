// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the shared Lip Gloss palette for the hud TUI.
// All colors use AdaptiveColor so light and dark terminals both read well.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PALETTE
// =============================================================================

// Cyan - brand color, user prompts, status accents
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Purple - assistant responses
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Rose - errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - cancelled streams, warnings
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// TextMuted - hints, timestamps, the status line
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// Overlay - borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// SHARED STYLES
// =============================================================================

// UserLabel renders the "you" prefix on user turns.
var UserLabel = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

// AssistantLabel renders the model-name prefix on assistant turns.
var AssistantLabel = lipgloss.NewStyle().Foreground(Purple).Bold(true)

// ErrorText renders error events in the transcript.
var ErrorText = lipgloss.NewStyle().Foreground(Rose)

// CancelledText renders the stopped-stream notice.
var CancelledText = lipgloss.NewStyle().Foreground(Amber)

// StatusBar renders the one-line footer.
var StatusBar = lipgloss.NewStyle().Foreground(TextMuted)

// InputBox frames the prompt textarea.
var InputBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Overlay).
	Padding(0, 1)
