// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/hud/internal/engine"
	"github.com/jeranaias/hud/internal/events"
)

// =============================================================================
// STREAM MESSAGES
// =============================================================================

// ResponseChunkMsg carries one incremental text delta.
type ResponseChunkMsg struct {
	Text string
}

// ResponseDoneMsg carries the full text of a completed response.
type ResponseDoneMsg struct {
	Text string
}

// ResponseCancelledMsg signals that a stop request was honored.
type ResponseCancelledMsg struct{}

// ResponseErrorMsg carries the error text of a failed stream.
type ResponseErrorMsg struct {
	Text string
}

// =============================================================================
// BRIDGING COMMANDS
// =============================================================================

// submitCmd starts the stream in a goroutine behind a channel sink and
// returns the subscription command that relays its events.
//
// Stream failures already arrive as error events, so the engine's returned
// error is dropped; only pre-stream rejections (empty prompt, rate guard)
// produce no event and get a synthetic one so the subscription still ends.
func (m *Model) submitCmd(prompt, model string) tea.Cmd {
	sink := events.NewChannelSink(64)
	m.eventCh = sink.Events()

	go func() {
		err := m.engine.SubmitPrompt(context.Background(), sink, prompt, model)
		if errors.Is(err, engine.ErrEmptyPrompt) || errors.Is(err, engine.ErrTooFast) {
			sink.Emit(events.Event{Kind: events.KindError, Text: err.Error()})
		}
	}()

	return waitForEvent(m.eventCh)
}

// waitForEvent blocks on the next stream event and converts it to a
// Bubble Tea message. The channel closes after the terminal event; the
// resulting nil message is ignored by the loop.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		switch e.Kind {
		case events.KindChunk:
			return ResponseChunkMsg{Text: e.Text}
		case events.KindDone:
			return ResponseDoneMsg{Text: e.Text}
		case events.KindCancelled:
			return ResponseCancelledMsg{}
		default:
			return ResponseErrorMsg{Text: e.Text}
		}
	}
}
