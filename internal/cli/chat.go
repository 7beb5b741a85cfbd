// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/hud/internal/engine"
	"github.com/jeranaias/hud/internal/events"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI wraps liner with persistent input history, so arrow-key recall
// survives across sessions.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the readline state and loads prior history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".hud", "chat_history")
	}

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line, recording non-empty input in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *ChatCLI) saveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close persists history and restores the terminal.
func (c *ChatCLI) Close() {
	c.saveHistory()
	c.line.Close()
}

// =============================================================================
// ONE-SHOT ASK
// =============================================================================

// RunAsk streams a single prompt to stdout and returns whether the stream
// failed. Chunks print as they arrive.
func RunAsk(eng *engine.Engine, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return errors.New("usage: hud ask <prompt>")
	}
	if failed := streamToStdout(eng, prompt); failed {
		return errors.New("stream failed")
	}
	return nil
}

// =============================================================================
// CHAT LOOP
// =============================================================================

// RunChat runs the interactive readline chat loop until /quit, Ctrl-C at
// the prompt, or EOF.
func RunChat(eng *engine.Engine) error {
	cli := NewChatCLI()
	defer cli.Close()

	fmt.Printf("hud chat — model %s. /model <name> to switch, /clear to reset, /quit to exit.\n",
		eng.DefaultModel())

	for {
		input, err := cli.ReadInput("> ")
		if err != nil {
			// Ctrl-C at the prompt or EOF ends the session.
			if errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if handled, quit := handleReplCommand(eng, input); handled {
			if quit {
				return nil
			}
			continue
		}

		streamToStdout(eng, input)
	}
}

// handleReplCommand dispatches slash commands; quit reports /quit.
func handleReplCommand(eng *engine.Engine, input string) (handled, quit bool) {
	if !strings.HasPrefix(input, "/") {
		return false, false
	}
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit":
		return true, true
	case "/clear":
		eng.ClearHistory()
		fmt.Println("conversation cleared")
		return true, false
	case "/model":
		if len(fields) < 2 {
			fmt.Println("current model:", eng.DefaultModel())
			return true, false
		}
		if err := eng.SetDefaultModel(fields[1]); err != nil {
			fmt.Println("unknown model:", fields[1])
			return true, false
		}
		fmt.Println("model set to", fields[1])
		return true, false
	default:
		fmt.Println("unknown command:", fields[0])
		return true, false
	}
}

// streamToStdout runs one prompt, prints chunks as they arrive, and
// reports whether the stream ended in an error event.
func streamToStdout(eng *engine.Engine, prompt string) bool {
	sink := events.NewChannelSink(64)
	go func() {
		err := eng.SubmitPrompt(context.Background(), sink, prompt, "")
		if errors.Is(err, engine.ErrEmptyPrompt) || errors.Is(err, engine.ErrTooFast) {
			// Pre-stream rejections emit nothing; close the sequence so the
			// drain loop below terminates.
			sink.Emit(events.Event{Kind: events.KindError, Text: err.Error()})
		}
	}()

	failed := false
	for e := range sink.Events() {
		switch e.Kind {
		case events.KindChunk:
			fmt.Print(e.Text)
		case events.KindDone:
			fmt.Println()
		case events.KindCancelled:
			fmt.Fprintln(os.Stderr, "\nstream cancelled")
		case events.KindError:
			fmt.Fprintln(os.Stderr, "\nerror: "+e.Text)
			failed = true
		}
	}
	return failed
}
