// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/hud/internal/engine"
	"github.com/jeranaias/hud/internal/events"
	"github.com/jeranaias/hud/internal/telemetry"
	"github.com/jeranaias/hud/internal/ui/styles"
)

const inputHeight = 3

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	engine *engine.Engine
	ledger *telemetry.Ledger

	input    textarea.Model
	vp       viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	transcript []string
	streamBuf  strings.Builder
	streaming  bool
	eventCh    <-chan events.Event

	width  int
	height int
	ready  bool
}

// New creates the chat model. The ledger may be nil; /stats then reports
// that the ledger is disabled.
func New(eng *engine.Engine, ledger *telemetry.Ledger) *Model {
	input := textarea.New()
	input.Placeholder = "Ask anything... (/help for commands)"
	input.CharLimit = 0
	input.SetHeight(1)
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.AssistantLabel

	return &Model{
		engine: eng,
		ledger: ledger,
		input:  input,
		spin:   spin,
	}
}

// Init satisfies tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update satisfies tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.streaming {
				m.engine.StopStream()
				return m, nil
			}
			return m, tea.Quit
		case "enter":
			return m.handleSubmit()
		}

	case spinner.TickMsg:
		if m.streaming {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case ResponseChunkMsg:
		m.streamBuf.WriteString(msg.Text)
		m.refreshViewport()
		return m, waitForEvent(m.eventCh)

	case ResponseDoneMsg:
		m.finishStream(m.renderMarkdown(msg.Text), styles.AssistantLabel.Render(m.engine.DefaultModel()))
		return m, nil

	case ResponseCancelledMsg:
		m.finishStream(styles.CancelledText.Render("response stopped"), "")
		return m, nil

	case ResponseErrorMsg:
		m.finishStream(styles.ErrorText.Render(msg.Text), "")
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleSubmit routes the input line: slash commands dispatch locally,
// anything else becomes a prompt. Submits are ignored while streaming.
func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if name, args, ok := parseSlashCommand(text); ok {
		m.input.Reset()
		cmd := m.dispatchCommand(name, args)
		m.refreshViewport()
		return m, cmd
	}

	if m.streaming {
		return m, nil
	}

	m.input.Reset()
	m.transcript = append(m.transcript,
		styles.UserLabel.Render("you")+"\n"+text)
	m.streaming = true
	m.streamBuf.Reset()
	m.refreshViewport()

	return m, tea.Batch(m.submitCmd(text, ""), m.spin.Tick)
}

// finishStream closes out the in-flight response with its final block.
func (m *Model) finishStream(block, label string) {
	m.streaming = false
	m.streamBuf.Reset()
	if label != "" {
		block = label + "\n" + block
	}
	m.transcript = append(m.transcript, block)
	m.refreshViewport()
}

// appendSystem adds an informational line to the transcript.
func (m *Model) appendSystem(text string) {
	m.transcript = append(m.transcript, styles.StatusBar.Render(text))
}

// =============================================================================
// LAYOUT AND VIEW
// =============================================================================

// layout resizes components and rebuilds the markdown renderer for the
// new wrap width.
func (m *Model) layout() {
	vpHeight := m.height - inputHeight - 2
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.vp = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.vp.Width = m.width
		m.vp.Height = vpHeight
	}
	m.input.SetWidth(m.width - 4)

	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.width-2),
	); err == nil {
		m.renderer = r
	}
	m.refreshViewport()
}

// renderMarkdown renders completed assistant text; raw text is the
// fallback when the renderer is unavailable or fails.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// refreshViewport rebuilds the transcript content and follows the tail.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	blocks := m.transcript
	if m.streaming && m.streamBuf.Len() > 0 {
		partial := styles.AssistantLabel.Render(m.engine.DefaultModel()) +
			"\n" + m.streamBuf.String()
		blocks = append(blocks[:len(blocks):len(blocks)], partial)
	}
	m.vp.SetContent(strings.Join(blocks, "\n\n"))
	m.vp.GotoBottom()
}

// statusLine renders the footer, truncated to the terminal width.
func (m *Model) statusLine() string {
	var status string
	if m.streaming {
		status = fmt.Sprintf("%s streaming... esc to stop", m.spin.View())
	} else {
		status = fmt.Sprintf("model: %s | %d messages | /help to list commands",
			m.engine.DefaultModel(), len(m.engine.History()))
	}
	return styles.StatusBar.Render(runewidth.Truncate(status, m.width, "..."))
}

// View satisfies tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}
	return m.vp.View() + "\n" +
		m.statusLine() + "\n" +
		styles.InputBox.Render(m.input.View())
}
