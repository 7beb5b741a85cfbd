// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// SLASH COMMAND REGISTRY
// =============================================================================

// slashCommand is one registered /command with its handler.
type slashCommand struct {
	name  string
	usage string
	help  string
	run   func(m *Model, args []string) tea.Cmd
}

// commandRegistry holds the built-in slash commands, dispatched by name.
// Populated in init to break the initialization cycle with the /help handler.
var commandRegistry map[string]slashCommand

func init() {
	commandRegistry = map[string]slashCommand{
		"clear": {
			name: "clear", usage: "/clear", help: "clear the conversation",
			run: func(m *Model, args []string) tea.Cmd {
				m.engine.ClearHistory()
				m.transcript = nil
				m.appendSystem("conversation cleared")
				return nil
			},
		},
		"model": {
			name: "model", usage: "/model [name]", help: "show or switch the default model",
			run: func(m *Model, args []string) tea.Cmd {
				if len(args) == 0 {
					models := m.engine.Models()
					sort.Strings(models)
					m.appendSystem(fmt.Sprintf("current: %s (available: %s, gemini-*)",
						m.engine.DefaultModel(), strings.Join(models, ", ")))
					return nil
				}
				if err := m.engine.SetDefaultModel(args[0]); err != nil {
					m.appendSystem("unknown model: " + args[0])
					return nil
				}
				m.appendSystem("default model set to " + args[0])
				return nil
			},
		},
		"stats": {
			name: "stats", usage: "/stats", help: "show usage statistics",
			run: func(m *Model, args []string) tea.Cmd {
				if m.ledger == nil {
					m.appendSystem("usage ledger disabled")
					return nil
				}
				s, err := m.ledger.Summarize()
				if err != nil {
					m.appendSystem("stats unavailable: " + err.Error())
					return nil
				}
				m.appendSystem(fmt.Sprintf(
					"streams: %d (%d completed, %d cancelled, %d failed) | chunks: %d | avg ttft: %s | avg duration: %s",
					s.Total, s.Completed, s.Cancelled, s.Failed,
					s.TotalChunks, s.AvgTTFT, s.AvgDuration))
				return nil
			},
		},
		"help": {
			name: "help", usage: "/help", help: "list commands",
			run: func(m *Model, args []string) tea.Cmd {
				var lines []string
				for _, name := range commandNames() {
					c := commandRegistry[name]
					lines = append(lines, fmt.Sprintf("%-16s %s", c.usage, c.help))
				}
				m.appendSystem(strings.Join(lines, "\n"))
				return nil
			},
		},
		"quit": {
			name: "quit", usage: "/quit", help: "exit",
			run: func(m *Model, args []string) tea.Cmd {
				return tea.Quit
			},
		},
	}
}

// commandNames returns the registered names in stable order.
func commandNames() []string {
	names := make([]string, 0, len(commandRegistry))
	for name := range commandRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseSlashCommand splits "/name arg1 arg2" into its parts. ok is false
// for input that is not a slash command.
func parseSlashCommand(input string) (name string, args []string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", nil, false
	}
	fields := strings.Fields(input[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// dispatchCommand runs a slash command, reporting unknown names inline.
func (m *Model) dispatchCommand(name string, args []string) tea.Cmd {
	cmd, found := commandRegistry[name]
	if !found {
		m.appendSystem("unknown command: /" + name + " (try /help)")
		return nil
	}
	return cmd.run(m, args)
}
