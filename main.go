// hud - a desktop overlay assistant core with a terminal chat host.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/hud/internal/cli"
	"github.com/jeranaias/hud/internal/config"
	"github.com/jeranaias/hud/internal/engine"
	"github.com/jeranaias/hud/internal/stream"
	"github.com/jeranaias/hud/internal/telemetry"
	"github.com/jeranaias/hud/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		modelFlag   = flag.String("model", "", "model to use (overrides config)")
		configFlag  = flag.String("config", "", "config file path (default: ~/.hud/config.toml)")
		noLedger    = flag.Bool("no-ledger", false, "disable the usage ledger")
		versionFlag = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("hud %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *modelFlag != "" {
		cfg.DefaultModel = *modelFlag
	}

	var ledger *telemetry.Ledger
	if !*noLedger {
		if ledger, err = telemetry.Open(""); err != nil {
			// The assistant works without the ledger; /stats just reports
			// it as disabled.
			fmt.Fprintf(os.Stderr, "warning: usage ledger unavailable: %v\n", err)
			ledger = nil
		} else {
			defer ledger.Close()
		}
	}

	var recorder stream.Recorder
	if ledger != nil {
		recorder = ledger
	}
	eng := engine.New(cfg, recorder)

	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "ask":
			if err := cli.RunAsk(eng, strings.Join(args[1:], " ")); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "chat":
			if err := cli.RunChat(eng); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}

	runTUI(eng, ledger, *configFlag)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// =============================================================================
// TUI MODE
// =============================================================================

func runTUI(eng *engine.Engine, ledger *telemetry.Ledger, configPath string) {
	m := chat.New(eng, ledger)

	if watcher := startConfigWatcher(eng, configPath); watcher != nil {
		defer watcher.Close()
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running hud: %v\n", err)
		os.Exit(1)
	}
}

// startConfigWatcher reloads backend endpoints when the config file changes
// on disk. Watching is best-effort; the TUI runs fine without it.
func startConfigWatcher(eng *engine.Engine, configPath string) *config.Watcher {
	path := configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil
		}
		path = p
	}

	watcher, err := config.NewWatcher(path, 500*time.Millisecond, func(cfg *config.Config) {
		eng.Reconfigure(cfg)
	})
	if err != nil {
		return nil
	}
	if err := watcher.Watch(); err != nil {
		watcher.Close()
		return nil
	}
	return watcher
}
