// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for hud.
//
// Configuration comes from three layers, later ones winning:
//   - Built-in defaults
//   - ~/.hud/config.toml
//   - Environment variables (HUD_PROXY_URL / PROXY_URL, HUD_OLLAMA_URL,
//     HUD_MODEL)
package config
