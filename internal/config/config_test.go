// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sonar", cfg.DefaultModel)
	assert.Equal(t, DefaultProxyURL, cfg.Proxy.BaseURL)
	assert.Equal(t, DefaultOllamaURL, cfg.Ollama.URL)
	assert.Equal(t, 20, cfg.History.Capacity)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Proxy.BaseURL, cfg.Proxy.BaseURL)
}

func TestLoadFromPath_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
default_model = "gemini-pro"

[proxy]
base_url = "https://proxy.example.com"

[ollama]
url = "http://127.0.0.1:11434"
model = "mistral"

[history]
capacity = 50
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-pro", cfg.DefaultModel)
	assert.Equal(t, "https://proxy.example.com", cfg.Proxy.BaseURL)
	assert.Equal(t, "mistral", cfg.Ollama.Model)
	assert.Equal(t, 50, cfg.History.Capacity)
}

func TestLoadFromPath_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_model = "sonar"`), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultOllamaURL, cfg.Ollama.URL)
	assert.Equal(t, DefaultHistoryCapacity, cfg.History.Capacity)
	assert.Equal(t, 30, cfg.Stream.HeaderTimeoutSecs)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PROXY_URL", "https://plain.example.com")
	t.Setenv("HUD_OLLAMA_URL", "http://10.0.0.2:11434")
	t.Setenv("HUD_MODEL", "gemini-pro")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "https://plain.example.com", cfg.Proxy.BaseURL)
	assert.Equal(t, "http://10.0.0.2:11434", cfg.Ollama.URL)
	assert.Equal(t, "gemini-pro", cfg.DefaultModel)

	// The HUD-prefixed spelling wins over the bare one.
	t.Setenv("HUD_PROXY_URL", "https://prefixed.example.com")
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "https://prefixed.example.com", cfg.Proxy.BaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad proxy scheme", func(c *Config) { c.Proxy.BaseURL = "ftp://x.test" }, true},
		{"empty proxy host", func(c *Config) { c.Proxy.BaseURL = "https://" }, true},
		{"bad ollama url", func(c *Config) { c.Ollama.URL = "not a url" }, true},
		{"zero capacity", func(c *Config) { c.History.Capacity = 0 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveToPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultModel = "llama3"
	require.NoError(t, SaveToPath(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "llama3", loaded.DefaultModel)
}
