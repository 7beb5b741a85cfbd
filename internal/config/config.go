// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/hud/internal/util"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultProxyURL is the fallback proxy endpoint for the cloud
	// backends, used when neither the config file nor the environment
	// provides one.
	DefaultProxyURL = "https://proxy-server-p9wzc2v53-prem-thatikondas-projects.vercel.app"

	// DefaultOllamaURL is the local Ollama endpoint.
	DefaultOllamaURL = "http://127.0.0.1:11434"

	// DefaultOllamaModel is the local model registered at startup.
	DefaultOllamaModel = "llama3"

	// DefaultModel is the backend used when the prompt names none.
	DefaultModel = "sonar"

	// DefaultHistoryCapacity bounds the conversation store.
	DefaultHistoryCapacity = 20
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete hud configuration.
type Config struct {
	// DefaultModel is the model used when a prompt does not name one.
	DefaultModel string `toml:"default_model"`

	// Proxy configures the cloud backends behind the shared proxy.
	Proxy ProxyConfig `toml:"proxy"`

	// Ollama configures the local backend.
	Ollama OllamaConfig `toml:"ollama"`

	// History configures the conversation store.
	History HistoryConfig `toml:"history"`

	// Stream configures the stream driver.
	Stream StreamConfig `toml:"stream"`
}

// ProxyConfig holds the proxy endpoint for Gemini and Perplexity.
type ProxyConfig struct {
	// BaseURL is the proxy base URL; route suffixes are appended per
	// backend.
	BaseURL string `toml:"base_url"`
}

// OllamaConfig holds the local backend settings.
type OllamaConfig struct {
	// URL is the Ollama server base URL.
	URL string `toml:"url"`
	// Model is the local model name registered with the adapter registry.
	Model string `toml:"model"`
}

// HistoryConfig holds conversation store settings.
type HistoryConfig struct {
	// Capacity is the maximum number of retained messages.
	Capacity int `toml:"capacity"`
}

// StreamConfig holds stream driver settings.
type StreamConfig struct {
	// HeaderTimeoutSecs bounds the wait for upstream response headers.
	// The response body itself streams without a deadline.
	HeaderTimeoutSecs int `toml:"header_timeout_secs"`
}

// Default returns a Config with the built-in default values.
func Default() *Config {
	return &Config{
		DefaultModel: DefaultModel,
		Proxy: ProxyConfig{
			BaseURL: DefaultProxyURL,
		},
		Ollama: OllamaConfig{
			URL:   DefaultOllamaURL,
			Model: DefaultOllamaModel,
		},
		History: HistoryConfig{
			Capacity: DefaultHistoryCapacity,
		},
		Stream: StreamConfig{
			HeaderTimeoutSecs: 30,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Path returns the path to the config file (~/.hud/config.toml).
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hud", "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file (if present), applies environment overrides,
// fills defaults for zero values, and validates. A missing file is not an
// error; defaults plus environment are returned.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit config file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variables on top of the loaded
// values. HUD_PROXY_URL wins over the bare PROXY_URL spelling.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PROXY_URL"); v != "" {
		c.Proxy.BaseURL = v
	}
	if v := os.Getenv("HUD_PROXY_URL"); v != "" {
		c.Proxy.BaseURL = v
	}
	if v := os.Getenv("HUD_OLLAMA_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("HUD_MODEL"); v != "" {
		c.DefaultModel = v
	}
}

// SetDefaults fills defaults for any zero values.
func (c *Config) SetDefaults() {
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	if c.Proxy.BaseURL == "" {
		c.Proxy.BaseURL = DefaultProxyURL
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = DefaultOllamaURL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = DefaultOllamaModel
	}
	if c.History.Capacity <= 0 {
		c.History.Capacity = DefaultHistoryCapacity
	}
	if c.Stream.HeaderTimeoutSecs <= 0 {
		c.Stream.HeaderTimeoutSecs = 30
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validateURL(c.Proxy.BaseURL); err != nil {
		return fmt.Errorf("proxy.base_url: %w", err)
	}
	if err := validateURL(c.Ollama.URL); err != nil {
		return fmt.Errorf("ollama.url: %w", err)
	}
	if c.History.Capacity <= 0 {
		return errors.New("history.capacity must be positive")
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config as TOML to the default path, creating the
// directory if needed.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the config as TOML to an explicit path. The write is
// atomic so a crash mid-save cannot truncate an existing config.
func SaveToPath(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0o600)
}
