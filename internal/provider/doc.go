// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider normalizes the wire protocols of the supported inference
// backends into a single chunk model.
//
// Two structurally different stream framings are covered:
//
//   - SSE-style framing used by the proxy-backed cloud providers
//     (Gemini and Perplexity share it): "data: " prefixed lines carrying
//     JSON payloads, terminated by a literal [DONE] sentinel.
//   - Newline-delimited JSON used by a local Ollama server: one JSON
//     object per line with a "done" flag on the final one.
//
// Adapters are stateless and safe for concurrent use; the stream driver
// owns the byte stream and feeds adapters one line at a time.
package provider
