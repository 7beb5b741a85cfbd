// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"

	"github.com/jeranaias/hud/internal/provider"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes stream errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota

	// ErrTypeUnsupportedModel: no adapter registered for the requested
	// model. No request was issued.
	ErrTypeUnsupportedModel

	// ErrTypeTransport: connection refused, DNS failure, or timeout while
	// reaching the backend.
	ErrTypeTransport

	// ErrTypeStatus: the backend answered with a non-2xx status.
	ErrTypeStatus

	// ErrTypePayload: the backend delivered a decodable error payload
	// inside an otherwise successful stream.
	ErrTypePayload
)

// Error represents a failed stream invocation.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error

	// Status and Body are set for ErrTypeStatus.
	Status int
	Body   string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsUnsupportedModel checks if an error is an unsupported-model error.
func IsUnsupportedModel(err error) bool {
	var streamErr *Error
	if errors.As(err, &streamErr) {
		return streamErr.Type == ErrTypeUnsupportedModel
	}
	return errors.Is(err, provider.ErrUnsupportedModel)
}

// IsTransport checks if an error is a transport failure.
func IsTransport(err error) bool {
	var streamErr *Error
	return errors.As(err, &streamErr) && streamErr.Type == ErrTypeTransport
}

// IsUpstreamStatus checks if an error is a non-2xx upstream response.
func IsUpstreamStatus(err error) bool {
	var streamErr *Error
	return errors.As(err, &streamErr) && streamErr.Type == ErrTypeStatus
}

// IsUpstreamPayload checks if an error is an in-stream error payload.
func IsUpstreamPayload(err error) bool {
	var streamErr *Error
	return errors.As(err, &streamErr) && streamErr.Type == ErrTypePayload
}
