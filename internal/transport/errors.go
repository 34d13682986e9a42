// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Typed errors for the transport layer.
//
// Every failure a request can hit maps to one ErrorType. Callers switch on
// the type (or use the Is* helpers); the Message field is already phrased
// for end users.
package transport

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrTimeout means the single-shot call exceeded its wall-clock budget.
	ErrTimeout = errors.New("request timed out")

	// ErrNetwork means the connection could not be established or was
	// interrupted, after the one allowed retry.
	ErrNetwork = errors.New("network failure")

	// ErrBackend means the backend answered with a non-2xx status.
	ErrBackend = errors.New("backend error")

	// ErrMalformedResponse means a 2xx response was missing the reply field.
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrStreamSetup means the streaming request never produced a readable
	// event stream. Internal: the orchestrator falls back on it.
	ErrStreamSetup = errors.New("stream setup failed")

	// ErrStreamClosed means the stream ended before a terminal event.
	// Internal: the orchestrator falls back on it.
	ErrStreamClosed = errors.New("stream closed unexpectedly")
)

// =============================================================================
// ERROR TYPE
// =============================================================================

// ErrorType classifies transport failures.
type ErrorType int

const (
	// ErrTypeTimeout: wall-clock budget exceeded; never retried.
	ErrTypeTimeout ErrorType = iota
	// ErrTypeNetwork: transient transport failure; retried once.
	ErrTypeNetwork
	// ErrTypeBackend: non-2xx response from the backend.
	ErrTypeBackend
	// ErrTypeMalformed: 2xx response without the expected reply field.
	ErrTypeMalformed
	// ErrTypeStreamSetup: streaming request rejected before any event.
	ErrTypeStreamSetup
	// ErrTypeStreamClosed: stream ended with no terminal event.
	ErrTypeStreamClosed
)

// User-facing messages. The backend's own wording is reused where it has
// one, so streaming and single-shot failures read the same to the user.
const (
	MsgTimeout     = "This operation is taking longer than expected. Please try again."
	MsgNetwork     = "Unable to reach the assistant. Check your connection and try again."
	MsgUnavailable = "Our service is temporarily unavailable. Please try again later."
	MsgStreamLost  = "The connection was interrupted. Please try again."
)

// Error is a typed transport failure.
type Error struct {
	Type    ErrorType
	Message string // user-facing text
	Status  int    // HTTP status, when one was received
	Cause   error  // underlying error, when any
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Cause != nil:
		return fmt.Sprintf("%s (status %d): %v", e.Message, e.Status, e.Cause)
	case e.Status != 0:
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match the sentinel for each type.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Type == ErrTypeTimeout
	case ErrNetwork:
		return e.Type == ErrTypeNetwork
	case ErrBackend:
		return e.Type == ErrTypeBackend
	case ErrMalformedResponse:
		return e.Type == ErrTypeMalformed
	case ErrStreamSetup:
		return e.Type == ErrTypeStreamSetup
	case ErrStreamClosed:
		return e.Type == ErrTypeStreamClosed
	}
	return false
}

// =============================================================================
// HELPERS
// =============================================================================

// IsTimeout reports whether err is a timeout failure.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsNetwork reports whether err is a network failure.
func IsNetwork(err error) bool { return errors.Is(err, ErrNetwork) }

// IsBackend reports whether err is a backend-reported failure.
func IsBackend(err error) bool { return errors.Is(err, ErrBackend) }

// UserMessage extracts the user-facing text from a transport error. Any
// other error gets the generic unavailable message.
func UserMessage(err error) string {
	var terr *Error
	if errors.As(err, &terr) && terr.Message != "" {
		return terr.Message
	}
	return MsgUnavailable
}
