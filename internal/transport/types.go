// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// types.go - Outbound message model and request validation.
package transport

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// OUTBOUND MESSAGE
// =============================================================================

// OutboundMessage is one user-initiated send: immutable once constructed.
type OutboundMessage struct {
	Text         string
	SessionToken string
	Attachment   *Attachment // legacy endpoint only
}

// Attachment is a file included with a legacy single-shot message. Content
// is already base64; the wire format carries it verbatim.
type Attachment struct {
	Name    string
	Content string
}

// NewAttachment base64-encodes raw file bytes for the legacy endpoint.
func NewAttachment(name string, data []byte) *Attachment {
	return &Attachment{
		Name:    name,
		Content: base64.StdEncoding.EncodeToString(data),
	}
}

// NewMessage builds an OutboundMessage after normalizing the text. The
// text is NFC-normalized so visually identical input always hits the
// backend (and its length limit) the same way.
func NewMessage(text, sessionToken string) OutboundMessage {
	return OutboundMessage{
		Text:         norm.NFC.String(strings.TrimSpace(text)),
		SessionToken: sessionToken,
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateMessage mirrors the backend's request validator so bad input
// fails before a round trip. maxChars <= 0 applies the backend's own
// limit of 1000.
func ValidateMessage(text string, maxChars int) error {
	if maxChars <= 0 {
		maxChars = 1000
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("message must not be empty")
	}
	if n := len([]rune(trimmed)); n > maxChars {
		return fmt.Errorf("message too long: %d characters (limit %d)", n, maxChars)
	}
	return nil
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// chatRequest is the JSON body for both single-shot endpoints and the
// streaming endpoint.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`

	// Legacy /chat attachment fields, omitted elsewhere.
	FileContent string `json:"file_content,omitempty"`
	FileName    string `json:"file_name,omitempty"`
}

// chatResponse is the success body of a single-shot call. Reply is a
// pointer so a present-but-empty reply is distinguishable from a missing
// field.
type chatResponse struct {
	Reply *string `json:"reply"`
}

// errorBody is the failure body of a single-shot call. The backend uses
// different field names depending on which layer produced the failure.
type errorBody struct {
	Reply  string `json:"reply"`
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// message returns the first populated field, or "" when none is.
func (e *errorBody) message() string {
	switch {
	case e.Reply != "":
		return e.Reply
	case e.Error != "":
		return e.Error
	case e.Detail != "":
		return e.Detail
	}
	return ""
}

// =============================================================================
// CALLBACKS
// =============================================================================

// Callbacks is the caller-facing event contract for one send. All fields
// are optional; a nil OnToken marks the caller as non-streaming. Exactly
// one of OnComplete/OnError fires per send, and nothing fires after it.
type Callbacks struct {
	// OnToken receives each streamed fragment plus the reply accumulated
	// so far. Streaming path only.
	OnToken func(fragment, accumulated string)

	// OnComplete receives the final reply text. Terminal.
	OnComplete func(final string)

	// OnError receives a user-facing failure message. Terminal.
	OnError func(message string)
}

func (cb Callbacks) complete(final string) {
	if cb.OnComplete != nil {
		cb.OnComplete(final)
	}
}

func (cb Callbacks) fail(message string) {
	if cb.OnError != nil {
		cb.OnError(message)
	}
}
