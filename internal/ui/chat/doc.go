// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the full-screen conversation view.
//
// The view is a Bubble Tea model built from three bubbles components:
// a viewport for the conversation, a textarea for input, and a spinner
// shown while a reply is in flight. Replies arrive over the
// orchestrator's chunk channel and are appended token by token, so the
// screen fills in as the backend streams.
//
// # Key Types
//
//   - Options: dependencies injected by the caller
//   - Model: the tea.Model for the screen
//
// # Usage
//
//	err := chat.Run(chat.Options{
//	    Orch:         orch,
//	    SessionToken: token,
//	})
package chat
