// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers used across deskchat:
// crash-safe file writes and display-oriented string truncation.
//
// # Key Functions
//
//   - AtomicWriteFile: temp-file + fsync + rename write, never torn
//   - TruncateRunes: rune-safe truncation with ellipsis
//   - TruncateDisplay: terminal-cell-aware truncation for table output
//
// Nothing in this package knows about chat, transport, or configuration.
package util
