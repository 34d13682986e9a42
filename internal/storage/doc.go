// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversation transcripts on the client.
//
// Transcripts are plain JSON files under ~/.deskchat/transcripts/, one
// per conversation, written atomically. The backend never sees them;
// they exist for `deskchat history` and exports. The store caps the
// number of files and prunes the oldest beyond the cap.
//
// # Key Types
//
//   - Transcript / Message: one conversation and its turns
//   - Store: Save, Load, List, Search, Delete, Clear, ExportMarkdown
//   - TranscriptError: typed failure, errors.Is(ErrTranscriptNotFound)
package storage
