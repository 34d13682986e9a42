// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the stable session identity sent with every
// backend request.
//
// A token looks like "sess_20250115_093042_k3xp91qa": a timestamp plus a
// random suffix, unique enough for a single-user client. It is created on
// first use, persisted under the config directory, and read-only after
// that. If storage is unavailable the provider degrades to a fresh
// per-process token instead of failing.
package session
