// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and persists the deskchat client configuration.
//
// Configuration lives at ~/.deskchat/config.toml. Loading is layered:
// TOML file, then defaults for anything unset, then environment overrides
// (DESKCHAT_BASE_URL, DESKCHAT_TIMEOUT_SECS, DESKCHAT_STREAM), then
// validation. A missing file is normal and yields the defaults.
//
// # Key Types
//
//   - Config: the full configuration tree (Backend, Chat, Transcripts)
//   - Watcher: fsnotify-based hot reload of the config file
//   - ValidationError: one invalid field, with the reason
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := transport.NewClient(transport.ConfigFrom(cfg))
package config
