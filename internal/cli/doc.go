// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the deskchat command-line interface: argument
// parsing, command handlers, exit-code mapping, and terminal output
// styling.
//
// Commands: ask (one shot), chat (REPL), tui (full screen), history,
// config, status, version, help. Handlers return errors; main routes
// them through Exit, which maps transport error types to exit codes.
package cli
