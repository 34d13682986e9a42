// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command routing and top-level help for deskchat.
package cli

import (
	"fmt"
	"os"
)

// Version information, synced from main at startup.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command identifies a top-level deskchat command.
type Command int

const (
	CmdHelp Command = iota
	CmdVersion
	CmdAsk
	CmdChat
	CmdTUI
	CmdHistory
	CmdConfig
	CmdStatus
)

// Parse reads os.Args and returns the command plus its parsed arguments.
// Unknown commands fall through to help.
func Parse() (Command, *Args) {
	raw := os.Args[1:]
	if len(raw) == 0 {
		return CmdChat, ParseArgs(nil)
	}

	cmd := raw[0]
	args := ParseArgs(raw[1:])

	switch cmd {
	case "ask":
		return CmdAsk, args
	case "chat":
		return CmdChat, args
	case "tui":
		return CmdTUI, args
	case "history", "transcripts":
		return CmdHistory, args
	case "config":
		return CmdConfig, args
	case "status", "s":
		return CmdStatus, args
	case "version", "-v", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, args
	}
}

// PrintVersion prints the build identification.
func PrintVersion() {
	fmt.Printf("deskchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}

// PrintHelp prints the top-level usage.
func PrintHelp() {
	fmt.Print(styled(headerStyle, "deskchat") + ` - terminal client for the help desk assistant

Usage:
  deskchat [command] [flags]

Commands:
  chat              Interactive chat session (default)
  ask <question>    Ask a single question and exit
  tui               Full-screen chat interface
  history           List, show, search, export saved conversations
  config            Show or edit configuration
  status            Check backend reachability and client state
  version           Print version information
  help              Show this help

Examples:
  deskchat ask "How do I reset my VPN token?"
  deskchat ask --file error.log "What does this error mean?"
  deskchat ask --no-stream --json "office wifi password"
  deskchat chat
  deskchat history list
  deskchat history export chat_a1b2c3d4e5f67890 --format md
  deskchat config set backend.base_url http://desk.internal:8000

Environment:
  DESKCHAT_BASE_URL       Override the backend base URL
  DESKCHAT_TIMEOUT_SECS   Override the request timeout
  DESKCHAT_STREAM         Enable/disable streaming (true/false)
`)
}
