// deskchat - Terminal client for the help desk assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"github.com/jeranaias/deskchat/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdAsk:
		cli.Exit(cli.HandleAsk(args))
	case cli.CmdChat:
		cli.Exit(cli.HandleChat(args))
	case cli.CmdTUI:
		cli.Exit(cli.HandleTUI(args))
	case cli.CmdHistory:
		cli.Exit(cli.HandleHistory(args))
	case cli.CmdConfig:
		cli.Exit(cli.HandleConfig(args))
	case cli.CmdStatus:
		cli.Exit(cli.HandleStatus(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintHelp()
	}
}
