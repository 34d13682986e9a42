// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui_cmd.go - Full-screen chat command.
//
// Command:
//
//	deskchat tui
//
// Launches the Bubble Tea conversation view. Requires a terminal.
package cli

import (
	"fmt"

	uichat "github.com/jeranaias/deskchat/internal/ui/chat"
)

// HandleTUI launches the full-screen chat view.
func HandleTUI(args *Args) error {
	if !stdoutIsTTY() {
		return fmt.Errorf("tui requires a terminal")
	}

	app, err := NewApp()
	if err != nil {
		return err
	}

	return uichat.Run(uichat.Options{
		Orch:            app.Orch,
		SessionToken:    app.Session.Token(),
		MaxMessageChars: app.Config.Chat.MaxMessageChars,
		RenderMarkdown:  app.Config.MarkdownEnabled(),
		SaveTranscript:  app.SaveTranscript,
	})
}
