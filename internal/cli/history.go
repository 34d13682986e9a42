// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Saved conversation management.
//
// Command: history [list|show|search|export|delete|clear]
//
// Examples:
//   deskchat history                       List saved conversations
//   deskchat history show chat_a1b2c3d4e5f67890
//   deskchat history search "vpn"
//   deskchat history export chat_a1b2c3d4e5f67890 --format md
//   deskchat history delete chat_a1b2c3d4e5f67890
//   deskchat history clear --confirm
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/deskchat/internal/storage"
	"github.com/jeranaias/deskchat/internal/util"
)

const historyUsage = `deskchat history [list|show <id>|search <query>|export <id> [--format md|json]|delete <id>|clear --confirm]`

// HandleHistory dispatches the history subcommands.
func HandleHistory(args *Args) error {
	app, err := NewApp()
	if err != nil {
		return err
	}
	if app.Store == nil {
		return fmt.Errorf("transcript storage unavailable (no config directory)")
	}

	switch args.Subcommand() {
	case "", "list":
		return historyList(app.Store)
	case "show":
		return historyShow(app, requireID(args))
	case "search":
		return historySearch(app.Store, args)
	case "export":
		return historyExport(app.Store, args)
	case "delete", "rm":
		return historyDelete(app.Store, requireID(args))
	case "clear":
		return historyClear(app.Store, args)
	default:
		return &UsageError{
			Message: "unknown history subcommand: " + args.Subcommand(),
			Usage:   historyUsage,
		}
	}
}

// requireID returns the id argument, or "" to let handlers reject it.
func requireID(args *Args) string {
	rest := args.Rest()
	if len(rest) == 0 {
		return ""
	}
	return rest[0]
}

func historyList(store *storage.Store) error {
	metas, err := store.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println(styled(infoStyle, "No saved conversations."))
		return nil
	}

	fmt.Printf("%-22s  %-16s  %5s  %s\n",
		styled(headerStyle, "ID"),
		styled(headerStyle, "UPDATED"),
		styled(headerStyle, "MSGS"),
		styled(headerStyle, "TITLE"))
	for _, meta := range metas {
		title := meta.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%-22s  %-16s  %5d  %s\n",
			meta.ID,
			meta.UpdatedAt.Format("2006-01-02 15:04"),
			meta.MessageCount,
			util.TruncateDisplay(title, 60))
	}
	return nil
}

func historyShow(app *App, id string) error {
	if id == "" {
		return &UsageError{Message: "show needs a transcript id", Usage: historyUsage}
	}
	t, err := app.Store.Load(id)
	if err != nil {
		return err
	}

	for _, msg := range t.Messages {
		switch msg.Role {
		case storage.RoleUser:
			fmt.Println(styled(promptStyle, "you> ") + msg.Content)
		default:
			if stdoutIsTTY() && app.Config.MarkdownEnabled() {
				fmt.Print(renderMarkdown(msg.Content))
			} else {
				fmt.Println(msg.Content)
			}
		}
		fmt.Println()
	}
	return nil
}

func historySearch(store *storage.Store, args *Args) error {
	rest := args.Rest()
	if len(rest) == 0 {
		return &UsageError{Message: "search needs a query", Usage: historyUsage}
	}
	metas, err := store.Search(rest[0])
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println(styled(infoStyle, "No matches."))
		return nil
	}
	for _, meta := range metas {
		fmt.Printf("%s  %s\n", meta.ID, util.TruncateDisplay(meta.Title, 60))
	}
	return nil
}

func historyExport(store *storage.Store, args *Args) error {
	id := requireID(args)
	if id == "" {
		return &UsageError{Message: "export needs a transcript id", Usage: historyUsage}
	}

	var out string
	var err error
	switch format := args.Flag("format"); format {
	case "", "md", "markdown":
		out, err = store.ExportMarkdown(id)
	case "json":
		out, err = store.ExportJSON(id)
	default:
		return &UsageError{Message: "unknown format: " + format, Usage: historyUsage}
	}
	if err != nil {
		return err
	}

	if dest := args.Flag("out", "o"); dest != "" {
		if err := os.WriteFile(dest, []byte(out), 0644); err != nil {
			return err
		}
		fmt.Println(styled(okStyle, "Exported to "+dest))
		return nil
	}
	fmt.Print(out)
	return nil
}

func historyDelete(store *storage.Store, id string) error {
	if id == "" {
		return &UsageError{Message: "delete needs a transcript id", Usage: historyUsage}
	}
	if err := store.Delete(id); err != nil {
		return err
	}
	fmt.Println(styled(okStyle, "Deleted "+id))
	return nil
}

func historyClear(store *storage.Store, args *Args) error {
	if !args.Bool("confirm", "yes", "y") {
		return &UsageError{
			Message: "clear removes every saved conversation; pass --confirm",
			Usage:   historyUsage,
		}
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println(styled(okStyle, "All conversations deleted."))
	return nil
}
