// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL.
//
// Command: chat
//
// Interactive commands:
//   /help, /h      Show available commands
//   /clear, /c     Start a new conversation (saves the current one)
//   /history       Show the current conversation
//   /session       Show the session token
//   /quit, /q      Exit
//   Ctrl+C         Cancel the in-flight reply (press at prompt to exit)
//   Ctrl+D         Exit
//
// Sending a message while one is in flight is impossible in the REPL (the
// prompt blocks), so cancellation is explicit: Ctrl+C cancels the current
// generation and returns to the prompt.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/peterh/liner"

	"github.com/jeranaias/deskchat/internal/config"
	"github.com/jeranaias/deskchat/internal/storage"
	"github.com/jeranaias/deskchat/internal/transport"
)

// historyFileName stores liner input history under the config dir.
const historyFileName = "input_history"

// rebuildOnConfigChange returns a watch callback that swaps a freshly
// wired App into current. The watcher invokes it on its own goroutine,
// so the swap must be a single atomic store; the REPL loads its own
// snapshot once per prompt and never sees a half-written App.
func rebuildOnConfigChange(current *atomic.Pointer[App]) func(*config.Config) {
	return func(*config.Config) {
		if fresh, err := NewApp(); err == nil {
			current.Store(fresh)
		}
	}
}

// HandleChat runs the interactive REPL until the user exits.
func HandleChat(args *Args) error {
	app, err := NewApp()
	if err != nil {
		return err
	}

	var current atomic.Pointer[App]
	current.Store(app)

	// Live config reload: editing ~/.deskchat/config.toml mid-session
	// rewires the transport on the next message.
	if path, err := config.ConfigPath(); err == nil {
		if w, err := config.Watch(path, rebuildOnConfigChange(&current)); err == nil {
			defer w.Close()
		}
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyPath := loadInputHistory(line)
	defer saveInputHistory(line, historyPath)

	printWelcome(app)

	transcript := storage.NewTranscript(app.Session.Token())
	defer func() { current.Load().SaveTranscript(transcript) }()

	for {
		app := current.Load()

		input, err := line.Prompt(styled(promptStyle, "you> "))
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if done := runChatCommand(app, input, &transcript); done {
				return nil
			}
			continue
		}

		if err := transport.ValidateMessage(input, app.Config.Chat.MaxMessageChars); err != nil {
			fmt.Println(styled(warnStyle, err.Error()))
			continue
		}

		reply, cancelled := generate(app, input)
		if cancelled {
			continue
		}
		transcript.Append(storage.RoleUser, input)
		transcript.Append(storage.RoleAssistant, reply)
	}
}

// generate sends one message, streaming the reply to stdout. Ctrl+C
// cancels the in-flight request and returns to the prompt.
func generate(app *App, input string) (reply string, cancelled bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Print(styled(infoStyle, "assistant> "))

	var failed bool
	app.Orch.Send(ctx, input, transport.Callbacks{
		OnToken: func(fragment, _ string) {
			fmt.Print(fragment)
		},
		OnComplete: func(final string) {
			reply = final
		},
		OnError: func(message string) {
			failed = true
			if message == transport.MsgCancelled {
				cancelled = true
				fmt.Println(styled(warnStyle, "\n(cancelled)"))
				return
			}
			fmt.Println(styled(errorStyle, "\n"+message))
		},
	})

	if failed {
		return "", cancelled
	}
	fmt.Println()
	fmt.Println()
	return reply, false
}

// runChatCommand handles slash commands. Returns true when the REPL
// should exit.
func runChatCommand(app *App, input string, transcript **storage.Transcript) bool {
	cmd := strings.Fields(input)[0]
	switch cmd {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		fmt.Println(`Commands:
  /help, /h      Show this help
  /clear, /c     Start a new conversation (saves the current one)
  /history       Show the current conversation
  /session       Show the session token
  /quit, /q      Exit`)

	case "/clear", "/c":
		app.SaveTranscript(*transcript)
		*transcript = storage.NewTranscript(app.Session.Token())
		fmt.Println(styled(okStyle, "Started a new conversation."))

	case "/history":
		t := *transcript
		if len(t.Messages) == 0 {
			fmt.Println(styled(infoStyle, "No messages yet."))
			break
		}
		for _, msg := range t.Messages {
			label := "you"
			if msg.Role == storage.RoleAssistant {
				label = "assistant"
			}
			fmt.Printf("%s %s\n", styled(headerStyle, label+":"), msg.Content)
		}

	case "/session":
		fmt.Println(app.Session.Token())

	default:
		fmt.Println(styled(warnStyle, "Unknown command "+cmd+" (try /help)"))
	}
	return false
}

func printWelcome(app *App) {
	fmt.Println(styled(headerStyle, "deskchat "+Version))
	fmt.Println(styled(infoStyle, "Backend: "+app.Client.BaseURL()))
	fmt.Println(styled(infoStyle, "Type /help for commands, Ctrl+D to exit."))
	fmt.Println()
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

func loadInputHistory(line *liner.State) string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, historyFileName)
	if f, err := os.Open(path); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return path
}

func saveInputHistory(line *liner.State, path string) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
