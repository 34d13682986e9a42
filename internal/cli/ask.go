// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command.
//
// Command: ask [question]
//
// Examples:
//   deskchat ask "How do I reset my VPN token?"
//   deskchat ask --file error.log "What does this error mean?"
//   deskchat ask --no-stream "office wifi password"
//   deskchat ask --json "list printer queues"
//
// Flags:
//   -f, --file FILE   Attach a file (legacy endpoint, max 50KB)
//   --no-stream       Skip streaming, wait for the full reply
//   --json            Emit {"reply": ...} for scripting
//   -q, --quiet       Reply text only, no styling
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jeranaias/deskchat/internal/storage"
	"github.com/jeranaias/deskchat/internal/transport"
)

// MaxAttachmentSize caps ask --file payloads (50KB).
const MaxAttachmentSize = 50 * 1024

const askUsage = `deskchat ask [--file FILE] [--no-stream] [--json] <question>`

// HandleAsk sends one question and prints the reply.
func HandleAsk(args *Args) error {
	question := args.Text()
	if question == "" {
		return &UsageError{Message: "ask needs a question", Usage: askUsage}
	}

	app, err := NewApp()
	if err != nil {
		return err
	}
	if err := transport.ValidateMessage(question, app.Config.Chat.MaxMessageChars); err != nil {
		return &UsageError{Message: err.Error(), Usage: askUsage}
	}

	msg := transport.NewMessage(question, app.Session.Token())

	if filePath := args.Flag("file", "f"); filePath != "" {
		attachment, err := loadAttachment(filePath)
		if err != nil {
			return err
		}
		msg.Attachment = attachment
	}

	jsonOut := args.Bool("json")
	quiet := args.Bool("quiet", "q")
	wantStream := !args.Bool("no-stream") && !jsonOut && stdoutIsTTY() && msg.Attachment == nil

	reply, err := sendAndDisplay(app, msg, wantStream)
	if err != nil {
		return err
	}

	switch {
	case jsonOut:
		out, _ := json.Marshal(map[string]string{"reply": reply})
		fmt.Println(string(out))
	case wantStream:
		// Tokens already printed; just terminate the line.
		fmt.Println()
	case quiet || !stdoutIsTTY() || !app.Config.MarkdownEnabled():
		fmt.Println(reply)
	default:
		fmt.Print(renderMarkdown(reply))
	}

	if transcript := askTranscript(app, question, reply); transcript != nil {
		app.SaveTranscript(transcript)
	}
	return nil
}

// sendAndDisplay runs the send, printing tokens live when streaming.
// Returns the final reply text. The non-streaming path calls the client
// directly so typed errors keep their class all the way to the exit-code
// mapping; the callback path only exists for live token display.
func sendAndDisplay(app *App, msg transport.OutboundMessage, stream bool) (string, error) {
	if !stream {
		if msg.Attachment != nil {
			return app.Client.SendLegacy(context.Background(), msg)
		}
		return app.Client.Send(context.Background(), msg)
	}

	var reply string
	var sendErr error
	app.Orch.SendMessage(context.Background(), msg, transport.Callbacks{
		OnToken:    func(fragment, _ string) { fmt.Print(fragment) },
		OnComplete: func(final string) { reply = final },
		OnError:    func(message string) { sendErr = classifyTerminalMessage(message) },
	})
	if sendErr != nil {
		fmt.Println()
		return "", sendErr
	}
	return reply, nil
}

// classifyTerminalMessage recovers the error class from an orchestrator
// terminal message, which arrives as text because the callback contract
// carries user-facing strings.
func classifyTerminalMessage(message string) error {
	errType := transport.ErrTypeBackend
	switch message {
	case transport.MsgTimeout:
		errType = transport.ErrTypeTimeout
	case transport.MsgNetwork:
		errType = transport.ErrTypeNetwork
	}
	return &transport.Error{Type: errType, Message: message}
}

func askTranscript(app *App, question, reply string) *storage.Transcript {
	if app.Store == nil {
		return nil
	}
	t := storage.NewTranscript(app.Session.Token())
	t.Append(storage.RoleUser, question)
	t.Append(storage.RoleAssistant, reply)
	return t
}

// loadAttachment reads and size-checks a file for the legacy endpoint.
func loadAttachment(path string) (*transport.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot attach %s: %w", path, err)
	}
	if info.Size() > MaxAttachmentSize {
		return nil, fmt.Errorf("cannot attach %s: %d bytes exceeds the %dKB limit",
			path, info.Size(), MaxAttachmentSize/1024)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot attach %s: %w", path, err)
	}
	return transport.NewAttachment(info.Name(), data), nil
}
