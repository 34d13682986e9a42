// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - Bubble Tea model for the full-screen chat view.
//
// Keys:
//   Enter       Send the message
//   Ctrl+J      Insert a newline in the input
//   Ctrl+C      Cancel the in-flight reply, or quit when idle
//   Esc         Quit
//   PgUp/PgDn   Scroll the conversation
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/deskchat/internal/storage"
	"github.com/jeranaias/deskchat/internal/transport"
)

// Options wires the chat view to the rest of the client.
type Options struct {
	Orch            *transport.Orchestrator
	SessionToken    string
	MaxMessageChars int
	RenderMarkdown  bool

	// SaveTranscript persists the conversation; nil disables saving.
	SaveTranscript func(*storage.Transcript)
}

// line is one rendered conversation entry.
type line struct {
	role    string // storage.RoleUser or storage.RoleAssistant
	content string
}

// Model is the chat screen state.
type Model struct {
	opts Options

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model

	lines      []line
	transcript *storage.Transcript

	// In-flight request state. cancel is non-nil exactly while streaming.
	// partial is a plain string because the model is copied by value on
	// every update.
	streaming bool
	partial   string
	chunks    <-chan transport.StreamChunk
	cancel    context.CancelFunc

	width  int
	height int
	status string
	ready  bool
}

// New builds the chat screen.
func New(opts Options) Model {
	input := textarea.New()
	input.Placeholder = "Ask the help desk assistant..."
	input.CharLimit = opts.MaxMessageChars
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		opts:       opts,
		input:      input,
		spin:       spin,
		transcript: storage.NewTranscript(opts.SessionToken),
	}
}

// Run starts the program and blocks until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(New(opts), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// send kicks off one request and returns the command that pumps its
// chunks into the update loop.
func (m *Model) send(text string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.streaming = true
	m.partial = ""
	m.status = ""

	m.lines = append(m.lines, line{role: storage.RoleUser, content: text})
	m.transcript.Append(storage.RoleUser, text)

	ch := m.opts.Orch.SendChan(ctx, text)
	m.chunks = ch
	return tea.Batch(m.spin.Tick, waitForChunk(ch))
}

// finish closes out the in-flight request state.
func (m *Model) finish() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.streaming = false
	m.chunks = nil
	m.partial = ""
}

// saveTranscript persists the conversation so far.
func (m *Model) saveTranscript() {
	if m.opts.SaveTranscript != nil {
		m.opts.SaveTranscript(m.transcript)
	}
}
