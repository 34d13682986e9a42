// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// update.go - Event handling for the chat view.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/deskchat/internal/storage"
	"github.com/jeranaias/deskchat/internal/transport"
)

// chunkMsg carries one orchestrator chunk into the update loop.
type chunkMsg transport.StreamChunk

// streamDoneMsg signals the chunk channel closed.
type streamDoneMsg struct{}

// waitForChunk blocks on the next chunk as a tea command.
func waitForChunk(ch <-chan transport.StreamChunk) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		return chunkMsg(chunk)
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case chunkMsg:
		return m.handleChunk(transport.StreamChunk(msg))

	case streamDoneMsg:
		// Normally the terminal chunk already wound things down; a
		// channel that closed while still streaming means the request
		// died without one.
		if m.streaming {
			m.status = transport.MsgCancelled
			m.finish()
			m.refreshViewport()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) resize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := msg.Height - m.input.Height() - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = newViewport(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width - 2)
	m.refreshViewport()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.streaming {
			// Cancel-and-return: the orchestrator delivers its terminal
			// chunk and the stream winds down through handleChunk.
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		m.saveTranscript()
		return m, tea.Quit

	case tea.KeyEsc:
		m.finish()
		m.saveTranscript()
		return m, tea.Quit

	case tea.KeyEnter:
		if m.streaming {
			return m, nil // one request at a time
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		if err := transport.ValidateMessage(text, m.opts.MaxMessageChars); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.input.Reset()
		cmd := m.send(text)
		m.refreshViewport()
		return m, cmd

	case tea.KeyCtrlJ:
		m.input.InsertString("\n")
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleChunk(chunk transport.StreamChunk) (tea.Model, tea.Cmd) {
	if !m.streaming {
		return m, nil
	}

	if !chunk.Done {
		m.partial += chunk.Token
		m.refreshViewport()
		return m, waitForChunk(m.chunks)
	}

	// Terminal chunk.
	ch := m.chunks
	if chunk.Err != nil {
		m.status = chunk.Err.Error()
	} else {
		m.lines = append(m.lines, line{role: storage.RoleAssistant, content: chunk.Final})
		m.transcript.Append(storage.RoleAssistant, chunk.Final)
		m.saveTranscript()
	}
	m.finish()
	m.refreshViewport()
	return m, waitForChunk(ch)
}
