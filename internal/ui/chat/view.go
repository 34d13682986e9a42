// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - Rendering for the chat view.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/deskchat/internal/storage"
)

// chromeHeight is the vertical space taken by header, status line, and
// padding around the input.
const chromeHeight = 5

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Bold(true).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	waitingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.SetContent("")
	return vp
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("deskchat"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	} else if m.streaming {
		b.WriteString(waitingStyle.Render(m.spin.View() + "assistant is typing"))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

// refreshViewport re-renders the conversation into the viewport and
// follows the tail.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	var b strings.Builder
	for _, ln := range m.lines {
		if ln.role == storage.RoleUser {
			b.WriteString(userStyle.Render("you> "))
			b.WriteString(ln.content)
			b.WriteString("\n")
		} else {
			b.WriteString(m.renderReply(ln.content))
			b.WriteString("\n")
		}
	}
	if m.streaming && m.partial != "" {
		// Streaming text stays plain; markdown rendering of half a
		// document flickers badly.
		b.WriteString(assistantStyle.Render(m.partial))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// renderReply renders a completed assistant message, markdown when
// enabled, wrapped to the viewport either way.
func (m *Model) renderReply(content string) string {
	if !m.opts.RenderMarkdown {
		return assistantStyle.Render(content)
	}
	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return assistantStyle.Render(content)
	}
	out, err := renderer.Render(content)
	if err != nil {
		return assistantStyle.Render(content)
	}
	return strings.TrimRight(out, "\n") + "\n"
}
