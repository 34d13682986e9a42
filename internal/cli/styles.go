// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for CLI output.
package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette. Muted enough to survive both dark and light terminals.
var (
	colorCyan    = lipgloss.Color("45")
	colorEmerald = lipgloss.Color("42")
	colorAmber   = lipgloss.Color("214")
	colorRed     = lipgloss.Color("196")
	colorGray    = lipgloss.Color("245")
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	okStyle = lipgloss.NewStyle().
		Foreground(colorEmerald)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorAmber)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)
)

// colorEnabled honors NO_COLOR and dumb terminals; styled helpers fall
// back to plain text when it is false.
var colorEnabled = !termenv.EnvNoColor() && termenv.ColorProfile() != termenv.Ascii

func styled(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}
