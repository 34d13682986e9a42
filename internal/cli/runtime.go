// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Shared wiring for command handlers.
package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/jeranaias/deskchat/internal/config"
	"github.com/jeranaias/deskchat/internal/session"
	"github.com/jeranaias/deskchat/internal/storage"
	"github.com/jeranaias/deskchat/internal/transport"
)

// App bundles everything a command handler needs.
type App struct {
	Config  *config.Config
	Session *session.Provider
	Client  *transport.Client
	Orch    *transport.Orchestrator
	Store   *storage.Store
}

// NewApp loads configuration and wires the transport stack. The config
// dir failing to resolve is survivable: session and transcripts degrade,
// chat still works.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	dir, dirErr := config.ConfigDir()
	if dirErr != nil {
		dir = ""
	}

	client := transport.NewClient(transport.Config{
		BaseURL:           cfg.Backend.BaseURL,
		RequestTimeout:    time.Duration(cfg.Backend.RequestTimeoutSecs) * time.Second,
		RetryDelay:        time.Duration(cfg.Backend.RetryDelayMS) * time.Millisecond,
		StreamIdleTimeout: time.Duration(cfg.Backend.StreamIdleTimeoutSecs) * time.Second,
		RequestsPerMinute: cfg.Backend.RequestsPerMinute,
	})

	sess := session.NewProvider(dir)

	app := &App{
		Config:  cfg,
		Session: sess,
		Client:  client,
		Orch:    transport.NewOrchestrator(client, sess, cfg.Streaming()),
	}
	if dir != "" {
		app.Store = storage.NewStore(filepath.Join(dir, storage.DirName))
		app.Store.MaxTranscripts = cfg.Transcripts.MaxTranscripts
	}
	return app, nil
}

// SaveTranscript persists t when transcripts are enabled and storage is
// available. Failures are ignored: losing a transcript must never break
// the conversation that produced it.
func (a *App) SaveTranscript(t *storage.Transcript) {
	if a.Store == nil || !a.Config.TranscriptsEnabled() {
		return
	}
	_ = a.Store.Save(t)
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

// stdoutIsTTY gates streaming display and markdown rendering so piped
// output stays clean.
func stdoutIsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// markdownRenderer is lazily initialized; nil means render failed and
// output falls back to plain text.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		markdownRenderer = nil
	}
}

// renderMarkdown renders content for terminal display, returning the
// input unchanged when rendering is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	out, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return out
}
