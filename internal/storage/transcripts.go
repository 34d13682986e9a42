// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// transcripts.go - Local persistence of finished conversations.
//
// One JSON file per transcript under ~/.deskchat/transcripts/. Writes go
// through the atomic helper so an interrupted save never corrupts an
// existing transcript.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/deskchat/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DirName is the transcripts directory under the config dir.
	DirName = "transcripts"

	// DefaultMaxTranscripts caps stored transcripts; oldest pruned first.
	DefaultMaxTranscripts = 100

	// titleLen is the rune budget for derived titles.
	titleLen = 60
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrTranscriptNotFound matches any lookup for a missing transcript.
var ErrTranscriptNotFound = errors.New("transcript not found")

// TranscriptError wraps a storage failure with the transcript it hit.
type TranscriptError struct {
	ID  string
	Op  string
	Err error
}

func (e *TranscriptError) Error() string {
	return fmt.Sprintf("transcript %s: %s: %v", e.ID, e.Op, e.Err)
}

func (e *TranscriptError) Unwrap() error {
	return e.Err
}

// =============================================================================
// TYPES
// =============================================================================

// Transcript is one saved conversation.
type Transcript struct {
	ID           string    `json:"id"`
	SessionToken string    `json:"session_token"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Messages     []Message `json:"messages"`
}

// Message is one user or assistant turn.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Meta is the listing view of a transcript: everything but the messages.
type Meta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// NewTranscript starts a transcript for a session.
func NewTranscript(sessionToken string) *Transcript {
	now := time.Now()
	return &Transcript{
		ID:           generateTranscriptID(),
		SessionToken: sessionToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Append records one turn and keeps the derived title fresh.
func (t *Transcript) Append(role, content string) {
	t.Messages = append(t.Messages, Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	t.UpdatedAt = time.Now()
	if t.Title == "" && role == RoleUser {
		t.Title = util.TruncateRunes(util.FirstLine(content), titleLen)
	}
}

// generateTranscriptID returns "chat_" plus 16 random hex chars.
func generateTranscriptID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("chat_%d", time.Now().UnixNano())
	}
	return "chat_" + hex.EncodeToString(buf)
}

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes transcripts in a directory. Methods are safe to
// call from one goroutine at a time, which matches the one-conversation
// client.
type Store struct {
	// BaseDir is the transcripts directory.
	BaseDir string

	// MaxTranscripts caps stored transcripts; 0 means DefaultMaxTranscripts.
	MaxTranscripts int
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{BaseDir: dir, MaxTranscripts: DefaultMaxTranscripts}
}

func (s *Store) max() int {
	if s.MaxTranscripts <= 0 {
		return DefaultMaxTranscripts
	}
	return s.MaxTranscripts
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// Save writes a transcript and prunes over-cap ones. Transcripts without
// any message are not worth a file and are skipped silently.
func (s *Store) Save(t *Transcript) error {
	if len(t.Messages) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return &TranscriptError{ID: t.ID, Op: "encode", Err: err}
	}
	if err := util.AtomicWriteFile(s.path(t.ID), data, 0600); err != nil {
		return &TranscriptError{ID: t.ID, Op: "write", Err: err}
	}
	return s.enforceLimit()
}

// Load reads one transcript by ID.
func (s *Store) Load(id string) (*Transcript, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, &TranscriptError{ID: id, Op: "load", Err: ErrTranscriptNotFound}
	}
	if err != nil {
		return nil, &TranscriptError{ID: id, Op: "load", Err: err}
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, &TranscriptError{ID: id, Op: "decode", Err: err}
	}
	return &t, nil
}

// List returns metadata for all transcripts, newest first. Unreadable
// files are skipped rather than failing the whole listing.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transcripts directory: %w", err)
	}

	var metas []Meta
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		t, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, Meta{
			ID:           t.ID,
			Title:        t.Title,
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
			MessageCount: len(t.Messages),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search returns metadata for transcripts whose title or content contains
// query, case-insensitive, newest first.
func (s *Store) Search(query string) ([]Meta, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)

	var matches []Meta
	for _, meta := range metas {
		if strings.Contains(strings.ToLower(meta.Title), query) {
			matches = append(matches, meta)
			continue
		}
		t, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range t.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				matches = append(matches, meta)
				break
			}
		}
	}
	return matches, nil
}

// Delete removes one transcript.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return &TranscriptError{ID: id, Op: "delete", Err: ErrTranscriptNotFound}
	}
	if err != nil {
		return &TranscriptError{ID: id, Op: "delete", Err: err}
	}
	return nil
}

// Clear removes every transcript.
func (s *Store) Clear() error {
	metas, err := s.List()
	if err != nil {
		return err
	}
	for _, meta := range metas {
		if err := s.Delete(meta.ID); err != nil {
			return err
		}
	}
	return nil
}

// enforceLimit prunes the oldest transcripts over the cap.
func (s *Store) enforceLimit() error {
	metas, err := s.List()
	if err != nil {
		return err
	}
	for i := s.max(); i < len(metas); i++ {
		if err := s.Delete(metas[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a transcript as a markdown document.
func (s *Store) ExportMarkdown(id string) (string, error) {
	t, err := s.Load(id)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	title := t.Title
	if title == "" {
		title = t.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "Started: %s\n\n", t.CreatedAt.Format("2006-01-02 15:04"))

	for _, msg := range t.Messages {
		switch msg.Role {
		case RoleUser:
			fmt.Fprintf(&sb, "## You (%s)\n\n%s\n\n", msg.Timestamp.Format("15:04"), msg.Content)
		default:
			fmt.Fprintf(&sb, "## Assistant (%s)\n\n%s\n\n", msg.Timestamp.Format("15:04"), msg.Content)
		}
	}
	return sb.String(), nil
}

// ExportJSON renders a transcript as pretty-printed JSON.
func (s *Store) ExportJSON(id string) (string, error) {
	t, err := s.Load(id)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", &TranscriptError{ID: id, Op: "encode", Err: err}
	}
	return string(data), nil
}
