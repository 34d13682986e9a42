// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// identity.go - Stable session token for backend correlation.
//
// The backend treats session_id purely as a correlation key; the client
// generates one token per installation and reuses it for every request.
package session

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/deskchat/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// tokenFileName is the file under the config dir holding the token.
	tokenFileName = "session_token"

	// suffixLen is the number of random alphanumerics after the timestamp.
	suffixLen = 8

	// maxTokenLen is the longest session_id the backend accepts.
	maxTokenLen = 50
)

// tokenPattern is the shape the backend accepts for session_id.
var tokenPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// =============================================================================
// PROVIDER
// =============================================================================

// Provider hands out the installation's session token, creating and
// persisting it on first use. Safe for concurrent use; after the first
// call the token never changes for the life of the process.
type Provider struct {
	mu    sync.Mutex
	path  string // empty means memory-only
	token string
}

// NewProvider returns a Provider persisting under dir. An empty dir (for
// example when the home directory could not be resolved) yields a
// memory-only provider: still functional, token fresh per process.
func NewProvider(dir string) *Provider {
	p := &Provider{}
	if dir != "" {
		p.path = filepath.Join(dir, tokenFileName)
	}
	return p
}

// Token returns the installation's session token, generating and saving it
// the first time. Storage failures degrade to an unpersisted token rather
// than an error; the backend does not care whether the token survives a
// restart, only that it is well-formed.
func (p *Provider) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" {
		return p.token
	}

	if tok := p.load(); tok != "" {
		p.token = tok
		return p.token
	}

	p.token = generateToken()
	p.store(p.token)
	return p.token
}

// load reads a previously persisted token, rejecting anything the backend
// would refuse (so a corrupted file regenerates instead of breaking sends).
func (p *Provider) load() string {
	if p.path == "" {
		return ""
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return ""
	}
	tok := strings.TrimSpace(string(data))
	if !Valid(tok) {
		return ""
	}
	return tok
}

func (p *Provider) store(tok string) {
	if p.path == "" {
		return
	}
	// Best effort: a read-only disk should not stop the chat.
	_ = util.AtomicWriteFile(p.path, []byte(tok+"\n"), 0600)
}

// Valid reports whether tok is a session token the backend accepts:
// non-empty, at most 50 chars, alphanumerics plus dash and underscore.
func Valid(tok string) bool {
	return tok != "" && len(tok) <= maxTokenLen && tokenPattern.MatchString(tok)
}

// =============================================================================
// TOKEN GENERATION
// =============================================================================

// generateToken builds "sess_<timestamp>_<random suffix>". The timestamp
// keeps tokens sortable in server logs; the random suffix covers two
// installations created in the same second.
func generateToken() string {
	ts := time.Now().Format("20060102_150405")
	return "sess_" + ts + "_" + randomSuffix(suffixLen)
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively unheard of; fall back to a
		// constant rather than panicking in a chat client.
		return strings.Repeat("x", n)
	}
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf)
}
