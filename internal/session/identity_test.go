// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestTokenStableWithinProcess(t *testing.T) {
	p := NewProvider(t.TempDir())

	first := p.Token()
	if first == "" {
		t.Fatal("Token() returned empty string")
	}
	for i := 0; i < 5; i++ {
		if got := p.Token(); got != first {
			t.Errorf("Token() = %q, want stable %q", got, first)
		}
	}
}

func TestTokenPersistsAcrossProviders(t *testing.T) {
	dir := t.TempDir()

	first := NewProvider(dir).Token()
	second := NewProvider(dir).Token()

	if first != second {
		t.Errorf("token not persisted: %q vs %q", first, second)
	}
}

func TestTokenShape(t *testing.T) {
	tok := NewProvider(t.TempDir()).Token()

	if !strings.HasPrefix(tok, "sess_") {
		t.Errorf("token %q missing sess_ prefix", tok)
	}
	if !Valid(tok) {
		t.Errorf("generated token %q fails own validation", tok)
	}
	if len(tok) > 50 {
		t.Errorf("token %q longer than backend limit", tok)
	}
}

func TestCorruptStoredTokenRegenerates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session_token")
	if err := os.WriteFile(path, []byte("bad token with spaces!\n"), 0600); err != nil {
		t.Fatal(err)
	}

	tok := NewProvider(dir).Token()
	if !Valid(tok) {
		t.Errorf("regenerated token %q invalid", tok)
	}
	if strings.Contains(tok, " ") {
		t.Errorf("corrupt token was reused: %q", tok)
	}
}

func TestMemoryOnlyProvider(t *testing.T) {
	p := NewProvider("")
	tok := p.Token()
	if !Valid(tok) {
		t.Errorf("memory-only token %q invalid", tok)
	}
	if got := p.Token(); got != tok {
		t.Errorf("memory-only token not stable: %q vs %q", got, tok)
	}
}

func TestTokenConcurrentAccess(t *testing.T) {
	p := NewProvider(t.TempDir())

	const goroutines = 16
	tokens := make([]string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i] = p.Token()
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if tokens[i] != tokens[0] {
			t.Fatalf("concurrent Token() diverged: %q vs %q", tokens[i], tokens[0])
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		tok  string
		want bool
	}{
		{"normal", "sess_20250101_120000_abcd1234", true},
		{"dashes and underscores", "a-b_c", true},
		{"empty", "", false},
		{"spaces", "has space", false},
		{"too long", strings.Repeat("a", 51), false},
		{"exactly 50", strings.Repeat("a", 50), true},
		{"punctuation", "tok!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.tok); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.tok, got, tt.want)
			}
		})
	}
}
