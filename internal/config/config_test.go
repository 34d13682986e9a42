// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 120, cfg.Backend.RequestTimeoutSecs)
	assert.Equal(t, 500, cfg.Backend.RetryDelayMS)
	assert.True(t, cfg.Streaming())
	assert.True(t, cfg.MarkdownEnabled())
	assert.Equal(t, 1000, cfg.Chat.MaxMessageChars)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Backend.BaseURL, cfg.Backend.BaseURL)
}

func TestLoadFromSparseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[backend]
base_url = "https://assist.example.com"

[chat]
render_markdown = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "https://assist.example.com", cfg.Backend.BaseURL)
	assert.False(t, cfg.MarkdownEnabled())
	// Everything unset falls back to defaults.
	assert.Equal(t, 120, cfg.Backend.RequestTimeoutSecs)
	assert.True(t, cfg.Streaming())
	assert.Equal(t, 100, cfg.Transcripts.MaxTranscripts)
}

func TestLoadFromInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("backend = [broken"), 0600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvBaseURL, "http://10.0.0.5:9000/")
	t.Setenv(EnvTimeoutSecs, "30")
	t.Setenv(EnvStream, "false")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:9000", cfg.Backend.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 30, cfg.Backend.RequestTimeoutSecs)
	assert.False(t, cfg.Streaming())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"empty base url", func(c *Config) { c.Backend.BaseURL = "" }, true},
		{"bad scheme", func(c *Config) { c.Backend.BaseURL = "ftp://x" }, true},
		{"zero timeout", func(c *Config) { c.Backend.RequestTimeoutSecs = 0 }, true},
		{"zero max chars", func(c *Config) { c.Chat.MaxMessageChars = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Backend.BaseURL = "https://desk.internal:8443"
	cfg.Transcripts.MaxTranscripts = 7
	require.NoError(t, cfg.SaveTo(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://desk.internal:8443", loaded.Backend.BaseURL)
	assert.Equal(t, 7, loaded.Transcripts.MaxTranscripts)
}
