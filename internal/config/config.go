// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - TOML configuration for the deskchat client.
//
// Load order: file (~/.deskchat/config.toml) -> fill defaults ->
// environment overrides -> validation. A missing file is not an error;
// the client runs on defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/deskchat/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// ConfigDirName is the dot-directory under the user home.
	ConfigDirName = ".deskchat"

	// ConfigFileName is the TOML file inside the config directory.
	ConfigFileName = "config.toml"

	// Environment override variables.
	EnvBaseURL     = "DESKCHAT_BASE_URL"
	EnvTimeoutSecs = "DESKCHAT_TIMEOUT_SECS"
	EnvStream      = "DESKCHAT_STREAM"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the full client configuration.
type Config struct {
	Backend     BackendConfig     `toml:"backend" json:"backend"`
	Chat        ChatConfig        `toml:"chat" json:"chat"`
	Transcripts TranscriptsConfig `toml:"transcripts" json:"transcripts"`
}

// BackendConfig covers everything about reaching the assistant backend.
type BackendConfig struct {
	// BaseURL is the backend root, no trailing slash (e.g. "http://localhost:8000").
	BaseURL string `toml:"base_url" json:"base_url"`

	// RequestTimeoutSecs is the wall-clock ceiling for a single-shot call.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`

	// RetryDelayMS is the fixed backoff before the one transient-failure retry.
	RetryDelayMS int `toml:"retry_delay_ms" json:"retry_delay_ms"`

	// StreamEnabled turns the streaming path on or off; when off every send
	// goes straight to the single-shot endpoint.
	StreamEnabled *bool `toml:"stream_enabled" json:"stream_enabled"`

	// StreamIdleTimeoutSecs promotes a silent stream to a failed one. Zero
	// disables the idle check.
	StreamIdleTimeoutSecs int `toml:"stream_idle_timeout_secs" json:"stream_idle_timeout_secs"`

	// RequestsPerMinute caps outbound request rate. Zero disables the limiter.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// ChatConfig covers interactive behavior shared by ask/chat/tui.
type ChatConfig struct {
	// RenderMarkdown renders assistant replies through glamour on a TTY.
	RenderMarkdown *bool `toml:"render_markdown" json:"render_markdown"`

	// SaveTranscripts persists finished conversations to disk.
	SaveTranscripts *bool `toml:"save_transcripts" json:"save_transcripts"`

	// MaxMessageChars rejects over-long input before it leaves the client.
	MaxMessageChars int `toml:"max_message_chars" json:"max_message_chars"`
}

// TranscriptsConfig covers local transcript storage.
type TranscriptsConfig struct {
	// MaxTranscripts caps stored transcripts; oldest are pruned first.
	MaxTranscripts int `toml:"max_transcripts" json:"max_transcripts"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the configuration used when no file exists.
func Default() *Config {
	on := true
	return &Config{
		Backend: BackendConfig{
			BaseURL:               "http://localhost:8000",
			RequestTimeoutSecs:    120,
			RetryDelayMS:          500,
			StreamEnabled:         &on,
			StreamIdleTimeoutSecs: 90,
			RequestsPerMinute:     30,
		},
		Chat: ChatConfig{
			RenderMarkdown:  boolPtr(true),
			SaveTranscripts: boolPtr(true),
			MaxMessageChars: 1000,
		},
		Transcripts: TranscriptsConfig{
			MaxTranscripts: 100,
		},
	}
}

func boolPtr(b bool) *bool { return &b }

// fillDefaults replaces zero values with defaults so a sparse config file
// still yields a complete Config.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = def.Backend.BaseURL
	}
	if c.Backend.RequestTimeoutSecs <= 0 {
		c.Backend.RequestTimeoutSecs = def.Backend.RequestTimeoutSecs
	}
	if c.Backend.RetryDelayMS <= 0 {
		c.Backend.RetryDelayMS = def.Backend.RetryDelayMS
	}
	if c.Backend.StreamEnabled == nil {
		c.Backend.StreamEnabled = def.Backend.StreamEnabled
	}
	if c.Backend.StreamIdleTimeoutSecs < 0 {
		c.Backend.StreamIdleTimeoutSecs = def.Backend.StreamIdleTimeoutSecs
	}
	if c.Backend.RequestsPerMinute < 0 {
		c.Backend.RequestsPerMinute = def.Backend.RequestsPerMinute
	}
	if c.Chat.RenderMarkdown == nil {
		c.Chat.RenderMarkdown = def.Chat.RenderMarkdown
	}
	if c.Chat.SaveTranscripts == nil {
		c.Chat.SaveTranscripts = def.Chat.SaveTranscripts
	}
	if c.Chat.MaxMessageChars <= 0 {
		c.Chat.MaxMessageChars = def.Chat.MaxMessageChars
	}
	if c.Transcripts.MaxTranscripts <= 0 {
		c.Transcripts.MaxTranscripts = def.Transcripts.MaxTranscripts
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.deskchat, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ConfigDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// ConfigPath returns the full path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file, fills defaults, applies environment overrides,
// and validates. A missing file yields Default() with overrides applied.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		// No home directory: run on defaults.
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from an explicit path. Exposed for tests and for
// the --config flag.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		cfg = Default()
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.fillDefaults()
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as TOML with owner-only permissions.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to an explicit path.
func (c *Config) SaveTo(path string) error {
	var sb strings.Builder
	sb.WriteString("# deskchat configuration\n")
	sb.WriteString("# Edit by hand or via `deskchat config set`.\n\n")

	enc := toml.NewEncoder(&sb)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// 0600: the file may carry a private backend URL.
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides lets environment variables win over the file. Useful for
// pointing one invocation at a different backend without editing config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Backend.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvTimeoutSecs); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Backend.RequestTimeoutSecs = secs
		}
	}
	if v := os.Getenv(EnvStream); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Backend.StreamEnabled = &b
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid config field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s = %q: %s", e.Field, e.Value, e.Reason)
}

// Validate checks the config for values the client cannot run with.
func (c *Config) Validate() error {
	base := c.Backend.BaseURL
	if base == "" {
		return &ValidationError{Field: "backend.base_url", Reason: "must not be empty"}
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return &ValidationError{
			Field:  "backend.base_url",
			Value:  base,
			Reason: "must start with http:// or https://",
		}
	}
	if c.Backend.RequestTimeoutSecs <= 0 {
		return &ValidationError{
			Field:  "backend.request_timeout_secs",
			Value:  strconv.Itoa(c.Backend.RequestTimeoutSecs),
			Reason: "must be positive",
		}
	}
	if c.Chat.MaxMessageChars <= 0 {
		return &ValidationError{
			Field:  "chat.max_message_chars",
			Value:  strconv.Itoa(c.Chat.MaxMessageChars),
			Reason: "must be positive",
		}
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Streaming reports whether the streaming path is enabled.
func (c *Config) Streaming() bool {
	return c.Backend.StreamEnabled != nil && *c.Backend.StreamEnabled
}

// MarkdownEnabled reports whether replies should be rendered as markdown.
func (c *Config) MarkdownEnabled() bool {
	return c.Chat.RenderMarkdown != nil && *c.Chat.RenderMarkdown
}

// TranscriptsEnabled reports whether conversations are saved locally.
func (c *Config) TranscriptsEnabled() bool {
	return c.Chat.SaveTranscripts != nil && *c.Chat.SaveTranscripts
}
