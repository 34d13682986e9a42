// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration inspection and editing.
//
// Command: config [show|path|init|set <key> <value>]
//
// Settable keys:
//   backend.base_url
//   backend.request_timeout_secs
//   backend.stream_enabled
//   chat.render_markdown
//   chat.save_transcripts
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/deskchat/internal/config"
)

const configUsage = `deskchat config [show|path|init|set <key> <value>]`

// HandleConfig dispatches the config subcommands.
func HandleConfig(args *Args) error {
	switch args.Subcommand() {
	case "", "show":
		return configShow()
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "init":
		return configInit()
	case "set":
		return configSet(args.Rest())
	default:
		return &UsageError{
			Message: "unknown config subcommand: " + args.Subcommand(),
			Usage:   configUsage,
		}
	}
}

func configShow() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return err
	}
	fmt.Print(sb.String())
	return nil
}

func configInit() error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err := config.Default().SaveTo(path); err != nil {
		return err
	}
	fmt.Println(styled(okStyle, "Wrote default config to "+path))
	return nil
}

func configSet(rest []string) error {
	if len(rest) < 2 {
		return &UsageError{Message: "set needs a key and a value", Usage: configUsage}
	}
	key, value := rest[0], rest[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch key {
	case "backend.base_url":
		cfg.Backend.BaseURL = strings.TrimRight(value, "/")
	case "backend.request_timeout_secs":
		secs, err := strconv.Atoi(value)
		if err != nil {
			return &UsageError{Message: key + " needs an integer, got " + value, Usage: configUsage}
		}
		cfg.Backend.RequestTimeoutSecs = secs
	case "backend.stream_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &UsageError{Message: key + " needs true or false, got " + value, Usage: configUsage}
		}
		cfg.Backend.StreamEnabled = &b
	case "chat.render_markdown":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &UsageError{Message: key + " needs true or false, got " + value, Usage: configUsage}
		}
		cfg.Chat.RenderMarkdown = &b
	case "chat.save_transcripts":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &UsageError{Message: key + " needs true or false, got " + value, Usage: configUsage}
		}
		cfg.Chat.SaveTranscripts = &b
	default:
		return &UsageError{Message: "unknown config key: " + key, Usage: configUsage}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Println(styled(okStyle, key+" = "+value))
	return nil
}
