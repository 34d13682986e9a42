// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Argument parsing shared by all deskchat commands.
//
// Handles the flag formats consistently across commands:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value)
//   - Positional arguments, with the first one as the subcommand
package cli

import (
	"strconv"
	"strings"
)

// boolFlagNames are flags that never take a value, so "--json foo" parses
// foo as a positional instead of swallowing it as the flag's value.
var boolFlagNames = map[string]bool{
	"json":      true,
	"no-stream": true,
	"stream":    true,
	"quiet":     true,
	"q":         true,
	"verbose":   true,
	"v":         true,
	"markdown":  true,
	"plain":     true,
	"confirm":   true,
	"yes":       true,
	"y":         true,
}

// Args is the parsed view of a command's raw arguments.
type Args struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// ParseArgs splits raw arguments into flags and positionals.
func ParseArgs(raw []string) *Args {
	a := &Args{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if !strings.HasPrefix(arg, "-") || arg == "-" {
			a.positional = append(a.positional, arg)
			i++
			continue
		}

		// --flag=value
		if eq := strings.Index(arg, "="); eq >= 0 {
			name := strings.TrimLeft(arg[:eq], "-")
			value := arg[eq+1:]
			if b, err := strconv.ParseBool(value); err == nil && boolFlagNames[name] {
				a.boolFlags[name] = b
			} else {
				a.flags[name] = value
			}
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if !boolFlagNames[name] && i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			a.flags[name] = raw[i+1]
			i += 2
		} else {
			a.boolFlags[name] = true
			i++
		}
	}

	if len(a.positional) > 0 {
		a.subcommand = a.positional[0]
	}
	return a
}

// Subcommand returns the first positional argument, "" when absent.
func (a *Args) Subcommand() string {
	return a.subcommand
}

// Positional returns all positional arguments.
func (a *Args) Positional() []string {
	return a.positional
}

// Rest returns the positional arguments after the subcommand.
func (a *Args) Rest() []string {
	if len(a.positional) <= 1 {
		return nil
	}
	return a.positional[1:]
}

// Flag returns a string flag, checking each name in order.
func (a *Args) Flag(names ...string) string {
	for _, name := range names {
		if v, ok := a.flags[name]; ok {
			return v
		}
	}
	return ""
}

// Bool reports whether any of the names was set as a boolean flag.
func (a *Args) Bool(names ...string) bool {
	for _, name := range names {
		if a.boolFlags[name] {
			return true
		}
	}
	return false
}

// Text joins all positional arguments with spaces: the question text for
// ask, which shells may have pre-split.
func (a *Args) Text() string {
	return strings.TrimSpace(strings.Join(a.positional, " "))
}
