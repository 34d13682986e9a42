// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error display for CLI commands.
//
// Handlers return errors; Exit maps them to a code and prints them once,
// so no command prints-and-returns inconsistently.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/deskchat/internal/transport"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error.
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments.
	ExitUsageError = 2
	// ExitConfigError indicates a configuration problem.
	ExitConfigError = 3
	// ExitNetworkError indicates the backend was unreachable.
	ExitNetworkError = 5
	// ExitBackendError indicates the backend reported a failure.
	ExitBackendError = 6
	// ExitNotFoundError indicates a missing resource (transcript, file).
	ExitNotFoundError = 7
	// ExitTimeoutError indicates the request timed out.
	ExitTimeoutError = 8
)

// UsageError marks bad invocation; it carries the usage line to print.
type UsageError struct {
	Message string
	Usage   string
}

func (e *UsageError) Error() string {
	return e.Message
}

// =============================================================================
// EXIT
// =============================================================================

// Exit prints err appropriately and terminates with the matching code.
// A nil err exits 0.
func Exit(err error) {
	os.Exit(reportError(err))
}

// reportError prints err and returns the exit code. Split from Exit so
// tests can cover the mapping without the process dying.
func reportError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var uerr *UsageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, styled(errorStyle, "Error: ")+uerr.Message)
		if uerr.Usage != "" {
			fmt.Fprintln(os.Stderr, "Usage: "+uerr.Usage)
		}
		return ExitUsageError
	}

	var terr *transport.Error
	if errors.As(err, &terr) {
		fmt.Fprintln(os.Stderr, styled(errorStyle, "Error: ")+transport.UserMessage(err))
	} else {
		fmt.Fprintln(os.Stderr, styled(errorStyle, "Error: ")+err.Error())
	}

	switch {
	case transport.IsTimeout(err):
		return ExitTimeoutError
	case transport.IsNetwork(err):
		return ExitNetworkError
	case transport.IsBackend(err):
		return ExitBackendError
	case errors.Is(err, os.ErrNotExist):
		return ExitNotFoundError
	default:
		return ExitGeneralError
	}
}
