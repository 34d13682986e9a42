// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stream.go - Streaming request driver.
//
// One call, one HTTP request, one Decoder. The driver owns the
// accumulated reply for its request and forwards decoded events to the
// caller's callbacks. It never retries and never falls back; when the
// stream fails before a terminal event it returns a typed error and
// leaves the fallback decision to the orchestrator.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// streamReadBufSize is the read chunk size for the event stream. Small
// enough to keep token latency low, large enough to not thrash.
const streamReadBufSize = 4096

// Stream opens the streaming endpoint and delivers decoded events through
// cb. Returns nil exactly when a terminal event (complete or error) was
// delivered to the callbacks. Any other outcome returns a typed error with
// no terminal callback invoked:
//
//   - non-2xx response or unopenable request: ErrStreamSetup
//   - connection closed or idle past the configured window before a
//     terminal event: ErrStreamClosed
//
// Malformed frames are skipped by the Decoder and do not end the stream.
func (c *Client) Stream(ctx context.Context, msg OutboundMessage, cb Callbacks) error {
	if err := c.wait(ctx); err != nil {
		return &Error{Type: ErrTypeStreamSetup, Message: MsgStreamLost, Cause: err}
	}

	body, err := json.Marshal(chatRequest{
		Message:   msg.Text,
		SessionID: msg.SessionToken,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	// Cancelling this context is the only way the no-timeout streaming
	// client gives up a connection, so every exit path must run cancel.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+chatStreamPath, bytes.NewReader(body))
	if err != nil {
		return &Error{Type: ErrTypeStreamSetup, Message: MsgStreamLost, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streaming.Do(req)
	if err != nil {
		return &Error{Type: ErrTypeStreamSetup, Message: MsgStreamLost, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the connection can be reused, then fail setup.
		io.CopyN(io.Discard, resp.Body, 2048)
		return &Error{
			Type:    ErrTypeStreamSetup,
			Message: MsgStreamLost,
			Status:  resp.StatusCode,
		}
	}

	return c.consumeStream(ctx, cancel, resp.Body, cb)
}

// consumeStream reads the response body to completion, feeding the
// decoder and dispatching events. Returns nil only after a terminal event.
func (c *Client) consumeStream(ctx context.Context, cancel context.CancelFunc, body io.Reader, cb Callbacks) error {
	dec := NewDecoder()
	var accumulated strings.Builder

	// The wire format has no heartbeat, so a stalled backend looks
	// identical to a healthy silent one. The watchdog converts a read
	// that stalls past the idle window into a stream-closed failure.
	var idleFired atomic.Bool
	var watchdog *time.Timer
	if c.config.StreamIdleTimeout > 0 {
		watchdog = time.AfterFunc(c.config.StreamIdleTimeout, func() {
			idleFired.Store(true)
			cancel()
		})
		defer watchdog.Stop()
	}

	buf := make([]byte, streamReadBufSize)
	for {
		n, readErr := body.Read(buf)
		if watchdog != nil {
			watchdog.Reset(c.config.StreamIdleTimeout)
		}

		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				switch ev.Kind {
				case EventToken:
					accumulated.WriteString(ev.Token)
					if cb.OnToken != nil {
						cb.OnToken(ev.Token, accumulated.String())
					}

				case EventComplete:
					final := ev.FullMessage
					if final == "" {
						final = accumulated.String()
					}
					cb.complete(final)
					return nil

				case EventError:
					msg := ev.ErrorMessage
					if msg == "" {
						msg = MsgUnavailable
					}
					cb.fail(msg)
					return nil
				}
			}
		}

		if readErr != nil {
			// EOF, idle cancellation, or mid-stream transport failure:
			// all mean the stream ended without a terminal event.
			cause := readErr
			if idleFired.Load() {
				cause = fmt.Errorf("stream idle for %s: %w", c.config.StreamIdleTimeout, readErr)
			} else if ctx.Err() != nil {
				cause = ctx.Err()
			}
			return &Error{Type: ErrTypeStreamClosed, Message: MsgStreamLost, Cause: cause}
		}
	}
}
