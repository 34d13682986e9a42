// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// orchestrator.go - Public entry point for sending a message.
//
// Policy per send: streaming-capable callers get the streaming driver
// first; any streaming failure before a terminal event falls back
// transparently to the single-shot driver for the same message. Callers
// without a token callback go straight to single-shot. Exactly one
// terminal callback fires per send, whatever happened internally.
package transport

import (
	"context"
	"errors"
	"sync/atomic"
)

// MsgCancelled is the terminal message when the caller's context was
// cancelled mid-request (a new message replacing an in-flight one).
const MsgCancelled = "Request cancelled."

// TokenSource supplies the session token attached to every send. The
// session Provider implements it.
type TokenSource interface {
	Token() string
}

// Orchestrator routes each send across the streaming and single-shot
// drivers and normalizes every outcome into the Callbacks contract.
// Safe for concurrent use, though the client sends one message at a time.
type Orchestrator struct {
	client    *Client
	tokens    TokenSource
	streaming bool
}

// NewOrchestrator wires a client to a session token source. streaming
// false disables the streaming path entirely (config switch).
func NewOrchestrator(client *Client, tokens TokenSource, streaming bool) *Orchestrator {
	return &Orchestrator{
		client:    client,
		tokens:    tokens,
		streaming: streaming,
	}
}

// Client exposes the underlying transport client (status probes, legacy
// attachment sends).
func (o *Orchestrator) Client() *Client {
	return o.client
}

// =============================================================================
// SEND
// =============================================================================

// Send delivers one user message and reports the outcome through cb.
// Blocks until the terminal callback has fired; run it on a goroutine
// when the caller must stay responsive.
func (o *Orchestrator) Send(ctx context.Context, text string, cb Callbacks) {
	o.SendMessage(ctx, NewMessage(text, o.tokens.Token()), cb)
}

// SendMessage is Send for a pre-built message (attachments, tests).
func (o *Orchestrator) SendMessage(ctx context.Context, msg OutboundMessage, cb Callbacks) {
	guard := newTerminalGuard(cb)

	// Messages with attachments only exist on the legacy endpoint.
	wantStream := o.streaming && cb.OnToken != nil && msg.Attachment == nil

	if wantStream {
		err := o.client.Stream(ctx, msg, guard.callbacks())
		if err == nil {
			// Terminal event delivered on the stream.
			return
		}
		if ctx.Err() != nil {
			guard.fail(terminalMessageFor(ctx))
			return
		}
		// Stream setup failure, unexpected close, or anything else before
		// a terminal event: fall through to the single-shot path. The
		// caller never learns which path produced the reply.
	}

	var reply string
	var err error
	if msg.Attachment != nil {
		reply, err = o.client.SendLegacy(ctx, msg)
	} else {
		reply, err = o.client.Send(ctx, msg)
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			guard.fail(MsgCancelled)
			return
		}
		guard.fail(UserMessage(err))
		return
	}
	guard.complete(reply)
}

// Ask is the non-streaming convenience: single-shot only, result as a
// return value instead of callbacks.
func (o *Orchestrator) Ask(ctx context.Context, text string) (string, error) {
	return o.client.Send(ctx, NewMessage(text, o.tokens.Token()))
}

func terminalMessageFor(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return MsgCancelled
	}
	return MsgTimeout
}

// =============================================================================
// CHANNEL VARIANT
// =============================================================================

// StreamChunk is one delivery on the channel returned by SendChan.
type StreamChunk struct {
	Token string // incremental fragment; empty on the terminal chunk
	Final string // final reply text, set on the terminal success chunk
	Err   error  // set on the terminal failure chunk
	Done  bool   // true on the terminal chunk; the channel closes after it
}

// SendChan runs Send on a goroutine and delivers events as channel
// values: zero or more token chunks, then exactly one Done chunk, then
// close. Suits select-based consumers like the TUI.
func (o *Orchestrator) SendChan(ctx context.Context, text string) <-chan StreamChunk {
	ch := make(chan StreamChunk, 32)

	deliver := func(chunk StreamChunk) {
		// Prefer the channel while it has room so a cancelled context
		// cannot race the terminal chunk out of delivery.
		select {
		case ch <- chunk:
			return
		default:
		}
		select {
		case ch <- chunk:
		case <-ctx.Done():
			// Consumer gone and buffer full; drop rather than block.
		}
	}

	go func() {
		defer close(ch)
		o.Send(ctx, text, Callbacks{
			OnToken: func(fragment, _ string) {
				deliver(StreamChunk{Token: fragment})
			},
			OnComplete: func(final string) {
				deliver(StreamChunk{Final: final, Done: true})
			},
			OnError: func(message string) {
				deliver(StreamChunk{Err: errors.New(message), Done: true})
			},
		})
	}()
	return ch
}

// =============================================================================
// TERMINAL GUARD
// =============================================================================

// terminalGuard enforces the callback contract: at most one terminal
// callback, and no token callback after it.
type terminalGuard struct {
	cb   Callbacks
	done atomic.Bool
}

func newTerminalGuard(cb Callbacks) *terminalGuard {
	return &terminalGuard{cb: cb}
}

// callbacks returns the guarded view handed to drivers.
func (g *terminalGuard) callbacks() Callbacks {
	wrapped := Callbacks{
		OnComplete: g.complete,
		OnError:    g.fail,
	}
	if g.cb.OnToken != nil {
		wrapped.OnToken = func(fragment, accumulated string) {
			if g.done.Load() {
				return
			}
			g.cb.OnToken(fragment, accumulated)
		}
	}
	return wrapped
}

func (g *terminalGuard) complete(final string) {
	if g.done.CompareAndSwap(false, true) {
		g.cb.complete(final)
	}
}

func (g *terminalGuard) fail(message string) {
	if g.done.CompareAndSwap(false, true) {
		g.cb.fail(message)
	}
}
