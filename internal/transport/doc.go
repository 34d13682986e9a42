// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport turns one user message into a sequence of observable
// events (tokens, completion, error) delivered to the caller, across two
// backend protocols: a streaming event-stream call and a single-shot JSON
// call, with transparent fallback from the first to the second.
//
// # Key Types
//
//   - Orchestrator: public entry point; routes each send and guarantees
//     exactly one terminal callback
//   - Client: the HTTP layer; Send (single-shot, bounded timeout, one
//     retry on transient failure), SendLegacy (attachments), Stream
//   - Decoder: incremental event-stream parser, chunk-boundary tolerant
//   - Callbacks: the caller-facing contract (OnToken/OnComplete/OnError)
//   - Error: typed failures (timeout, network, backend, malformed,
//     stream setup, stream closed) with user-facing messages
//
// # Usage
//
//	client := transport.NewClient(transport.Config{BaseURL: url})
//	orch := transport.NewOrchestrator(client, sessionProvider, true)
//
//	orch.Send(ctx, "reset my password", transport.Callbacks{
//	    OnToken:    func(frag, acc string) { print(frag) },
//	    OnComplete: func(final string) { done(final) },
//	    OnError:    func(msg string) { warn(msg) },
//	})
//
// A caller that leaves OnToken nil skips streaming entirely and gets the
// single-shot path. Streaming failures before a terminal event are
// absorbed: the orchestrator replays the same message on the single-shot
// endpoint and the caller cannot tell which path answered.
package transport
