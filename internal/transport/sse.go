// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sse.go - Incremental decoder for the backend's event-stream format.
//
// Wire grammar, one frame:
//
//	event: message
//	data: {"token": "Hel"}
//	<blank line>
//
// Frames arrive split across arbitrary read chunks, so the decoder keeps
// the trailing partial line buffered between Feed calls. One Decoder per
// connection; not reusable.
package transport

import (
	"bytes"
	"encoding/json"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies a decoded protocol event.
type EventKind int

const (
	// EventToken carries one incremental reply fragment.
	EventToken EventKind = iota
	// EventComplete carries the final reply text. Terminal.
	EventComplete
	// EventError carries a server-signaled failure message. Terminal.
	EventError
)

// Event is one decoded protocol event.
type Event struct {
	Kind EventKind

	// Token is the fragment for EventToken.
	Token string

	// FullMessage is the final text for EventComplete. Empty means the
	// server omitted it and the accumulated fragments stand in.
	FullMessage string

	// ErrorMessage is the server's text for EventError. Empty means the
	// caller should substitute its default.
	ErrorMessage string
}

// Terminal reports whether the event ends the logical request.
func (e Event) Terminal() bool {
	return e.Kind == EventComplete || e.Kind == EventError
}

// =============================================================================
// DECODER
// =============================================================================

var (
	prefixEvent = []byte("event:")
	prefixData  = []byte("data:")
)

// Decoder converts a raw byte stream into protocol events, one instance
// per connection. Feed may be called with chunks split at any byte
// boundary; the decoded event sequence is identical regardless of how the
// stream was chunked.
type Decoder struct {
	buf       []byte   // unterminated tail of the stream
	eventName string   // name from the current frame's event: line
	dataLines [][]byte // data: payloads of the current frame
	skipped   int
}

// NewDecoder returns a decoder ready for the first chunk.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes the next chunk and returns all events completed by it.
// A frame whose data payload is not valid JSON is skipped and counted; it
// never aborts the stream.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}
		line := d.buf[:idx]
		d.buf = d.buf[idx+1:]

		if ev, ok := d.processLine(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Skipped returns how many malformed frames were dropped so far.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// processLine handles one complete line. Returns an event when the line
// closed a frame that decoded to one.
func (d *Decoder) processLine(line []byte) (Event, bool) {
	line = bytes.TrimRight(line, "\r")

	switch {
	case len(line) == 0:
		// Blank line: frame boundary.
		return d.closeFrame()

	case bytes.HasPrefix(line, prefixEvent):
		d.eventName = string(bytes.TrimSpace(line[len(prefixEvent):]))

	case bytes.HasPrefix(line, prefixData):
		payload := bytes.TrimSpace(line[len(prefixData):])
		d.dataLines = append(d.dataLines, append([]byte(nil), payload...))

		// Comment lines (":...") and unknown fields are ignored per the
		// event-stream format.
	}
	return Event{}, false
}

// closeFrame decodes the frame accumulated so far and resets frame state.
func (d *Decoder) closeFrame() (Event, bool) {
	name := d.eventName
	data := bytes.Join(d.dataLines, []byte("\n"))
	d.eventName = ""
	d.dataLines = nil

	if len(data) == 0 {
		// Nothing to dispatch: a stray blank line, or a named frame
		// whose data line never arrived. Neither is malformed.
		return Event{}, false
	}
	if name == "" {
		// The event-stream format defaults a nameless frame to "message".
		name = "message"
	}

	switch name {
	case "message":
		var p struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			d.skipped++
			return Event{}, false
		}
		return Event{Kind: EventToken, Token: p.Token}, true

	case "complete":
		var p struct {
			FullMessage string `json:"full_message"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			d.skipped++
			return Event{}, false
		}
		return Event{Kind: EventComplete, FullMessage: p.FullMessage}, true

	case "error":
		var p struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			d.skipped++
			return Event{}, false
		}
		return Event{Kind: EventError, ErrorMessage: p.Error}, true
	}

	// Unrecognized event names are ignored, not counted: they are valid
	// frames the client simply has no use for.
	return Event{}, false
}
