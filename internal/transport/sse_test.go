// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"reflect"
	"testing"
)

// feedAll decodes the whole input in one call.
func feedAll(d *Decoder, input string) []Event {
	return d.Feed([]byte(input))
}

// feedSplit decodes the input in fixed-size chunks.
func feedSplit(d *Decoder, input string, size int) []Event {
	var events []Event
	data := []byte(input)
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		events = append(events, d.Feed(data[:n])...)
		data = data[n:]
	}
	return events
}

func TestDecoderScenario(t *testing.T) {
	input := "event: message\ndata: {\"token\":\"Hel\"}\n\n" +
		"event: message\ndata: {\"token\":\"lo\"}\n\n" +
		"event: complete\ndata: {\"full_message\":\"Hello\"}\n\n"

	events := feedAll(NewDecoder(), input)

	want := []Event{
		{Kind: EventToken, Token: "Hel"},
		{Kind: EventToken, Token: "lo"},
		{Kind: EventComplete, FullMessage: "Hello"},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
	if !events[2].Terminal() {
		t.Error("complete event not marked terminal")
	}
}

func TestDecoderChunkingInvariance(t *testing.T) {
	input := "event: message\ndata: {\"token\":\"The \"}\n\n" +
		"event: message\ndata: {\"token\":\"answer \"}\n\n" +
		"data: {not valid json\n\n" +
		"event: ping\ndata: {}\n\n" +
		"event: message\ndata: {\"token\":\"is 42\"}\n\n" +
		"event: complete\ndata: {\"full_message\":\"The answer is 42\"}\n\n"

	reference := feedAll(NewDecoder(), input)

	for _, size := range []int{1, 2, 3, 5, 7, 16, 64, 1024} {
		d := NewDecoder()
		events := feedSplit(d, input, size)
		if !reflect.DeepEqual(events, reference) {
			t.Errorf("chunk size %d: events = %+v, want %+v", size, events, reference)
		}
		if d.Skipped() != 1 {
			t.Errorf("chunk size %d: Skipped() = %d, want 1", size, d.Skipped())
		}
	}
}

func TestDecoderMalformedFrameSkipped(t *testing.T) {
	input := "event: message\ndata: {\"token\":\"ok1\"}\n\n" +
		"data: {not valid json\n\n" +
		"event: message\ndata: {\"token\":\"ok2\"}\n\n"

	d := NewDecoder()
	events := feedAll(d, input)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (malformed frame must not abort the stream)", len(events))
	}
	if events[0].Token != "ok1" || events[1].Token != "ok2" {
		t.Errorf("tokens = %q, %q", events[0].Token, events[1].Token)
	}
	if d.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", d.Skipped())
	}
}

func TestDecoderUnrecognizedEventIgnored(t *testing.T) {
	input := "event: heartbeat\ndata: {\"at\":\"now\"}\n\n" +
		"event: message\ndata: {\"token\":\"hi\"}\n\n"

	d := NewDecoder()
	events := feedAll(d, input)

	if len(events) != 1 || events[0].Token != "hi" {
		t.Errorf("events = %+v, want single token event", events)
	}
	if d.Skipped() != 0 {
		t.Errorf("Skipped() = %d, unrecognized events are not malformed", d.Skipped())
	}
}

func TestDecoderDatalessNamedFrameIgnored(t *testing.T) {
	input := "event: complete\n\n" +
		"event: message\ndata: {\"token\":\"hi\"}\n\n"

	d := NewDecoder()
	events := feedAll(d, input)

	if len(events) != 1 || events[0].Token != "hi" {
		t.Errorf("events = %+v, want single token event", events)
	}
	if d.Skipped() != 0 {
		t.Errorf("Skipped() = %d, a frame without data is not malformed", d.Skipped())
	}
}

func TestDecoderNamelessFrameDefaultsToMessage(t *testing.T) {
	events := feedAll(NewDecoder(), "data: {\"token\":\"x\"}\n\n")
	if len(events) != 1 || events[0].Kind != EventToken || events[0].Token != "x" {
		t.Errorf("events = %+v, want message-kind token", events)
	}
}

func TestDecoderCRLF(t *testing.T) {
	input := "event: message\r\ndata: {\"token\":\"a\"}\r\n\r\n" +
		"event: complete\r\ndata: {}\r\n\r\n"

	events := feedAll(NewDecoder(), input)
	want := []Event{
		{Kind: EventToken, Token: "a"},
		{Kind: EventComplete},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestDecoderErrorEvent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"with message", "event: error\ndata: {\"error\":\"backend down\"}\n\n", "backend down"},
		{"empty payload", "event: error\ndata: {}\n\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := feedAll(NewDecoder(), tt.input)
			if len(events) != 1 || events[0].Kind != EventError {
				t.Fatalf("events = %+v, want single error event", events)
			}
			if events[0].ErrorMessage != tt.wantMsg {
				t.Errorf("ErrorMessage = %q, want %q", events[0].ErrorMessage, tt.wantMsg)
			}
		})
	}
}

func TestDecoderPartialFrameHeldBack(t *testing.T) {
	d := NewDecoder()

	if events := d.Feed([]byte("event: message\ndata: {\"token\":\"hi\"}")); len(events) != 0 {
		t.Fatalf("frame without blank-line terminator produced events: %+v", events)
	}
	events := d.Feed([]byte("\n\n"))
	if len(events) != 1 || events[0].Token != "hi" {
		t.Errorf("events after terminator = %+v", events)
	}
}

func TestDecoderStrayBlankLines(t *testing.T) {
	input := "\n\nevent: message\ndata: {\"token\":\"x\"}\n\n\n\n"
	events := feedAll(NewDecoder(), input)
	if len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
}
