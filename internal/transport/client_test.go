// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// testClient returns a Client for srv with fast timeouts and no limiter.
func testClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		RetryDelay:     10 * time.Millisecond,
	})
}

func TestSendSuccess(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply":"Password reset link sent."}`))
	}))
	defer srv.Close()

	reply, err := testClient(srv).Send(context.Background(), OutboundMessage{
		Text:         "reset my password",
		SessionToken: "sess_test_1234",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply != "Password reset link sent." {
		t.Errorf("reply = %q", reply)
	}
	if gotBody.Message != "reset my password" || gotBody.SessionID != "sess_test_1234" {
		t.Errorf("request body = %+v", gotBody)
	}
	if gotBody.FileContent != "" || gotBody.FileName != "" {
		t.Errorf("attachment fields leaked into /api/chat body: %+v", gotBody)
	}
}

func TestSendBackendErrorVariants(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantInMsg  string
		wantStatus int
	}{
		{"503 error field", http.StatusServiceUnavailable, `{"error":"overloaded"}`, "overloaded", 503},
		{"500 reply field", http.StatusInternalServerError, `{"reply":"Our service is temporarily unavailable. Please try again later."}`, "temporarily unavailable", 500},
		{"400 detail field", http.StatusBadRequest, `{"detail":"message must not be empty"}`, "must not be empty", 400},
		{"unparseable body", http.StatusBadGateway, `<html>gateway error</html>`, MsgUnavailable, 502},
		{"empty json body", http.StatusInternalServerError, `{}`, MsgUnavailable, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := testClient(srv).Send(context.Background(), OutboundMessage{Text: "hi"})
			if err == nil {
				t.Fatal("Send() error = nil, want backend error")
			}
			if !IsBackend(err) {
				t.Errorf("IsBackend(err) = false for %v", err)
			}
			var terr *Error
			if !errors.As(err, &terr) {
				t.Fatalf("error %v is not a *transport.Error", err)
			}
			if terr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", terr.Status, tt.wantStatus)
			}
			if !strings.Contains(terr.Message, tt.wantInMsg) {
				t.Errorf("Message = %q, want substring %q", terr.Message, tt.wantInMsg)
			}
			if n := atomic.LoadInt32(&calls); n != 1 {
				t.Errorf("backend errors must not retry: %d calls", n)
			}
		})
	}
}

func TestSendMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing reply field", `{"status":"ok"}`},
		{"not json", `hello there`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := testClient(srv).Send(context.Background(), OutboundMessage{Text: "hi"})
			if err == nil || !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("Send() error = %v, want malformed-response error", err)
			}
		})
	}
}

func TestSendTimeoutNoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:        srv.URL,
		RequestTimeout: 60 * time.Millisecond,
		RetryDelay:     10 * time.Millisecond,
	})

	start := time.Now()
	_, err := client.Send(context.Background(), OutboundMessage{Text: "hi"})
	elapsed := time.Since(start)

	if !IsTimeout(err) {
		t.Fatalf("Send() error = %v, want timeout", err)
	}
	if got := UserMessage(err); got != MsgTimeout {
		t.Errorf("UserMessage = %q, want %q", got, MsgTimeout)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("timeout must not retry: %d calls", n)
	}
	if elapsed > time.Second {
		t.Errorf("timed-out call took %s, budget was 60ms", elapsed)
	}
}

func TestSendRetriesOnceOnTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// Kill the connection mid-request: the client sees EOF.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("ResponseWriter does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack: %v", err)
			}
			conn.Close()
			return
		}
		w.Write([]byte(`{"reply":"second attempt worked"}`))
	}))
	defer srv.Close()

	reply, err := testClient(srv).Send(context.Background(), OutboundMessage{Text: "hi"})
	if err != nil {
		t.Fatalf("Send() error = %v, want success on retry", err)
	}
	if reply != "second attempt worked" {
		t.Errorf("reply = %q", reply)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want exactly 2", n)
	}
}

func TestSendNetworkErrorAfterRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listening: every dial is refused

	client := NewClient(Config{
		BaseURL:        url,
		RequestTimeout: 2 * time.Second,
		RetryDelay:     10 * time.Millisecond,
	})

	_, err := client.Send(context.Background(), OutboundMessage{Text: "hi"})
	if !IsNetwork(err) {
		t.Fatalf("Send() error = %v, want network error", err)
	}
	if got := UserMessage(err); got != MsgNetwork {
		t.Errorf("UserMessage = %q, want %q", got, MsgNetwork)
	}
}

func TestSendLegacyAttachment(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q, want /chat", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"reply":"got your file"}`))
	}))
	defer srv.Close()

	msg := OutboundMessage{
		Text:         "please review",
		SessionToken: "sess_x",
		Attachment:   NewAttachment("notes.txt", []byte("hello")),
	}
	reply, err := testClient(srv).SendLegacy(context.Background(), msg)
	if err != nil {
		t.Fatalf("SendLegacy() error = %v", err)
	}
	if reply != "got your file" {
		t.Errorf("reply = %q", reply)
	}
	if gotBody.FileName != "notes.txt" {
		t.Errorf("file_name = %q", gotBody.FileName)
	}
	if gotBody.FileContent != "aGVsbG8=" {
		t.Errorf("file_content = %q, want base64 of hello", gotBody.FileContent)
	}
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		max     int
		wantErr bool
	}{
		{"normal", "hello", 1000, false},
		{"empty", "", 1000, true},
		{"whitespace only", "   \n\t ", 1000, true},
		{"at limit", strings.Repeat("a", 10), 10, false},
		{"over limit", strings.Repeat("a", 11), 10, true},
		{"default limit", strings.Repeat("a", 1001), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.text, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage(%q, %d) error = %v, wantErr %v", tt.text, tt.max, err, tt.wantErr)
			}
		})
	}
}
