// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeranaias/deskchat/internal/transport"
)

func askTestApp(baseURL string, timeout time.Duration) *App {
	client := transport.NewClient(transport.Config{
		BaseURL:        baseURL,
		RequestTimeout: timeout,
		RetryDelay:     time.Millisecond,
	})
	return &App{Client: client}
}

func TestAskNetworkFailureKeepsErrorClass(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	app := askTestApp(url, time.Second)
	_, err := sendAndDisplay(app, transport.NewMessage("hi", "sess_test"), false)
	if err == nil {
		t.Fatal("expected an error against a closed backend")
	}
	if !transport.IsNetwork(err) {
		t.Errorf("IsNetwork = false for %v, want network class", err)
	}
	if code := reportError(err); code != ExitNetworkError {
		t.Errorf("exit code = %d, want %d", code, ExitNetworkError)
	}
}

func TestAskTimeoutKeepsErrorClass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	app := askTestApp(srv.URL, 50*time.Millisecond)
	_, err := sendAndDisplay(app, transport.NewMessage("hi", "sess_test"), false)
	if !transport.IsTimeout(err) {
		t.Errorf("IsTimeout = false for %v, want timeout class", err)
	}
	if code := reportError(err); code != ExitTimeoutError {
		t.Errorf("exit code = %d, want %d", code, ExitTimeoutError)
	}
}

func TestAskBackendFailureKeepsErrorClass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer srv.Close()

	app := askTestApp(srv.URL, time.Second)
	_, err := sendAndDisplay(app, transport.NewMessage("hi", "sess_test"), false)
	if !transport.IsBackend(err) {
		t.Errorf("IsBackend = false for %v, want backend class", err)
	}
	if code := reportError(err); code != ExitBackendError {
		t.Errorf("exit code = %d, want %d", code, ExitBackendError)
	}
}

func TestClassifyTerminalMessage(t *testing.T) {
	tests := []struct {
		message string
		want    func(error) bool
		name    string
	}{
		{transport.MsgTimeout, transport.IsTimeout, "timeout"},
		{transport.MsgNetwork, transport.IsNetwork, "network"},
		{transport.MsgUnavailable, transport.IsBackend, "backend"},
		{"Something specific went wrong.", transport.IsBackend, "server-authored"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := classifyTerminalMessage(tt.message); !tt.want(err) {
				t.Errorf("classifyTerminalMessage(%q) = %v, wrong class", tt.message, err)
			}
		})
	}
}
