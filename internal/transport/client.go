// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// client.go - HTTP client for the assistant backend.
//
// Two request paths share this client: the single-shot JSON call (Send,
// SendLegacy) and the streaming call (Stream, in stream.go). Connection
// pools are shared across Client instances; per-request behavior comes
// from context deadlines, never from per-client socket state.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultRequestTimeout bounds one single-shot call end to end.
	DefaultRequestTimeout = 120 * time.Second

	// DefaultRetryDelay is the fixed backoff before the one retry allowed
	// on a transient network failure.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultStreamIdleTimeout promotes a silent stream to a failed one.
	DefaultStreamIdleTimeout = 90 * time.Second

	// MaxResponseSize caps how much of a single-shot body is read (1MB).
	MaxResponseSize = 1 << 20

	// chatPath is the single-shot endpoint.
	chatPath = "/api/chat"

	// chatStreamPath is the streaming endpoint.
	chatStreamPath = "/api/chat-stream"

	// legacyChatPath is the original single-shot endpoint, the only one
	// accepting file attachments.
	legacyChatPath = "/chat"
)

// =============================================================================
// SHARED HTTP CLIENTS
// =============================================================================

// Both clients share one transport so connections are pooled process-wide.
// The single-shot client carries a generous safety-net timeout (real
// budgets come from context deadlines); the streaming client has none at
// all, since a healthy stream can legitimately outlive any fixed timeout.
var (
	sharedTransport = &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}

	sharedHTTPClient = &http.Client{
		Timeout:   10 * time.Minute,
		Transport: sharedTransport,
	}

	sharedStreamingClient = &http.Client{
		Transport: sharedTransport,
	}
)

// =============================================================================
// CLIENT CONFIG
// =============================================================================

// Config controls one Client. The zero value is unusable; use
// DefaultConfig or fill BaseURL at minimum.
type Config struct {
	// BaseURL is the backend root, no trailing slash.
	BaseURL string

	// RequestTimeout bounds one single-shot call.
	RequestTimeout time.Duration

	// RetryDelay is the backoff before the single transient-failure retry.
	RetryDelay time.Duration

	// StreamIdleTimeout fails a stream that goes silent for this long.
	// Zero disables the idle check.
	StreamIdleTimeout time.Duration

	// RequestsPerMinute caps outbound requests. Zero disables the limiter.
	RequestsPerMinute int
}

// DefaultConfig returns the config for a local backend.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://localhost:8000",
		RequestTimeout:    DefaultRequestTimeout,
		RetryDelay:        DefaultRetryDelay,
		StreamIdleTimeout: DefaultStreamIdleTimeout,
		RequestsPerMinute: 30,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the assistant backend. Safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	streaming  *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client, filling zero config fields with defaults.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.StreamIdleTimeout < 0 {
		cfg.StreamIdleTimeout = 0
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 5)
	}

	return &Client{
		config:     cfg,
		httpClient: sharedHTTPClient,
		streaming:  sharedStreamingClient,
		limiter:    limiter,
	}
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// wait blocks on the politeness limiter, if one is configured.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// =============================================================================
// SINGLE-SHOT DRIVER
// =============================================================================

// Send performs one single-shot chat call and returns the reply text.
//
// The wall-clock budget is enforced via a context deadline. A transient
// network failure is retried exactly once after a short fixed backoff; a
// timeout is never retried, since the caller already waited the full
// budget.
func (c *Client) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	return c.sendTo(ctx, chatPath, chatRequest{
		Message:   msg.Text,
		SessionID: msg.SessionToken,
	})
}

// SendLegacy performs one call against the original /chat endpoint, the
// only one that accepts a file attachment.
func (c *Client) SendLegacy(ctx context.Context, msg OutboundMessage) (string, error) {
	req := chatRequest{
		Message:   msg.Text,
		SessionID: msg.SessionToken,
	}
	if msg.Attachment != nil {
		req.FileContent = msg.Attachment.Content
		req.FileName = msg.Attachment.Name
	}
	return c.sendTo(ctx, legacyChatPath, req)
}

func (c *Client) sendTo(ctx context.Context, path string, req chatRequest) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", &Error{Type: ErrTypeNetwork, Message: MsgNetwork, Cause: err}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	const maxAttempts = 2
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		reply, err := c.doOnce(ctx, path, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		// Only a transient network failure earns the single retry.
		if !IsNetwork(err) || !isTransient(err) || attempt == maxAttempts {
			return "", err
		}
		select {
		case <-time.After(c.config.RetryDelay):
		case <-ctx.Done():
			return "", timeoutOrCancel(ctx, ctx.Err())
		}
	}
	return "", lastErr
}

// doOnce performs exactly one HTTP round trip.
func (c *Client) doOnce(ctx context.Context, path string, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", timeoutOrCancel(ctx, err)
		}
		return "", &Error{Type: ErrTypeNetwork, Message: MsgNetwork, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.handleErrorResponse(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			return "", timeoutOrCancel(ctx, err)
		}
		return "", &Error{Type: ErrTypeNetwork, Message: MsgNetwork, Cause: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &Error{
			Type:    ErrTypeMalformed,
			Message: MsgUnavailable,
			Status:  resp.StatusCode,
			Cause:   err,
		}
	}
	if parsed.Reply == nil {
		return "", &Error{
			Type:    ErrTypeMalformed,
			Message: MsgUnavailable,
			Status:  resp.StatusCode,
			Cause:   errors.New("response missing reply field"),
		}
	}
	return *parsed.Reply, nil
}

// handleErrorResponse turns a non-2xx response into a backend error,
// preferring the server's own message when the body parses.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))

	var body errorBody
	msg := MsgUnavailable
	if err := json.Unmarshal(data, &body); err == nil {
		if m := body.message(); m != "" {
			msg = m
		}
	}
	return &Error{Type: ErrTypeBackend, Message: msg, Status: resp.StatusCode}
}

// =============================================================================
// FAILURE CLASSIFICATION
// =============================================================================

// timeoutOrCancel distinguishes the budget expiring from the caller
// cancelling. Both end the request; only the former is a timeout.
func timeoutOrCancel(ctx context.Context, cause error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Type: ErrTypeTimeout, Message: MsgTimeout, Cause: cause}
	}
	return &Error{Type: ErrTypeNetwork, Message: MsgNetwork, Cause: cause}
}

// isTransient reports whether a transport error is worth the one retry:
// connection-level failures that a second attempt can plausibly clear.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		// Socket-level timeouts are handled by the request budget.
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	// url.Error wrapping "connection refused" and friends.
	s := err.Error()
	return strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "no such host")
}
