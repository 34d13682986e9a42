// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Backend reachability and client state summary.
//
// Command: status
package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// probeTimeout bounds the reachability check; status should never hang.
const probeTimeout = 3 * time.Second

// HandleStatus prints client state and probes the backend root.
func HandleStatus(args *Args) error {
	app, err := NewApp()
	if err != nil {
		return err
	}

	fmt.Println(styled(headerStyle, "deskchat status"))
	fmt.Printf("  Version:   %s\n", Version)
	fmt.Printf("  Backend:   %s\n", app.Client.BaseURL())
	fmt.Printf("  Streaming: %v\n", app.Config.Streaming())
	fmt.Printf("  Session:   %s\n", app.Session.Token())

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	status, latency, probeErr := probeBackend(ctx, app.Client.BaseURL())
	switch {
	case probeErr != nil:
		fmt.Printf("  Reachable: %s\n", styled(errorStyle, "no ("+probeErr.Error()+")"))
	case status >= 500:
		fmt.Printf("  Reachable: %s\n", styled(warnStyle, fmt.Sprintf("degraded (HTTP %d, %s)", status, latency.Round(time.Millisecond))))
	default:
		fmt.Printf("  Reachable: %s\n", styled(okStyle, fmt.Sprintf("yes (HTTP %d, %s)", status, latency.Round(time.Millisecond))))
	}
	return nil
}

// probeBackend GETs the backend root, which serves the web client and
// answers fast whether or not the agent behind it is healthy.
func probeBackend(ctx context.Context, baseURL string) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/", nil)
	if err != nil {
		return 0, 0, err
	}
	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, time.Since(start), nil
}
