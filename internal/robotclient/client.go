// Package robotclient implements the small outbound HTTP half of the
// robot's side of the contract (SPEC_FULL §4.11, spec §6): GET
// {robotUrl}/health and GET {robotUrl}/nodes, used by the Telemetry Store's
// nodes() one-shot fetch and GET /robot/check's health probe.
//
// Grounded on the teacher's internal/adapter/rest_adapter.go: a bare
// *http.Client with a fixed Timeout, same construction shape
// (&http.Client{Timeout: ...}). Only the GET-based health/nodes half is
// kept — rest_adapter.go's SendCommand/Connect/Disconnect model per-robot
// REST command dispatch, which this spec has no use for: robot commands
// travel over the WS downlink (§4.7), not REST POSTs to the robot.
package robotclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// defaultTimeout bounds every outbound call so a hung or unreachable robot
// cannot stall a request handler; on timeout the caller gets a negative
// result, never a transport error (spec §5, §7).
const defaultTimeout = 2 * time.Second

// Client is the HTTP seam coordination.NodeFetcher is satisfied by.
type Client struct {
	http *http.Client
}

// New constructs a Client with the bounded default timeout.
func New() *Client {
	return &Client{http: &http.Client{Timeout: defaultTimeout}}
}

// NewWithTimeout constructs a Client with an ops-overridden timeout, for
// config.TimingConfig.RobotHTTPTimeout().
func NewWithTimeout(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

type nodesResponse struct {
	Nodes []string `json:"nodes"`
}

// FetchNodes performs a single GET baseURL+"/nodes" and decodes {nodes:[...]}.
func (c *Client) FetchNodes(ctx context.Context, baseURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/nodes", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nodes fetch: unexpected status %d", resp.StatusCode)
	}
	var body nodesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Nodes, nil
}

// CheckHealth performs a single GET baseURL+"/health" and reports only
// whether it returned 200 — the spec's contract is status-code-only.
func (c *Client) CheckHealth(ctx context.Context, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
