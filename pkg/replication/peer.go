package replication

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// PeerClient speaks the internal replication wire protocol to one peer
// node: POST /internal/replicate to push a batch, GET /internal/ops to
// pull everything since a cursor. Both endpoints are unauthenticated by
// design (spec.md restricts them to a private peer network), so the
// client adds no credentials.
type PeerClient struct {
	peerID     string
	baseURL    string
	httpClient *http.Client
}

// NewPeerClient builds a client for one configured peer.
func NewPeerClient(peerID, baseURL string) *PeerClient {
	return &PeerClient{
		peerID:  peerID,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// PeerID returns the node ID this client talks to.
func (c *PeerClient) PeerID() string { return c.peerID }

// Addr returns the peer's configured base URL.
func (c *PeerClient) Addr() string { return c.baseURL }

// ReplicateOps pushes a batch of oplog entries to the peer and returns the
// seq it has now acknowledged.
func (c *PeerClient) ReplicateOps(ctx context.Context, req ReplicateOpsRequest) (ReplicateOpsResponse, error) {
	body, err := sonic.Marshal(&req)
	if err != nil {
		return ReplicateOpsResponse{}, fmt.Errorf("replication: encode replicate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/replicate", bytes.NewReader(body))
	if err != nil {
		return ReplicateOpsResponse{}, fmt.Errorf("replication: build replicate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ReplicateOpsResponse{}, fmt.Errorf("replication: call peer %s: %w", c.peerID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ReplicateOpsResponse{}, fmt.Errorf("replication: read peer %s response: %w", c.peerID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return ReplicateOpsResponse{}, fmt.Errorf("replication: peer %s returned %d: %s", c.peerID, resp.StatusCode, string(respBody))
	}

	var out ReplicateOpsResponse
	if err := sonic.Unmarshal(respBody, &out); err != nil {
		return ReplicateOpsResponse{}, fmt.Errorf("replication: decode peer %s response: %w", c.peerID, err)
	}
	return out, nil
}

// GetOps pulls every entry the peer holds for tenantID with seq strictly
// greater than sinceSeq.
func (c *PeerClient) GetOps(ctx context.Context, tenantID string, sinceSeq uint64) (GetOpsResponse, error) {
	q := url.Values{}
	q.Set("tenant_id", tenantID)
	q.Set("since_seq", strconv.FormatUint(sinceSeq, 10))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/internal/ops?"+q.Encode(), nil)
	if err != nil {
		return GetOpsResponse{}, fmt.Errorf("replication: build catch-up request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return GetOpsResponse{}, fmt.Errorf("replication: call peer %s: %w", c.peerID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return GetOpsResponse{}, fmt.Errorf("replication: read peer %s response: %w", c.peerID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return GetOpsResponse{}, fmt.Errorf("replication: peer %s returned %d: %s", c.peerID, resp.StatusCode, string(respBody))
	}

	var out GetOpsResponse
	if err := sonic.Unmarshal(respBody, &out); err != nil {
		return GetOpsResponse{}, fmt.Errorf("replication: decode peer %s response: %w", c.peerID, err)
	}
	return out, nil
}
