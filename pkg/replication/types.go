package replication

import "github.com/gridlhq/flapjack/pkg/types"

// ReplicateOpsRequest is the body of POST /internal/replicate: a batch of
// oplog entries for one tenant, sent fire-and-forget from the origin node
// to a single peer.
type ReplicateOpsRequest struct {
	TenantID string             `json:"tenant_id"`
	Ops      []types.OpLogEntry `json:"ops"`
}

// ReplicateOpsResponse reports back the sequence number the peer has now
// durably applied for the tenant, so the caller can advance its cursor.
type ReplicateOpsResponse struct {
	TenantID string `json:"tenant_id"`
	AckedSeq uint64 `json:"acked_seq"`
}

// GetOpsResponse is the body of GET /internal/ops?tenant_id=X&since_seq=N:
// every entry with seq > since_seq, plus the peer's current high-water
// mark so the caller knows whether it is now caught up.
type GetOpsResponse struct {
	TenantID   string             `json:"tenant_id"`
	Ops        []types.OpLogEntry `json:"ops"`
	CurrentSeq uint64             `json:"current_seq"`
}

// PeerStatus summarizes one configured peer for the GET /internal/status
// endpoint and for operator-facing diagnostics.
type PeerStatus struct {
	PeerID string `json:"peer_id"`
	Addr   string `json:"addr"`
}
