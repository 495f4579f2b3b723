package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/gridlhq/flapjack/pkg/events"
	"github.com/gridlhq/flapjack/pkg/log"
	"github.com/gridlhq/flapjack/pkg/metrics"
	"github.com/gridlhq/flapjack/pkg/storage"
	"github.com/gridlhq/flapjack/pkg/types"
)

// fanoutTimeout bounds a single peer call so one slow or dead peer never
// pins a fanout goroutine forever.
const fanoutTimeout = 10 * time.Second

// Manager fans a tenant's committed ops out to every configured peer and
// lets a node pull what it missed after a restart or network partition.
// It deliberately mirrors the original's scope: no consensus, no retry
// queue, no peer selection logic beyond "the first configured peer" for
// catch-up. Durability is the one place this diverges from the original:
// peer cursors live in CursorStore (bbolt-backed) instead of an in-memory
// map, so a node restart doesn't forget how caught-up its peers were.
type Manager struct {
	node    NodeConfig
	peers   []*PeerClient
	cursors storage.CursorStore
	broker  *events.Broker
}

// NewManager builds a replication manager for node cfg, dialing a
// PeerClient for every configured peer. broker may be nil, in which case
// lag events are simply not published.
func NewManager(cfg NodeConfig, cursors storage.CursorStore, broker *events.Broker) *Manager {
	peers := make([]*PeerClient, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		peers = append(peers, NewPeerClient(p.NodeID, p.Addr))
	}
	return &Manager{node: cfg, peers: peers, cursors: cursors, broker: broker}
}

// NodeID returns this node's own identity.
func (m *Manager) NodeID() string { return m.node.NodeID }

// PeerCount returns the number of configured peers.
func (m *Manager) PeerCount() int { return len(m.peers) }

// Status summarizes the configured peer set for the internal status
// endpoint.
func (m *Manager) Status() []PeerStatus {
	out := make([]PeerStatus, 0, len(m.peers))
	for _, p := range m.peers {
		out = append(out, PeerStatus{PeerID: p.PeerID(), Addr: p.Addr()})
	}
	return out
}

// ReplicateOps fans ops out to every peer without waiting for any of them:
// each peer gets its own goroutine, and the caller returns immediately.
// A peer's cursor only advances if it acknowledges the batch; a failure is
// logged and the cursor is left untouched, exactly as the caller never
// learns about it. Lag is observed through ReplicationLag and, if any
// peer falls behind, an EventReplicationLagged notification.
func (m *Manager) ReplicateOps(tenantID string, ops []types.OpLogEntry) {
	if len(ops) == 0 || len(m.peers) == 0 {
		return
	}

	localSeq := ops[len(ops)-1].Seq
	req := ReplicateOpsRequest{TenantID: tenantID, Ops: ops}

	for _, peer := range m.peers {
		go m.replicateToPeer(peer, tenantID, req, localSeq)
	}
}

func (m *Manager) replicateToPeer(peer *PeerClient, tenantID string, req ReplicateOpsRequest, localSeq uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
	defer cancel()

	logger := log.WithPeer(peer.PeerID())

	resp, err := peer.ReplicateOps(ctx, req)
	if err != nil {
		metrics.ReplicationFanoutsTotal.WithLabelValues(peer.PeerID(), "error").Inc()
		logger.Warn().Err(err).Str("tenant", tenantID).Msg("replication fanout failed")
		m.publishLag(tenantID, peer.PeerID(), "fanout failed: "+err.Error())
		return
	}

	metrics.ReplicationFanoutsTotal.WithLabelValues(peer.PeerID(), "ok").Inc()

	if err := m.cursors.SetAcked(tenantID, peer.PeerID(), resp.AckedSeq); err != nil {
		logger.Warn().Err(err).Str("tenant", tenantID).Msg("failed to persist replication cursor")
	}

	lag := int64(localSeq) - int64(resp.AckedSeq)
	if lag < 0 {
		lag = 0
	}
	metrics.ReplicationLag.WithLabelValues(tenantID, peer.PeerID()).Set(float64(lag))
	if lag > 0 {
		m.publishLag(tenantID, peer.PeerID(), fmt.Sprintf("peer acked seq %d, local seq %d", resp.AckedSeq, localSeq))
	}
}

func (m *Manager) publishLag(tenantID, peerID, message string) {
	if m.broker == nil {
		return
	}
	m.broker.Publish(&events.Event{
		Type:     events.EventReplicationLagged,
		Tenant:   tenantID,
		Message:  message,
		Metadata: map[string]string{"peer": peerID},
	})
}

// CatchUpFromPeer asks the first configured peer for everything it has
// past localSeq for tenantID. Like the original, this never picks among
// peers or merges results from several: one peer is enough to rejoin the
// cluster, and peer selection logic is left for a later phase.
func (m *Manager) CatchUpFromPeer(ctx context.Context, tenantID string, localSeq uint64) ([]types.OpLogEntry, error) {
	if len(m.peers) == 0 {
		return nil, fmt.Errorf("replication: no peers configured for tenant %s", tenantID)
	}

	resp, err := m.peers[0].GetOps(ctx, tenantID, localSeq)
	if err != nil {
		return nil, fmt.Errorf("replication: catch up from %s: %w", m.peers[0].PeerID(), err)
	}
	return resp.Ops, nil
}

// GetPeerCursors returns the last acked seq recorded for every peer for
// tenantID, as persisted in CursorStore.
func (m *Manager) GetPeerCursors(tenantID string) (map[string]uint64, error) {
	return m.cursors.ListCursors(tenantID)
}
