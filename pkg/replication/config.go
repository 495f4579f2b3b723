package replication

// PeerConfig names one other node in the cluster by its node ID and the
// base URL its internal replication endpoints listen on.
type PeerConfig struct {
	NodeID string
	Addr   string
}

// NodeConfig is this node's identity plus the peer set it fans writes out
// to. It is deliberately flat and static: peer membership changes are an
// operator-driven config reload, not a gossip protocol.
type NodeConfig struct {
	NodeID string
	Peers  []PeerConfig
}
