// Package replication fans a tenant's committed oplog entries out to peer
// nodes and lets a node catch up on what it missed.
//
// It is intentionally best-effort: ReplicateOps never blocks its caller
// and a failed peer call is only ever observed through the error-labelled
// fanout counter, a log line and an EventReplicationLagged notification,
// never an error return. Peer
// selection for catch-up is equally blunt — CatchUpFromPeer always asks
// the first configured peer. Neither is a bug: the system this package
// belongs to trades linearizability for availability, and a fuller
// peer-selection or retry strategy is future work, not a missing feature
// of this phase.
package replication
