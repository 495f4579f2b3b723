/*
Package storage persists small, durable key/value state outside the
per-tenant inverted index and oplog. Currently this is the replication
manager's per-tenant per-peer acknowledgment cursor table
(CursorStore, backed by bbolt via BoltCursorStore), so catch-up
cursors survive a process restart.
*/
package storage
