// Package oplog is the per-tenant durable write-ahead log (§4.6): a
// directory of rotating segment_NNNN.jsonl files that records every
// accepted mutation before it is applied, so a crashed writer can
// recover its sequence counter and a replication peer can catch up by
// replaying entries after its last acked seq.
package oplog
