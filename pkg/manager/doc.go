// Package manager implements the IndexManager (spec §4.1): the single
// control-flow hub that multiplexes every tenant operation and
// serializes writes within each tenant through a per-tenant write-queue
// worker. It composes pkg/docindex, pkg/oplog, pkg/rules, pkg/synonyms,
// pkg/queryexec, pkg/memorybudget, and pkg/replication into the
// create_tenant/delete_tenant/add_documents/search surface; none of
// those packages know about tenants or tasks on their own.
//
// Shaped after the teacher's pkg/manager/manager.go (one constructor
// wiring every subsystem, an eventBroker threaded through, a Shutdown
// that tears it all down) and pkg/worker/worker.go (a per-entity
// background goroutine driven by a ticker and a stopCh), without the
// Raft/CA/DNS/ingress machinery those files carried for container
// orchestration.
package manager
