package manager

import (
	"context"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gridlhq/flapjack/pkg/docindex"
	"github.com/gridlhq/flapjack/pkg/events"
	"github.com/gridlhq/flapjack/pkg/log"
	"github.com/gridlhq/flapjack/pkg/metrics"
	"github.com/gridlhq/flapjack/pkg/oplog"
	"github.com/gridlhq/flapjack/pkg/types"
)

type opKind int

const (
	opUpsert opKind = iota
	opDelete
)

// writeOp is one submitted task's worth of work — either a batch of
// documents to upsert or a batch of ids to delete — carried through
// the queue as a single unit so task bookkeeping stays 1:1 with the
// caller's add_documents/delete_documents_sync call.
type writeOp struct {
	kind   opKind
	taskID string
	docs   []types.Document
	ids    []string
}

// taskBatchResult tallies one task's outcome within a coalesced commit:
// how many of its documents were received, how many actually made it
// into the batch, and any per-document failures recorded along the way.
type taskBatchResult struct {
	received int
	indexed  int
	failures []types.DocFailure
}

// writerLoop is the per-tenant write-queue worker (spec §4.1): it
// drains up to a coalescing window of ops, commits them in one bleve
// batch, appends the oplog in submission order, invalidates the facet
// cache, resolves tasks, and hands the new entries to replication.
// Shaped after the teacher's worker.go heartbeat/executor loops —
// ticker-driven drain plus a stopCh for graceful shutdown — generalized
// here from "one goroutine per container" to "one goroutine per tenant".
func (m *Manager) writerLoop(ts *tenantState) {
	defer close(ts.done)
	defer func() {
		if r := recover(); r != nil {
			log.WithTenant(ts.name).Error().Interface("panic", r).Msg("write-queue worker panicked, tenant marked unhealthy")
			ts.markUnhealthy()
		}
	}()

	ticker := time.NewTicker(m.cfg.CoalesceWindow)
	defer ticker.Stop()

	var batch []writeOp
	flush := func() {
		if len(batch) == 0 {
			return
		}
		m.commitBatch(ts, batch)
		batch = nil
	}

	for {
		select {
		case op, ok := <-ts.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, op)
			metrics.QueueDepth.WithLabelValues(ts.name).Set(float64(len(ts.queue)))
			if len(batch) >= m.cfg.CoalesceMaxOps {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ts.stopCh:
			flush()
			return
		}
	}
}

// flatEntry is one document-or-delete within a drained batch, kept in
// submission order across every writeOp so the oplog append below
// preserves exact submission order even though several tasks' ops were
// coalesced into a single commit.
type flatEntry struct {
	taskID string
	kind   opKind
	doc    types.Document
	id     string
}

func flatten(batch []writeOp) []flatEntry {
	var out []flatEntry
	for _, op := range batch {
		switch op.kind {
		case opUpsert:
			for _, d := range op.docs {
				out = append(out, flatEntry{taskID: op.taskID, kind: opUpsert, doc: d})
			}
		case opDelete:
			for _, id := range op.ids {
				out = append(out, flatEntry{taskID: op.taskID, kind: opDelete, id: id})
			}
		}
	}
	return out
}

func uniqueTaskIDs(batch []writeOp) []string {
	seen := make(map[string]bool, len(batch))
	var out []string
	for _, op := range batch {
		if !seen[op.taskID] {
			seen[op.taskID] = true
			out = append(out, op.taskID)
		}
	}
	return out
}

// commitBatch implements the write-queue worker's single-commit
// algorithm (spec §4.1). It builds one bleve batch directly, bypassing
// TenantIndex.UpsertBatch (which aborts the whole batch on the first
// conversion error), so a bad document only costs that document, not
// its batch-mates: per-document conversion failures are recorded
// against their owning task while every other document still commits.
// A committer-level failure, by contrast, fails every task in the
// batch with the same message.
func (m *Manager) commitBatch(ts *tenantState, batch []writeOp) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.WriteBatchDuration)

	entries := flatten(batch)
	taskIDs := uniqueTaskIDs(batch)

	results := make(map[string]*taskBatchResult, len(taskIDs))
	for _, id := range taskIDs {
		results[id] = &taskBatchResult{}
	}

	underlying := ts.index.Underlying()
	bbatch := underlying.NewBatch()
	facetAttrs := ts.settingsSnapshot().AttributesForFaceting

	var committed []flatEntry
	for _, e := range entries {
		switch e.kind {
		case opUpsert:
			results[e.taskID].received++
			record, err := docindex.ToRecord(e.doc, facetAttrs)
			if err != nil {
				results[e.taskID].failures = append(results[e.taskID].failures, types.DocFailure{
					ObjectID: e.doc.ID,
					Kind:     types.ErrInvalidDocument,
					Message:  err.Error(),
				})
				metrics.DocumentsRejected.WithLabelValues(ts.name, "conversion").Inc()
				continue
			}
			if err := bbatch.Index(e.doc.ID, record); err != nil {
				results[e.taskID].failures = append(results[e.taskID].failures, types.DocFailure{
					ObjectID: e.doc.ID,
					Kind:     types.ErrIo,
					Message:  err.Error(),
				})
				metrics.DocumentsRejected.WithLabelValues(ts.name, "index").Inc()
				continue
			}
			results[e.taskID].indexed++
			committed = append(committed, e)
		case opDelete:
			results[e.taskID].received++
			bbatch.Delete(e.id)
			results[e.taskID].indexed++
			committed = append(committed, e)
		}
	}

	// The commit itself goes through the fleet-wide writer semaphore
	// (§4.5): however many tenants are coalescing batches at once, only
	// MaxConcurrentWriters bleve commits run concurrently.
	release, err := m.budget.AcquireWriter(context.Background())
	if err != nil {
		for _, id := range taskIDs {
			m.failTask(ts, id, err.Error())
		}
		return
	}
	commitErr := underlying.Batch(bbatch)
	release()

	if commitErr != nil {
		for _, id := range taskIDs {
			m.failTask(ts, id, commitErr.Error())
		}
		return
	}

	oplogEntries := m.appendOplog(ts, committed)
	m.facets.invalidateTenant(ts.name)
	m.finishTasks(ts, taskIDs, results)

	if len(oplogEntries) > 0 && m.repl != nil {
		m.repl.ReplicateOps(ts.name, oplogEntries)
	}

	if n, err := ts.index.DocCount(); err == nil {
		metrics.DocumentsTotal.WithLabelValues(ts.name).Set(float64(n))
	}
}

// appendOplog appends one oplog entry per successfully committed
// document or delete, in submission order, and returns the full
// entries (with Seq filled in) for replication handoff. Upsert
// payloads carry the document's full field set under "body"; delete
// payloads carry just the objectID.
func (m *Manager) appendOplog(ts *tenantState, committed []flatEntry) []types.OpLogEntry {
	if len(committed) == 0 {
		return nil
	}

	ops := make([]oplog.Op, 0, len(committed))
	for _, e := range committed {
		var payload []byte
		var opType types.OpType
		switch e.kind {
		case opUpsert:
			opType = types.OpUpsert
			payload, _ = upsertPayload(e.doc)
		case opDelete:
			opType = types.OpDelete
			payload, _ = deletePayload(e.id)
		}
		ops = append(ops, oplog.Op{OpType: opType, Payload: payload})
	}

	lastSeq, err := ts.log.AppendBatch(ops)
	if err != nil {
		log.WithTenant(ts.name).Error().Err(err).Msg("failed to append oplog batch")
		return nil
	}

	firstSeq := lastSeq - uint64(len(ops)) + 1
	now := time.Now().UnixMilli()
	result := make([]types.OpLogEntry, len(ops))
	for i, op := range ops {
		result[i] = types.OpLogEntry{
			Seq:          firstSeq + uint64(i),
			TimestampMs:  now,
			OriginNodeID: m.cfg.Node.NodeID,
			TenantID:     ts.name,
			OpType:       op.OpType,
			Payload:      op.Payload,
		}
	}
	return result
}

func upsertPayload(doc types.Document) ([]byte, error) {
	body := make(map[string]interface{}, len(doc.Fields)+1)
	body["objectID"] = doc.ID
	for k, v := range doc.Fields {
		body[k] = v
	}
	return sonic.Marshal(map[string]interface{}{"body": body})
}

func deletePayload(id string) ([]byte, error) {
	return sonic.Marshal(map[string]interface{}{"objectID": id})
}

// finishTasks marks every task in a successfully committed batch
// Succeeded, recording whatever per-document failures it picked up
// along the way — per spec §4.1, a partial conversion failure doesn't
// fail the task, only a committer-level failure does (see failTask).
func (m *Manager) finishTasks(ts *tenantState, taskIDs []string, results map[string]*taskBatchResult) {
	for _, id := range taskIDs {
		r := results[id]
		m.tasks.update(id, func(t *types.Task) {
			t.Status = types.TaskSucceeded
			t.ReceivedCount = r.received
			t.IndexedCount = r.indexed
			t.Failures = r.failures
		})
		m.tasks.finish(id)
		metrics.TasksTotal.WithLabelValues("succeeded").Inc()
		metrics.DocumentsIndexed.WithLabelValues(ts.name).Add(float64(r.indexed))
		if m.broker != nil {
			m.broker.Publish(&events.Event{
				Type:     events.EventTaskSucceeded,
				Tenant:   ts.name,
				Metadata: map[string]string{"task_id": id},
			})
		}
	}
}

// failTask marks one task Failed with message — the committer-level
// failure path, applied to every task in a batch whose bleve commit
// itself errored.
func (m *Manager) failTask(ts *tenantState, taskID, message string) {
	m.tasks.update(taskID, func(t *types.Task) {
		t.Status = types.TaskFailed
		t.FailureMessage = message
	})
	m.tasks.finish(taskID)
	metrics.TasksTotal.WithLabelValues("failed").Inc()
	if m.broker != nil {
		m.broker.Publish(&events.Event{
			Type:     events.EventTaskFailed,
			Tenant:   ts.name,
			Message:  message,
			Metadata: map[string]string{"task_id": taskID},
		})
	}
}
