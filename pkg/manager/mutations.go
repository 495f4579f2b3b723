package manager

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/gridlhq/flapjack/pkg/events"
	"github.com/gridlhq/flapjack/pkg/log"
	"github.com/gridlhq/flapjack/pkg/types"
)

// appendMutationOp is the shared tail every settings/rule/synonym
// mutation runs through: append one oplog entry for the change,
// invalidate the tenant's facet-cache entries, and hand the entry to
// replication — the same cache-invalidation and replication-handoff
// steps commitBatch runs for document writes, reused here for
// metadata writes (spec §4.1's "mutations to backing JSON files
// invalidate caches the same way document writes do").
func (m *Manager) appendMutationOp(ts *tenantState, opType types.OpType, payload []byte) {
	seq, err := ts.log.Append(opType, payload)
	if err != nil {
		log.WithTenant(ts.name).Error().Err(err).Msg("failed to append mutation to oplog")
		return
	}

	m.facets.invalidateTenant(ts.name)

	if m.broker != nil {
		m.broker.Publish(&events.Event{Type: events.EventCacheInvalidated, Tenant: ts.name})
	}

	if m.repl == nil {
		return
	}
	m.repl.ReplicateOps(ts.name, []types.OpLogEntry{{
		Seq:          seq,
		TimestampMs:  time.Now().UnixMilli(),
		OriginNodeID: m.cfg.Node.NodeID,
		TenantID:     ts.name,
		OpType:       opType,
		Payload:      payload,
	}})
}

// SaveRule inserts or replaces a rule, persists rules.json, and
// propagates the change through the oplog/cache/replication tail.
func (m *Manager) SaveRule(tenant string, rule types.Rule) error {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return err
	}

	ts.rules.Insert(rule)
	if err := ts.rules.Save(ts.rulesPath()); err != nil {
		return err
	}

	payload, err := sonic.Marshal(rule)
	if err != nil {
		return types.WrapError(types.ErrJson, "marshal rule for oplog", err)
	}
	m.appendMutationOp(ts, types.OpSaveRule, payload)
	return nil
}

// ClearRules removes every rule for tenant.
func (m *Manager) ClearRules(tenant string) error {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return err
	}

	ts.rules.Clear()
	if err := ts.rules.Save(ts.rulesPath()); err != nil {
		return err
	}

	m.appendMutationOp(ts, types.OpClearRules, nil)
	return nil
}

// SaveSynonym inserts or replaces a synonym, persists synonyms.json,
// and propagates the change.
func (m *Manager) SaveSynonym(tenant string, syn types.Synonym) error {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return err
	}

	ts.synonyms.Insert(syn)
	if err := ts.synonyms.Save(ts.synonymsPath()); err != nil {
		return err
	}

	payload, err := sonic.Marshal(syn)
	if err != nil {
		return types.WrapError(types.ErrJson, "marshal synonym for oplog", err)
	}
	m.appendMutationOp(ts, types.OpSaveSynonym, payload)
	return nil
}

// ClearSynonyms removes every synonym for tenant.
func (m *Manager) ClearSynonyms(tenant string) error {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return err
	}

	ts.synonyms.Clear()
	if err := ts.synonyms.Save(ts.synonymsPath()); err != nil {
		return err
	}

	m.appendMutationOp(ts, types.OpClearSynonyms, nil)
	return nil
}

// UpdateSettings replaces tenant's settings wholesale, persists
// settings.json, and propagates the change. Settings affect faceting
// and ranking, so this invalidates cached search results exactly like
// a document write would.
func (m *Manager) UpdateSettings(tenant string, settings types.Settings) error {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return err
	}

	ts.setSettings(settings)
	if err := ts.saveSettings(); err != nil {
		return err
	}

	payload, err := sonic.Marshal(settings)
	if err != nil {
		return types.WrapError(types.ErrJson, "marshal settings for oplog", err)
	}
	m.appendMutationOp(ts, types.OpSettings, payload)
	return nil
}
