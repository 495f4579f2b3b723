package manager

import (
	"time"

	"github.com/gridlhq/flapjack/pkg/events"
	"github.com/gridlhq/flapjack/pkg/memorybudget"
	"github.com/gridlhq/flapjack/pkg/replication"
)

const (
	defaultCoalesceWindow  = 100 * time.Millisecond
	defaultCoalesceMaxOps  = 512
	defaultQueueCap        = 4096
	defaultTaskLRUCap      = 1000
	defaultFacetCacheCap   = 2048
	defaultBatchDocCeiling = 1000
)

// Config configures one Manager: where tenant data lives on disk, this
// node's replication identity and peers, and the write-queue/cache
// tuning knobs spec §4.1 names directly (coalescing window and count,
// the per-tenant task LRU cap, the facet-result cache cap).
type Config struct {
	DataDir string
	Node    replication.NodeConfig
	Budget  memorybudget.Config

	CoalesceWindow time.Duration
	CoalesceMaxOps int
	QueueCap       int
	TaskLRUCap     int
	FacetCacheCap  int

	// Broker lets callers share one event broker across the manager
	// and other subsystems (e.g. an HTTP layer's SSE stream); a nil
	// Broker gets its own, started and stopped with the manager.
	Broker *events.Broker
}

func (c Config) withDefaults() Config {
	if c.CoalesceWindow <= 0 {
		c.CoalesceWindow = defaultCoalesceWindow
	}
	if c.CoalesceMaxOps <= 0 {
		c.CoalesceMaxOps = defaultCoalesceMaxOps
	}
	if c.QueueCap <= 0 {
		c.QueueCap = defaultQueueCap
	}
	if c.TaskLRUCap <= 0 {
		c.TaskLRUCap = defaultTaskLRUCap
	}
	if c.FacetCacheCap <= 0 {
		c.FacetCacheCap = defaultFacetCacheCap
	}
	if c.Budget.BatchDocCeiling <= 0 {
		c.Budget.BatchDocCeiling = defaultBatchDocCeiling
	}
	return c
}
