package manager

import (
	"strings"
	"sync"

	"github.com/gridlhq/flapjack/pkg/metrics"
	"github.com/gridlhq/flapjack/pkg/types"
)

// facetCache is the shared (tenant, filter-hash, sort-hash,
// facet-request-hash) cache from spec §4.1. Eviction is strict
// insertion-order FIFO — "evict when the cache reaches capacity, drop
// oldest-inserted" — not access-order LRU, so this is a small
// hand-rolled map rather than golang-lru, whose Cache always promotes
// an entry on Get (see DESIGN.md; tasks.go uses golang-lru for the
// per-tenant task cap but never calls Get on it, so no promotion
// happens there either).
type facetCache struct {
	mu      sync.Mutex
	cap     int
	order   []string
	entries map[string]types.SearchResult
}

func newFacetCache(capacity int) *facetCache {
	if capacity <= 0 {
		capacity = defaultFacetCacheCap
	}
	return &facetCache{cap: capacity, entries: make(map[string]types.SearchResult)}
}

func (c *facetCache) get(key string) (types.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[key]
	if ok {
		metrics.FacetCacheHits.Inc()
	} else {
		metrics.FacetCacheMisses.Inc()
	}
	return res, ok
}

func (c *facetCache) set(key string, res types.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		c.entries[key] = res
		return
	}
	if len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.order = append(c.order, key)
	c.entries[key] = res
}

// invalidateTenant drops every cached entry belonging to tenant,
// called on every successful write and on every settings/rule/synonym
// file mutation (spec §4.1's cache-invalidation algorithm).
func (c *facetCache) invalidateTenant(tenant string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := tenant + ":"
	kept := c.order[:0]
	for _, k := range c.order {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
}
