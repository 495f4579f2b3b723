package manager

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/gridlhq/flapjack/pkg/types"
)

// taskRegistry is the process-wide task table from spec §4.1: task ids
// share one namespace across every tenant, but each tenant enforces
// its own LRU cap (newTenantTaskLRU) on how many of its tasks stay
// resident here.
type taskRegistry struct {
	mu   sync.RWMutex
	byID map[string]*types.Task
	done map[string]chan struct{}
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{
		byID: make(map[string]*types.Task),
		done: make(map[string]chan struct{}),
	}
}

// create registers a freshly enqueued task and opens its completion
// channel for AddDocumentsSync/DeleteDocumentsSync to block on.
func (r *taskRegistry) create(t *types.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.ID] = t
	r.done[t.ID] = make(chan struct{})
}

func (r *taskRegistry) get(id string) (types.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return types.Task{}, false
	}
	return *t, true
}

func (r *taskRegistry) update(id string, fn func(*types.Task)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byID[id]; ok {
		fn(t)
	}
}

// finish closes a task's completion channel, waking any waiter,
// without removing the task itself — get_task still works afterward.
func (r *taskRegistry) finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.done[id]; ok {
		close(ch)
		delete(r.done, id)
	}
}

// waitCh returns the channel to block on for id's completion, or
// !ok if the task is unknown or has already finished.
func (r *taskRegistry) waitCh(id string) (chan struct{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.done[id]
	return ch, ok
}

// remove drops a task entirely. Called by a per-tenant LRU's eviction
// callback once that tenant has more than its cap of tasks, and by
// AddDocuments/DeleteDocumentsSync when a task's op cannot be queued.
func (r *taskRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	if ch, ok := r.done[id]; ok {
		close(ch)
		delete(r.done, id)
	}
}

// newTenantTaskLRU builds the per-tenant insertion cap from spec
// §4.1's "per-tenant LRU cap of 1000". Task ids are only ever Added to
// this cache (GetTask reads the registry map, never the cache), so no
// entry is promoted and eviction follows insertion order. The facet
// cache needs the same pure insertion-order eviction and is hand-rolled
// instead of reusing golang-lru there.
func newTenantTaskLRU(capacity int, registry *taskRegistry) *lru.Cache {
	if capacity <= 0 {
		capacity = defaultTaskLRUCap
	}
	c, err := lru.NewWithEvict(capacity, func(key, _ interface{}) {
		registry.remove(key.(string))
	})
	if err != nil {
		panic(err)
	}
	return c
}
