package manager

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/gridlhq/flapjack/pkg/events"
	"github.com/gridlhq/flapjack/pkg/log"
	"github.com/gridlhq/flapjack/pkg/memorybudget"
	"github.com/gridlhq/flapjack/pkg/metrics"
	"github.com/gridlhq/flapjack/pkg/replication"
	"github.com/gridlhq/flapjack/pkg/storage"
	"github.com/gridlhq/flapjack/pkg/types"
)

// Manager is the IndexManager (spec §4.1): it multiplexes every
// operation by tenant and serializes writes within each tenant through
// a single-consumer queue and writer goroutine. External callers only
// ever hold a *Manager — it exclusively owns every tenant's index,
// oplog, and settings/rule/synonym stores, per the ownership rule in
// spec §3 ("the IndexManager exclusively owns all per-tenant state").
type Manager struct {
	cfg Config

	mu      sync.RWMutex
	tenants map[string]*tenantState

	tasks  *taskRegistry
	facets *facetCache

	budget   *memorybudget.MemoryBudget
	observer *memorybudget.MemoryObserver

	broker  *events.Broker
	cursors storage.CursorStore
	repl    *replication.Manager
}

// NewManager builds a Manager rooted at cfg.DataDir, opening (or
// creating) the bbolt-backed replication cursor store and wiring the
// memory budget, event broker, and replication fanout every tenant
// shares, then reloads any tenant directories already on disk. It
// mirrors the teacher's NewManager shape — one constructor assembling
// every subsystem up front — without the Raft/CA/DNS machinery that
// shape used to carry.
func NewManager(cfg Config) (*Manager, error) {
	cfg = cfg.withDefaults()

	broker := cfg.Broker
	if broker == nil {
		broker = events.NewBroker()
	}
	broker.Start()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, types.WrapError(types.ErrIo, "create data directory", err)
	}

	cursors, err := storage.NewBoltCursorStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      cfg,
		tenants:  make(map[string]*tenantState),
		tasks:    newTaskRegistry(),
		facets:   newFacetCache(cfg.FacetCacheCap),
		budget:   memorybudget.New(cfg.Budget),
		observer: memorybudget.NewObserver(),
		broker:   broker,
		cursors:  cursors,
		repl:     replication.NewManager(cfg.Node, cursors, broker),
	}

	if err := m.loadExistingTenants(); err != nil {
		m.Shutdown()
		return nil, err
	}

	return m, nil
}

// loadExistingTenants re-opens every tenant directory already on disk
// so a restart resumes serving without an explicit create_tenant call
// per tenant.
func (m *Manager) loadExistingTenants() error {
	entries, err := os.ReadDir(m.cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return types.WrapError(types.ErrIo, "list data directory", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := m.startTenant(e.Name()); err != nil {
			log.WithTenant(e.Name()).Error().Err(err).Msg("failed to reload tenant at startup")
		}
	}
	return nil
}

// startTenant loads (or creates) a tenant's on-disk state and starts
// its write-queue worker goroutine.
func (m *Manager) startTenant(name string) error {
	ts, err := loadTenant(m.cfg.DataDir, m.cfg.Node.NodeID, name, m.cfg.TaskLRUCap, m.tasks)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.tenants[name] = ts
	m.mu.Unlock()
	go m.writerLoop(ts)
	metrics.TenantsTotal.Set(float64(m.tenantCount()))
	return nil
}

func (m *Manager) tenantCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tenants)
}

func (m *Manager) requireTenant(name string) (*tenantState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.tenants[name]
	if !ok {
		return nil, types.NewError(types.ErrTenantNotFound, fmt.Sprintf("tenant %q not found", name))
	}
	return ts, nil
}

// CreateTenant creates the tenant's directory tree (idempotent),
// registers it, and starts its write-queue worker (spec §4.1). For an
// existing tenant whose writer panicked, it closes the tenant and
// reloads it with a fresh worker. Errors: InvalidQuery for an unsafe
// name.
func (m *Manager) CreateTenant(name string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}

	m.mu.Lock()
	ts, exists := m.tenants[name]
	restart := exists && !ts.isHealthy()
	if restart {
		delete(m.tenants, name)
	}
	m.mu.Unlock()
	if exists && !restart {
		return nil
	}
	if restart {
		<-ts.done // the panicked writer has already returned
		if err := ts.close(); err != nil {
			return err
		}
	}

	if err := m.startTenant(name); err != nil {
		return err
	}
	if m.broker != nil {
		m.broker.Publish(&events.Event{Type: events.EventTenantCreated, Tenant: name})
	}
	return nil
}

// DeleteTenant awaits the writer draining, stops it, and removes the
// tenant's on-disk state. Errors: TenantNotFound.
func (m *Manager) DeleteTenant(name string) error {
	m.mu.Lock()
	ts, ok := m.tenants[name]
	if !ok {
		m.mu.Unlock()
		return types.NewError(types.ErrTenantNotFound, fmt.Sprintf("tenant %q not found", name))
	}
	delete(m.tenants, name)
	m.mu.Unlock()

	close(ts.stopCh)
	<-ts.done

	if err := ts.close(); err != nil {
		log.WithTenant(name).Warn().Err(err).Msg("error closing tenant state during delete")
	}
	m.facets.invalidateTenant(name)

	if err := os.RemoveAll(ts.dir); err != nil {
		return types.WrapError(types.ErrIo, "remove tenant directory", err)
	}
	metrics.TenantsTotal.Set(float64(m.tenantCount()))
	if m.broker != nil {
		m.broker.Publish(&events.Event{Type: events.EventTenantDeleted, Tenant: name})
	}
	return nil
}

// ListTenants returns every currently loaded tenant name.
func (m *Manager) ListTenants() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.tenants))
	for name := range m.tenants {
		out = append(out, name)
	}
	return out
}

// QueueDepth returns the number of ops currently pending in tenant's
// write queue, or 0 if the tenant is unknown.
func (m *Manager) QueueDepth(tenant string) int {
	m.mu.RLock()
	ts, ok := m.tenants[tenant]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return len(ts.queue)
}

// DocCount returns tenant's current document count.
func (m *Manager) DocCount(tenant string) (uint64, error) {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return 0, err
	}
	return ts.index.DocCount()
}

// TenantHealthy reports whether tenant's writer is healthy. Per spec
// §4.1, a panicking writer marks its tenant unhealthy until
// create_tenant is called again to restart it.
func (m *Manager) TenantHealthy(tenant string) bool {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return false
	}
	return ts.isHealthy()
}

// MemoryStats exposes the write-admission observer's current snapshot,
// for a process-wide readiness check independent of any one tenant.
func (m *Manager) MemoryStats() memorybudget.Stats {
	return m.observer.Stats()
}

// MemoryReady reports whether current memory pressure still permits
// the process to pass a readiness check (§4.5, §7).
func (m *Manager) MemoryReady() bool {
	return m.observer.IsReady()
}

func docSize(d types.Document) (int64, error) {
	b, err := sonic.Marshal(d.Fields)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

func (m *Manager) registerTenantTask(ts *tenantState, taskID string) {
	ts.taskLRU.Add(taskID, struct{}{})
}

// AddDocuments enqueues an upsert task and returns its id without
// waiting for the writer to process it — spec §4.1's non-blocking
// entry point. Errors: BatchTooLarge, DocumentTooLarge,
// BufferSizeExceeded, QueueFull, TenantNotFound, MemoryPressure.
func (m *Manager) AddDocuments(tenant string, docs []types.Document) (string, error) {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return "", err
	}

	if err := m.observer.CheckWriteAdmission(); err != nil {
		return "", err
	}
	if err := m.budget.ValidateBatchSize(len(docs)); err != nil {
		return "", err
	}

	var total int64
	for _, d := range docs {
		size, err := docSize(d)
		if err != nil {
			return "", types.WrapError(types.ErrJson, "measure document size", err)
		}
		if err := m.budget.ValidateDocumentSize(size); err != nil {
			return "", err
		}
		total += size
	}
	if err := m.budget.ValidateBufferSize(total); err != nil {
		return "", err
	}

	taskID := uuid.NewString()
	task := &types.Task{
		ID:            taskID,
		Tenant:        tenant,
		Status:        types.TaskEnqueued,
		ReceivedCount: len(docs),
		CreatedAt:     time.Now(),
	}
	m.tasks.create(task)
	m.registerTenantTask(ts, taskID)

	select {
	case ts.queue <- writeOp{kind: opUpsert, taskID: taskID, docs: docs}:
		metrics.QueueDepth.WithLabelValues(tenant).Set(float64(len(ts.queue)))
		return taskID, nil
	default:
		m.tasks.remove(taskID)
		return "", types.NewError(types.ErrQueueFull, "tenant write queue is full")
	}
}

func (m *Manager) awaitTask(id string) (types.Task, error) {
	if ch, ok := m.tasks.waitCh(id); ok {
		<-ch
	}
	task, ok := m.tasks.get(id)
	if !ok {
		return types.Task{}, types.NewError(types.ErrTaskNotFound, "task evicted before completion")
	}
	if task.Status == types.TaskFailed {
		return task, types.NewError(types.ErrIo, task.FailureMessage)
	}
	return task, nil
}

// AddDocumentsSync enqueues docs and blocks until the write-queue
// worker has processed them, returning the terminal task on success or
// the first failure (spec §4.1).
func (m *Manager) AddDocumentsSync(tenant string, docs []types.Document) (types.Task, error) {
	taskID, err := m.AddDocuments(tenant, docs)
	if err != nil {
		return types.Task{}, err
	}
	return m.awaitTask(taskID)
}

// DeleteDocumentsSync enqueues a delete task and blocks until it
// completes, mirroring AddDocumentsSync for deletes by id.
func (m *Manager) DeleteDocumentsSync(tenant string, ids []string) (types.Task, error) {
	ts, err := m.requireTenant(tenant)
	if err != nil {
		return types.Task{}, err
	}
	if err := m.observer.CheckWriteAdmission(); err != nil {
		return types.Task{}, err
	}

	taskID := uuid.NewString()
	task := &types.Task{
		ID:            taskID,
		Tenant:        tenant,
		Status:        types.TaskEnqueued,
		ReceivedCount: len(ids),
		CreatedAt:     time.Now(),
	}
	m.tasks.create(task)
	m.registerTenantTask(ts, taskID)

	select {
	case ts.queue <- writeOp{kind: opDelete, taskID: taskID, ids: ids}:
	default:
		m.tasks.remove(taskID)
		return types.Task{}, types.NewError(types.ErrQueueFull, "tenant write queue is full")
	}

	return m.awaitTask(taskID)
}

// GetTask returns a snapshot of a submitted task. Errors: TaskNotFound.
func (m *Manager) GetTask(id string) (types.Task, error) {
	t, ok := m.tasks.get(id)
	if !ok {
		return types.Task{}, types.NewError(types.ErrTaskNotFound, fmt.Sprintf("task %q not found", id))
	}
	return t, nil
}

// Shutdown stops every tenant's writer goroutine, closes every index
// and oplog, and tears down the shared broker and cursor store.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	tenants := make([]*tenantState, 0, len(m.tenants))
	for _, ts := range m.tenants {
		tenants = append(tenants, ts)
	}
	m.tenants = make(map[string]*tenantState)
	m.mu.Unlock()

	for _, ts := range tenants {
		close(ts.stopCh)
		<-ts.done
		if err := ts.close(); err != nil {
			log.WithTenant(ts.name).Warn().Err(err).Msg("error closing tenant during shutdown")
		}
	}

	if m.broker != nil {
		m.broker.Stop()
	}
	if m.cursors != nil {
		return m.cursors.Close()
	}
	return nil
}
