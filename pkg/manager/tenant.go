package manager

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/bytedance/sonic"

	"github.com/gridlhq/flapjack/pkg/docindex"
	"github.com/gridlhq/flapjack/pkg/oplog"
	"github.com/gridlhq/flapjack/pkg/rules"
	"github.com/gridlhq/flapjack/pkg/synonyms"
	"github.com/gridlhq/flapjack/pkg/types"
)

const (
	rulesFileName    = "rules.json"
	synonymsFileName = "synonyms.json"
	settingsFileName = "settings.json"
)

// tenantState is one tenant's loaded-record, per spec §4.1's state
// list: the inverted-index handle, a single-consumer write channel to
// its writer goroutine, its oplog handle, its settings/synonym/rule
// stores, and a pending-task counter. The facet-result cache is shared
// across tenants and lives on Manager instead, per spec.
type tenantState struct {
	name string
	dir  string

	index    *docindex.TenantIndex
	log      *oplog.OpLog
	rules    *rules.Store
	synonyms *synonyms.Store

	settingsMu sync.RWMutex
	settings   types.Settings

	queue  chan writeOp
	stopCh chan struct{}
	done   chan struct{}

	pending atomic.Int64

	taskLRU *lru.Cache

	healthMu sync.Mutex
	healthy  bool
}

func tenantDir(dataDir, name string) string {
	return filepath.Join(dataDir, name)
}

// validateTenantName rejects names that could escape dataDir or
// collide with reserved path components — spec §4.1's only documented
// create_tenant failure is "InvalidQuery (unsafe name)".
func validateTenantName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return types.NewError(types.ErrInvalidQuery, "unsafe tenant name")
	}
	return nil
}

// loadTenant opens or creates every on-disk piece of a tenant's state
// under dataDir/<name>: the bleve index, the oplog, and (if present)
// rules.json/synonyms.json/settings.json, defaulting each to empty
// when absent so a brand-new tenant starts from a clean slate.
func loadTenant(dataDir, nodeID, name string, taskLRUCap int, registry *taskRegistry) (*tenantState, error) {
	dir := tenantDir(dataDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.WrapError(types.ErrIo, "create tenant directory", err)
	}

	idx, err := docindex.Open(dataDir, name)
	if err != nil {
		return nil, err
	}

	ol, err := oplog.Open(filepath.Join(dir, "oplog"), name, nodeID)
	if err != nil {
		return nil, err
	}

	ruleStore, err := loadOrEmptyRules(filepath.Join(dir, rulesFileName))
	if err != nil {
		return nil, err
	}
	synStore, err := loadOrEmptySynonyms(filepath.Join(dir, synonymsFileName))
	if err != nil {
		return nil, err
	}
	settings, err := loadOrDefaultSettings(filepath.Join(dir, settingsFileName))
	if err != nil {
		return nil, err
	}

	ts := &tenantState{
		name:     name,
		dir:      dir,
		index:    idx,
		log:      ol,
		rules:    ruleStore,
		synonyms: synStore,
		settings: settings,
		queue:    make(chan writeOp, defaultQueueCap),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		healthy:  true,
	}
	ts.taskLRU = newTenantTaskLRU(taskLRUCap, registry)
	return ts, nil
}

func loadOrEmptyRules(path string) (*rules.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return rules.NewStore(), nil
	}
	return rules.Load(path)
}

func loadOrEmptySynonyms(path string) (*synonyms.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return synonyms.NewStore(), nil
	}
	return synonyms.Load(path)
}

func loadOrDefaultSettings(path string) (types.Settings, error) {
	if _, err := os.Stat(path); err != nil {
		return types.DefaultSettings(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Settings{}, types.WrapError(types.ErrIo, "read settings file", err)
	}
	var s types.Settings
	if err := sonic.Unmarshal(content, &s); err != nil {
		return types.Settings{}, types.WrapError(types.ErrJson, "parse settings file", err)
	}
	return s, nil
}

func (ts *tenantState) rulesPath() string    { return filepath.Join(ts.dir, rulesFileName) }
func (ts *tenantState) synonymsPath() string { return filepath.Join(ts.dir, synonymsFileName) }

func (ts *tenantState) settingsSnapshot() types.Settings {
	ts.settingsMu.RLock()
	defer ts.settingsMu.RUnlock()
	return ts.settings
}

func (ts *tenantState) setSettings(s types.Settings) {
	ts.settingsMu.Lock()
	defer ts.settingsMu.Unlock()
	ts.settings = s
}

func (ts *tenantState) saveSettings() error {
	content, err := sonic.Marshal(ts.settingsSnapshot())
	if err != nil {
		return types.WrapError(types.ErrJson, "marshal settings", err)
	}
	if err := os.WriteFile(filepath.Join(ts.dir, settingsFileName), content, 0o644); err != nil {
		return types.WrapError(types.ErrIo, "write settings file", err)
	}
	return nil
}

func (ts *tenantState) markUnhealthy() {
	ts.healthMu.Lock()
	defer ts.healthMu.Unlock()
	ts.healthy = false
}

func (ts *tenantState) isHealthy() bool {
	ts.healthMu.Lock()
	defer ts.healthMu.Unlock()
	return ts.healthy
}

func (ts *tenantState) close() error {
	var firstErr error
	if err := ts.index.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := ts.log.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
