package metrics

import "time"

// managerView is the slice of *manager.Manager the collector actually
// needs. Declared locally instead of importing pkg/manager directly so
// this package (which pkg/manager itself imports for per-event metric
// updates) never forms an import cycle with it.
type managerView interface {
	ListTenants() []string
	DocCount(tenant string) (uint64, error)
	QueueDepth(tenant string) int
	TenantHealthy(tenant string) bool
	MemoryReady() bool
}

// Collector periodically refreshes the gauges that aren't naturally
// updated on the write/read hot path — tenant count and per-tenant
// document counts — the same periodic-poll shape the teacher's
// collector used for node/service/raft gauges, narrowed here to the
// handful of manager-wide figures worth polling instead of updating
// inline.
type Collector struct {
	manager managerView
	stopCh  chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(mgr managerView) *Collector {
	return &Collector{
		manager: mgr,
		stopCh:  make(chan struct{}),
	}
}

// Start begins collecting metrics on a fixed interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	tenants := c.manager.ListTenants()
	TenantsTotal.Set(float64(len(tenants)))

	unhealthy := 0
	for _, tenant := range tenants {
		if n, err := c.manager.DocCount(tenant); err == nil {
			DocumentsTotal.WithLabelValues(tenant).Set(float64(n))
		}
		QueueDepth.WithLabelValues(tenant).Set(float64(c.manager.QueueDepth(tenant)))
		if !c.manager.TenantHealthy(tenant) {
			unhealthy++
		}
	}

	if unhealthy > 0 {
		RegisterComponent("oplog", false, "write-queue worker panicked for at least one tenant")
	} else {
		RegisterComponent("oplog", true, "")
	}

	if c.manager.MemoryReady() {
		RegisterComponent("memory", true, "")
	} else {
		RegisterComponent("memory", false, "memory pressure critical")
	}
}
