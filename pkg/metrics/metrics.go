package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tenant metrics
	TenantsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flapjack_tenants_total",
			Help: "Total number of tenants (indices) currently loaded",
		},
	)

	DocumentsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flapjack_documents_total",
			Help: "Total number of documents per tenant",
		},
		[]string{"tenant"},
	)

	// Write-queue / task metrics
	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flapjack_tasks_total",
			Help: "Total number of write tasks by status",
		},
		[]string{"status"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flapjack_write_queue_depth",
			Help: "Number of operations pending in a tenant's write queue",
		},
		[]string{"tenant"},
	)

	WriteBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flapjack_write_batch_duration_seconds",
			Help:    "Time taken to commit a coalesced write batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	DocumentsIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flapjack_documents_indexed_total",
			Help: "Total number of documents successfully indexed",
		},
		[]string{"tenant"},
	)

	DocumentsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flapjack_documents_rejected_total",
			Help: "Total number of documents rejected during conversion",
		},
		[]string{"tenant", "reason"},
	)

	// Query metrics
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flapjack_search_requests_total",
			Help: "Total number of search requests by tenant and outcome",
		},
		[]string{"tenant", "outcome"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flapjack_search_duration_seconds",
			Help:    "Search request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tenant"},
	)

	FacetCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flapjack_facet_cache_hits_total",
			Help: "Total number of facet-result cache hits",
		},
	)

	FacetCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flapjack_facet_cache_misses_total",
			Help: "Total number of facet-result cache misses",
		},
	)

	// OpLog metrics
	OplogAppendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flapjack_oplog_append_duration_seconds",
			Help:    "Time taken to append an entry to the oplog",
			Buckets: prometheus.DefBuckets,
		},
	)

	OplogSegments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flapjack_oplog_segments",
			Help: "Number of oplog segment files per tenant",
		},
		[]string{"tenant"},
	)

	OplogHighWaterSeq = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flapjack_oplog_high_water_seq",
			Help: "Highest sequence number appended per tenant",
		},
		[]string{"tenant"},
	)

	// Replication metrics
	ReplicationLag = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flapjack_replication_lag",
			Help: "Difference between local high-water seq and a peer's acked seq",
		},
		[]string{"tenant", "peer"},
	)

	ReplicationFanoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flapjack_replication_fanouts_total",
			Help: "Total number of replication fanout attempts by outcome",
		},
		[]string{"peer", "outcome"},
	)

	// Memory budget metrics
	MemoryPressureLevel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flapjack_memory_pressure_level",
			Help: "Current memory pressure level (0=Normal, 1=Elevated, 2=Critical)",
		},
	)

	ActiveWriters = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flapjack_active_writers",
			Help: "Number of writer slots currently held against the memory budget semaphore",
		},
	)

	WritesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flapjack_writes_rejected_total",
			Help: "Total number of writes rejected by admission control, by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(TenantsTotal)
	prometheus.MustRegister(DocumentsTotal)
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(WriteBatchDuration)
	prometheus.MustRegister(DocumentsIndexed)
	prometheus.MustRegister(DocumentsRejected)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(FacetCacheHits)
	prometheus.MustRegister(FacetCacheMisses)
	prometheus.MustRegister(OplogAppendDuration)
	prometheus.MustRegister(OplogSegments)
	prometheus.MustRegister(OplogHighWaterSeq)
	prometheus.MustRegister(ReplicationLag)
	prometheus.MustRegister(ReplicationFanoutsTotal)
	prometheus.MustRegister(MemoryPressureLevel)
	prometheus.MustRegister(ActiveWriters)
	prometheus.MustRegister(WritesRejected)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
