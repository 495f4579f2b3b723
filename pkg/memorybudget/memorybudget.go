// Package memorybudget implements fleet-wide admission control for
// write ingestion (§4.5): a bounded semaphore of concurrent writers, a
// per-writer buffer-size ceiling, a per-document size ceiling, and a
// MemoryObserver that derives a pressure level from heap usage against
// a discovered system memory limit.
package memorybudget

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pbnjay/memory"

	"github.com/gridlhq/flapjack/pkg/log"
	"github.com/gridlhq/flapjack/pkg/metrics"
	"github.com/gridlhq/flapjack/pkg/types"
)

const (
	defaultMaxConcurrentWriters = 4
	defaultBufferSizeCeiling    = 20 * 1024 * 1024
	defaultDocumentSizeCeiling  = 3 * 1024 * 1024
	defaultAcquireTimeout       = 2 * time.Second

	defaultHighWatermarkPct = 80
	defaultCriticalPct      = 90
)

// Config overrides the budget's defaults; zero values fall back to the
// package defaults.
type Config struct {
	MaxConcurrentWriters int
	BufferSizeCeiling     int64
	DocumentSizeCeiling   int64
	BatchDocCeiling       int
	AcquireTimeout        time.Duration
}

// MemoryBudget is the write-admission gate shared by every tenant's
// writer. A single instance is shared across tenants (§5, "Global
// memory budget: a single semaphore governs writer admission").
type MemoryBudget struct {
	sem               chan struct{}
	bufferSizeCeiling int64
	docSizeCeiling    int64
	batchDocCeiling   int
	acquireTimeout    time.Duration
}

// New builds a MemoryBudget from cfg, applying defaults for zero fields.
func New(cfg Config) *MemoryBudget {
	maxWriters := cfg.MaxConcurrentWriters
	if maxWriters <= 0 {
		maxWriters = defaultMaxConcurrentWriters
	}
	bufCeiling := cfg.BufferSizeCeiling
	if bufCeiling <= 0 {
		bufCeiling = defaultBufferSizeCeiling
	}
	docCeiling := cfg.DocumentSizeCeiling
	if docCeiling <= 0 {
		docCeiling = defaultDocumentSizeCeiling
	}
	timeout := cfg.AcquireTimeout
	if timeout <= 0 {
		timeout = defaultAcquireTimeout
	}

	return &MemoryBudget{
		sem:               make(chan struct{}, maxWriters),
		bufferSizeCeiling: bufCeiling,
		docSizeCeiling:    docCeiling,
		batchDocCeiling:   cfg.BatchDocCeiling,
		acquireTimeout:    timeout,
	}
}

// ValidateBufferSize fails with BufferSizeExceeded when n is more than
// twice the buffer ceiling and accepts any smaller n; it does not clamp
// n or return an adjusted size.
func (b *MemoryBudget) ValidateBufferSize(n int64) error {
	if n > b.bufferSizeCeiling*2 {
		return types.NewError(types.ErrBufferSizeExceeded, "write buffer exceeds ceiling")
	}
	return nil
}

// ValidateDocumentSize rejects documents at or above the per-document
// ceiling.
func (b *MemoryBudget) ValidateDocumentSize(n int64) error {
	if n >= b.docSizeCeiling {
		return types.NewError(types.ErrDocumentTooLarge, "document exceeds per-document size ceiling")
	}
	return nil
}

// ValidateBatchSize rejects a batch whose document count exceeds the
// configured ceiling. A zero ceiling means no limit is configured.
func (b *MemoryBudget) ValidateBatchSize(n int) error {
	if b.batchDocCeiling > 0 && n > b.batchDocCeiling {
		return types.NewError(types.ErrBatchTooLarge, "batch exceeds document count ceiling")
	}
	return nil
}

// AcquireWriter blocks for up to the configured acquire timeout trying
// to take a writer slot, failing with TooManyConcurrentWrites if none
// frees up in time.
func (b *MemoryBudget) AcquireWriter(ctx context.Context) (release func(), err error) {
	ctx, cancel := context.WithTimeout(ctx, b.acquireTimeout)
	defer cancel()

	select {
	case b.sem <- struct{}{}:
		metrics.ActiveWriters.Inc()
		return func() {
			<-b.sem
			metrics.ActiveWriters.Dec()
		}, nil
	case <-ctx.Done():
		metrics.WritesRejected.WithLabelValues("too_many_concurrent_writes").Inc()
		return nil, types.NewError(types.ErrTooManyConcurrentW, "no writer slot available")
	}
}

// PressureLevel is the admission-control signal derived from process
// heap usage vs the discovered memory limit.
type PressureLevel int

const (
	Normal PressureLevel = iota
	Elevated
	Critical
)

func (p PressureLevel) String() string {
	switch p {
	case Elevated:
		return "elevated"
	case Critical:
		return "critical"
	default:
		return "normal"
	}
}

// Stats is a snapshot of memory metrics suitable for a health endpoint.
type Stats struct {
	HeapAllocatedBytes uint64
	SystemLimitBytes    uint64
	LimitSource         string
	Level               PressureLevel
	HighWatermarkPct    int
	CriticalPct         int
}

// MemoryObserver reads heap-allocated bytes and derives a pressure
// level against a discovered system memory limit (§4.5). One instance
// is shared process-wide.
type MemoryObserver struct {
	highWatermarkPct int
	criticalPct      int
	limitBytes       uint64
	limitSource      string

	// overrideLevel supports deterministic tests: 0 = no override.
	overrideLevel atomic.Int32
}

// NewObserver builds an observer reading FLAPJACK_MEMORY_HIGH_WATERMARK
// / FLAPJACK_MEMORY_CRITICAL env overrides (falling back to 80/90) and
// discovering the system memory limit per the order in §4.5: explicit
// env override, cgroup v2 memory.max, total system memory.
func NewObserver() *MemoryObserver {
	high := envInt("FLAPJACK_MEMORY_HIGH_WATERMARK", defaultHighWatermarkPct)
	critical := envInt("FLAPJACK_MEMORY_CRITICAL", defaultCriticalPct)

	limit, source := detectMemoryLimit()

	return &MemoryObserver{
		highWatermarkPct: high,
		criticalPct:      critical,
		limitBytes:       limit,
		limitSource:      source,
	}
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// detectMemoryLimit implements the limit-discovery order from §4.5:
// explicit environment override, then cgroup-v2 memory.max, then total
// system memory via pbnjay/memory.
func detectMemoryLimit() (uint64, string) {
	if v := os.Getenv("FLAPJACK_MEMORY_LIMIT_MB"); v != "" {
		if mb, err := strconv.ParseUint(v, 10, 64); err == nil {
			return mb * 1024 * 1024, "env"
		}
	}

	if data, err := os.ReadFile("/sys/fs/cgroup/memory.max"); err == nil {
		trimmed := strings.TrimSpace(string(data))
		if trimmed != "max" {
			if bytes, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
				return bytes, "cgroup"
			}
		}
	}

	if total := memory.TotalMemory(); total > 0 {
		return total, "sysinfo"
	}

	return 0, "unknown"
}

// heapAllocatedBytes reads the Go runtime's current heap allocation.
// Unlike the jemalloc-backed original this always uses runtime
// MemStats — no pack dependency wraps per-allocator heap stats, so
// runtime.ReadMemStats is the justified standard-library fallback here
// (see DESIGN.md).
func heapAllocatedBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// Level returns the current pressure level, honoring any test override
// set via SetLevelOverride.
func (o *MemoryObserver) Level() PressureLevel {
	if ov := o.overrideLevel.Load(); ov != 0 {
		return PressureLevel(ov - 1)
	}

	limit := o.effectiveLimit()
	if limit == 0 {
		return Normal
	}

	allocated := heapAllocatedBytes()
	usagePct := int(allocated * 100 / limit)

	var level PressureLevel
	switch {
	case usagePct >= o.criticalPct:
		level = Critical
	case usagePct >= o.highWatermarkPct:
		level = Elevated
	default:
		level = Normal
	}
	metrics.MemoryPressureLevel.Set(float64(level))
	return level
}

func (o *MemoryObserver) effectiveLimit() uint64 {
	if v := os.Getenv("FLAPJACK_MEMORY_LIMIT_MB"); v != "" {
		if mb, err := strconv.ParseUint(v, 10, 64); err == nil {
			return mb * 1024 * 1024
		}
	}
	return o.limitBytes
}

// SetLevelOverride forces Level() to return the given level, or clears
// the override when passed nil. For deterministic tests only.
func (o *MemoryObserver) SetLevelOverride(level *PressureLevel) {
	if level == nil {
		o.overrideLevel.Store(0)
		return
	}
	o.overrideLevel.Store(int32(*level) + 1)
}

// Stats returns a snapshot of all memory metrics for a health endpoint.
func (o *MemoryObserver) Stats() Stats {
	return Stats{
		HeapAllocatedBytes: heapAllocatedBytes(),
		SystemLimitBytes:   o.effectiveLimit(),
		LimitSource:        o.limitSource,
		Level:              o.Level(),
		HighWatermarkPct:   o.highWatermarkPct,
		CriticalPct:        o.criticalPct,
	}
}

// CheckWriteAdmission returns MemoryPressure when the observer reports
// Elevated or Critical; reads are always permitted regardless of level.
func (o *MemoryObserver) CheckWriteAdmission() error {
	switch o.Level() {
	case Elevated, Critical:
		metrics.WritesRejected.WithLabelValues("memory_pressure").Inc()
		return types.NewError(types.ErrMemoryPressure, "memory pressure elevated, rejecting writes")
	default:
		return nil
	}
}

// IsReady reports whether the observer's current level permits the
// process to pass a readiness check. Critical pressure fails readiness
// in addition to rejecting writes (§4.5, §7).
func (o *MemoryObserver) IsReady() bool {
	return o.Level() != Critical
}

// LogLevelChange logs a transition between pressure levels; callers
// invoke it from a polling loop that samples Level() periodically.
func (o *MemoryObserver) LogLevelChange(prev, next PressureLevel) {
	if prev == next {
		return
	}
	log.WithComponent("memorybudget").Warn().
		Str("from", prev.String()).
		Str("to", next.String()).
		Msg("memory pressure level changed")
}
