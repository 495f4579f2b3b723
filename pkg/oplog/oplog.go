package oplog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gridlhq/flapjack/pkg/log"
	"github.com/gridlhq/flapjack/pkg/metrics"
	"github.com/gridlhq/flapjack/pkg/types"
)

// segmentMaxBytes is the rotation threshold (§4.6).
const segmentMaxBytes = 10 * 1024 * 1024

const segmentPrefix = "segment_"
const segmentSuffix = ".jsonl"

// activeSegment wraps the currently-appended-to file.
type activeSegment struct {
	file *os.File
	w    *bufio.Writer
	path string
	size int64
	id   int
}

// OpLog is one tenant's durable write-ahead log: a directory of rotating
// JSONL segment files plus an in-memory high-water sequence counter
// recovered from disk at open time.
type OpLog struct {
	dir      string
	tenantID string
	nodeID   string

	currentSeq atomic.Uint64

	mu  sync.Mutex
	seg *activeSegment
}

// Open scans dir for existing segments, recovers the highest seq seen in
// the last one, and opens that highest-numbered segment for appends
// (creating the first segment when there is none). dir is created if it
// does not exist.
func Open(dir, tenantID, nodeID string) (*OpLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, types.WrapError(types.ErrIo, "create oplog dir", err)
	}

	maxSeq, maxSegID, err := scanExisting(dir)
	if err != nil {
		return nil, err
	}

	nextSegID := maxSegID
	if nextSegID == 0 {
		nextSegID = 1
	}
	segPath := segmentPath(dir, nextSegID)

	var segSize int64
	if fi, err := os.Stat(segPath); err == nil {
		segSize = fi.Size()
	}

	f, err := os.OpenFile(segPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, types.WrapError(types.ErrIo, "open oplog segment", err)
	}

	ol := &OpLog{
		dir:      dir,
		tenantID: tenantID,
		nodeID:   nodeID,
		seg: &activeSegment{
			file: f,
			w:    bufio.NewWriter(f),
			path: segPath,
			size: segSize,
			id:   nextSegID,
		},
	}
	ol.currentSeq.Store(maxSeq)
	metrics.OplogHighWaterSeq.WithLabelValues(tenantID).Set(float64(maxSeq))

	return ol, nil
}

func segmentPath(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%04d%s", segmentPrefix, id, segmentSuffix))
}

func listSegments(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, types.WrapError(types.ErrIo, "list oplog segments", err)
	}
	var out []os.DirEntry
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func segmentID(name string) (int, bool) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, segmentPrefix), segmentSuffix)
	id, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return id, true
}

// scanExisting finds the highest segment id on disk and the highest seq
// recorded in that segment's last readable lines. A crashed appender may
// leave a partial final line, which is silently skipped.
func scanExisting(dir string) (maxSeq uint64, maxSegID int, err error) {
	entries, err := listSegments(dir)
	if err != nil {
		return 0, 0, err
	}

	for _, e := range entries {
		if id, ok := segmentID(e.Name()); ok && id > maxSegID {
			maxSegID = id
		}
	}
	if len(entries) == 0 {
		return 0, 0, nil
	}

	last := entries[len(entries)-1]
	f, err := os.Open(filepath.Join(dir, last.Name()))
	if err != nil {
		return 0, 0, types.WrapError(types.ErrIo, "open last oplog segment", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var entry types.OpLogEntry
		if err := sonic.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Seq > maxSeq {
			maxSeq = entry.Seq
		}
	}

	return maxSeq, maxSegID, nil
}

// CurrentSeq returns the highest sequence number appended so far.
func (o *OpLog) CurrentSeq() uint64 {
	return o.currentSeq.Load()
}

// Append writes one entry with the next sequence number and returns it.
func (o *OpLog) Append(opType types.OpType, payload []byte) (uint64, error) {
	start := time.Now()
	defer func() {
		metrics.OplogAppendDuration.Observe(time.Since(start).Seconds())
	}()

	seq := o.currentSeq.Add(1)
	entry := types.OpLogEntry{
		Seq:          seq,
		TimestampMs:  time.Now().UnixMilli(),
		OriginNodeID: o.nodeID,
		TenantID:     o.tenantID,
		OpType:       opType,
		Payload:      payload,
	}

	line, err := sonic.Marshal(&entry)
	if err != nil {
		return 0, types.WrapError(types.ErrJson, "marshal oplog entry", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.writeLineLocked(line); err != nil {
		return 0, err
	}
	metrics.OplogHighWaterSeq.WithLabelValues(o.tenantID).Set(float64(seq))

	if o.seg.size >= segmentMaxBytes {
		if err := o.rotateLocked(); err != nil {
			return 0, err
		}
	}

	return seq, nil
}

// Op is one pending (opType, payload) pair for AppendBatch.
type Op struct {
	OpType  types.OpType
	Payload []byte
}

// AppendBatch writes every op under a single lock hold, assigning
// consecutive sequence numbers, and returns the last seq assigned.
func (o *OpLog) AppendBatch(ops []Op) (uint64, error) {
	if len(ops) == 0 {
		return o.currentSeq.Load(), nil
	}

	start := time.Now()
	defer func() {
		metrics.OplogAppendDuration.Observe(time.Since(start).Seconds())
	}()

	now := time.Now().UnixMilli()

	o.mu.Lock()
	defer o.mu.Unlock()

	lastSeq := o.currentSeq.Load()
	for _, op := range ops {
		lastSeq++
		entry := types.OpLogEntry{
			Seq:          lastSeq,
			TimestampMs:  now,
			OriginNodeID: o.nodeID,
			TenantID:     o.tenantID,
			OpType:       op.OpType,
			Payload:      op.Payload,
		}
		line, err := sonic.Marshal(&entry)
		if err != nil {
			return 0, types.WrapError(types.ErrJson, "marshal oplog entry", err)
		}
		if err := o.writeLineLocked(line); err != nil {
			return 0, err
		}
	}
	if err := o.seg.w.Flush(); err != nil {
		return 0, types.WrapError(types.ErrIo, "flush oplog segment", err)
	}

	o.currentSeq.Store(lastSeq)
	metrics.OplogHighWaterSeq.WithLabelValues(o.tenantID).Set(float64(lastSeq))

	if o.seg.size >= segmentMaxBytes {
		if err := o.rotateLocked(); err != nil {
			return 0, err
		}
	}

	return lastSeq, nil
}

// writeLineLocked appends line plus a trailing newline to the active
// segment and flushes immediately, mirroring the original's per-append
// flush (durability over batching throughput for single appends).
func (o *OpLog) writeLineLocked(line []byte) error {
	if _, err := o.seg.w.Write(line); err != nil {
		return types.WrapError(types.ErrIo, "write oplog entry", err)
	}
	if _, err := o.seg.w.Write([]byte("\n")); err != nil {
		return types.WrapError(types.ErrIo, "write oplog entry", err)
	}
	if err := o.seg.w.Flush(); err != nil {
		return types.WrapError(types.ErrIo, "flush oplog segment", err)
	}
	o.seg.size += int64(len(line)) + 1
	return nil
}

// rotateLocked closes the active segment and opens the next one. Caller
// must hold o.mu.
func (o *OpLog) rotateLocked() error {
	if err := o.seg.w.Flush(); err != nil {
		return types.WrapError(types.ErrIo, "flush oplog segment before rotate", err)
	}
	if err := o.seg.file.Close(); err != nil {
		return types.WrapError(types.ErrIo, "close oplog segment", err)
	}

	newID := o.seg.id + 1
	newPath := segmentPath(o.dir, newID)
	f, err := os.OpenFile(newPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return types.WrapError(types.ErrIo, "open next oplog segment", err)
	}

	o.seg = &activeSegment{
		file: f,
		w:    bufio.NewWriter(f),
		path: newPath,
		size: 0,
		id:   newID,
	}

	metrics.OplogSegments.WithLabelValues(o.tenantID).Set(float64(newID))
	log.WithComponent("oplog").Info().
		Str("tenant", o.tenantID).
		Int("segment", newID).
		Msg("rotated oplog segment")

	return nil
}

// ReadSince returns every entry with seq strictly greater than sinceSeq,
// across all segments, sorted ascending. Unparseable lines (a crashed
// appender's partial final write) are skipped.
func (o *OpLog) ReadSince(sinceSeq uint64) ([]types.OpLogEntry, error) {
	o.mu.Lock()
	if err := o.seg.w.Flush(); err != nil {
		o.mu.Unlock()
		return nil, types.WrapError(types.ErrIo, "flush oplog segment before read", err)
	}
	o.mu.Unlock()

	entries, err := listSegments(o.dir)
	if err != nil {
		return nil, err
	}

	var results []types.OpLogEntry
	for _, e := range entries {
		lines, err := readEntries(filepath.Join(o.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, entry := range lines {
			if entry.Seq > sinceSeq {
				results = append(results, entry)
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Seq < results[j].Seq })
	return results, nil
}

func readEntries(path string) ([]types.OpLogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.WrapError(types.ErrIo, "open oplog segment", err)
	}
	defer f.Close()

	var out []types.OpLogEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var entry types.OpLogEntry
		if err := sonic.Unmarshal(line, &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// TruncateBefore removes every non-active segment whose highest seq is
// below beforeSeq, returning the number of segments removed. The active
// segment is never removed, matching the original's "never truncate the
// segment currently being appended to" invariant.
func (o *OpLog) TruncateBefore(beforeSeq uint64) (int, error) {
	o.mu.Lock()
	activeName := filepath.Base(o.seg.path)
	o.mu.Unlock()

	entries, err := listSegments(o.dir)
	if err != nil {
		return 0, err
	}

	var removed int
	for _, e := range entries {
		if e.Name() == activeName {
			continue
		}
		path := filepath.Join(o.dir, e.Name())
		lines, err := readEntries(path)
		if err != nil {
			return removed, err
		}

		var maxSeqInFile uint64
		for _, entry := range lines {
			if entry.Seq > maxSeqInFile {
				maxSeqInFile = entry.Seq
			}
		}

		if maxSeqInFile > 0 && maxSeqInFile < beforeSeq {
			if err := os.Remove(path); err != nil {
				return removed, types.WrapError(types.ErrIo, "remove truncated oplog segment", err)
			}
			removed++
		}
	}

	return removed, nil
}

// Close flushes and closes the active segment file.
func (o *OpLog) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.seg.w.Flush(); err != nil {
		return types.WrapError(types.ErrIo, "flush oplog segment on close", err)
	}
	return o.seg.file.Close()
}
