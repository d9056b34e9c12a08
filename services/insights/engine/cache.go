package engine

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
)

// bound on retained invalidation records; a writer whose snapshot predates the
// oldest retained record can no longer prove its result fresh and is refused
const maxTrackedInvalidations = 256

// resultCache memoizes aggregation results with an LRU discipline. Lookup is an
// exact key match; a narrower or wider query is always a miss. Ingestion
// notifications drop every entry whose metrics and range intersect the new
// samples, so a cached aggregate is never served once newer data exists for its
// window. Every invalidation is also recorded under a monotonic sequence: put
// takes the sequence snapshotted before the scans and refuses results that a
// later invalidation has already outdated, closing the miss-then-put race.
type resultCache struct {
	capacity        int
	mut             sync.Mutex
	entries         map[string]*cacheEntry
	lru             *list.List
	hits            uint64
	misses          uint64
	invalidationSeq uint64
	invalidations   []rangeInvalidation
}

type cacheEntry struct {
	key        string
	result     SeriesResult
	metrics    map[string]struct{}
	rangeStart int64
	rangeEnd   int64
	version    uint64
	element    *list.Element
}

type rangeInvalidation struct {
	seq    uint64
	metric string
	minTs  int64
	maxTs  int64
}

func newResultCache(capacity int) *resultCache {
	return &resultCache{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry),
		lru:      list.New(),
	}
}

// cacheKey builds the deterministic key (sortedMetricIds, rangeStart, rangeEnd, resolution).
// The definitions slice is already in canonical lexicographic order after resolve.
func cacheKey(definitions []MetricDefinition, start int64, end int64, width int64) string {
	ids := make([]string, 0, len(definitions))
	for _, definition := range definitions {
		ids = append(ids, definition.ID)
	}

	return fmt.Sprintf("%s|%d|%d|%d", strings.Join(ids, ","), start, end, width)
}

// get returns the cached result for the key and refreshes its recency
func (rc *resultCache) get(key string) (SeriesResult, bool) {
	rc.mut.Lock()
	defer rc.mut.Unlock()

	entry, exists := rc.entries[key]
	if !exists {
		rc.misses++
		return nil, false
	}

	rc.hits++
	rc.lru.MoveToFront(entry.element)

	return entry.result, true
}

// snapshot returns the invalidation sequence current at call time. A writer
// snapshots it before scanning so put can tell whether an ingestion outdated
// the result while it was being computed.
func (rc *resultCache) snapshot() uint64 {
	rc.mut.Lock()
	defer rc.mut.Unlock()

	return rc.invalidationSeq
}

// put stores a result, evicting the least-recently-read entry when full. It
// returns false without storing when an invalidation recorded after the given
// snapshot already touched the result's metrics inside its range.
func (rc *resultCache) put(key string, result SeriesResult, rangeStart int64, rangeEnd int64, version uint64, snapshot uint64) bool {
	rc.mut.Lock()
	defer rc.mut.Unlock()

	if rc.outdatedSince(snapshot, result, rangeStart, rangeEnd) {
		return false
	}

	if entry, exists := rc.entries[key]; exists {
		entry.result = result
		entry.version = version
		rc.lru.MoveToFront(entry.element)
		return true
	}

	metrics := make(map[string]struct{}, len(result))
	for metric := range result {
		metrics[metric] = struct{}{}
	}

	entry := &cacheEntry{
		key:        key,
		result:     result,
		metrics:    metrics,
		rangeStart: rangeStart,
		rangeEnd:   rangeEnd,
		version:    version,
	}
	entry.element = rc.lru.PushFront(entry)
	rc.entries[key] = entry

	if rc.lru.Len() > rc.capacity {
		oldest := rc.lru.Back()
		if oldest != nil {
			rc.removeEntry(oldest.Value.(*cacheEntry).key)
		}
	}

	return true
}

// outdatedSince reports whether an invalidation recorded after the snapshot
// touched any of the result's metrics inside [rangeStart, rangeEnd). Must be
// called with the mutex held. A snapshot older than the oldest retained record
// can no longer be checked and is treated as outdated.
func (rc *resultCache) outdatedSince(snapshot uint64, result SeriesResult, rangeStart int64, rangeEnd int64) bool {
	if snapshot == rc.invalidationSeq {
		return false
	}
	if len(rc.invalidations) == 0 || rc.invalidations[0].seq > snapshot+1 {
		return true
	}

	for _, inv := range rc.invalidations {
		if inv.seq <= snapshot {
			continue
		}
		if inv.minTs >= rangeEnd || inv.maxTs < rangeStart {
			continue
		}
		if _, tracked := result[inv.metric]; tracked {
			return true
		}
	}

	return false
}

// invalidateRange records the ingestion and drops every entry containing the
// metric whose [rangeStart, rangeEnd) intersects [minTs, maxTs]
func (rc *resultCache) invalidateRange(metric string, minTs int64, maxTs int64) {
	rc.mut.Lock()
	defer rc.mut.Unlock()

	rc.invalidationSeq++
	rc.invalidations = append(rc.invalidations, rangeInvalidation{
		seq:    rc.invalidationSeq,
		metric: metric,
		minTs:  minTs,
		maxTs:  maxTs,
	})
	if len(rc.invalidations) > maxTrackedInvalidations {
		rc.invalidations = rc.invalidations[1:]
	}

	for key, entry := range rc.entries {
		if entry.rangeStart > maxTs || minTs >= entry.rangeEnd {
			continue
		}
		if _, tracked := entry.metrics[metric]; tracked {
			rc.removeEntry(key)
		}
	}
}

// removeEntry must be called with the mutex held
func (rc *resultCache) removeEntry(key string) {
	entry, exists := rc.entries[key]
	if !exists {
		return
	}

	rc.lru.Remove(entry.element)
	delete(rc.entries, key)
}

// CacheStats contains result-cache counters
type CacheStats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
}

func (rc *resultCache) stats() CacheStats {
	rc.mut.Lock()
	defer rc.mut.Unlock()

	return CacheStats{
		Size:     len(rc.entries),
		Capacity: rc.capacity,
		Hits:     rc.hits,
		Misses:   rc.misses,
	}
}
