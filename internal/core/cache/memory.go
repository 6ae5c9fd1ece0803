// Package cache memoizes results derived from a committed batch.
package cache

import (
	"sync"
	"time"

	"github.com/penwyp/go-activity-timeline/internal/util"
)

// DefaultMaxEntries bounds a MemoryCache created with a non-positive size.
const DefaultMaxEntries = 256

type memoryEntry[V any] struct {
	value        V
	lastAccessed int64
}

// MemoryCache holds values computed from one batch generation. Advancing to
// a newer generation drops every entry, and values offered for an older
// generation are never stored.
type MemoryCache[V any] struct {
	mu         sync.Mutex
	generation uint64
	entries    map[string]*memoryEntry[V]
	maxEntries int
}

func NewMemoryCache[V any](maxEntries int) *MemoryCache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryCache[V]{
		entries:    make(map[string]*memoryEntry[V]),
		maxEntries: maxEntries,
	}
}

// Advance moves the cache to generation and reports whether it moved.
func (mc *MemoryCache[V]) Advance(generation uint64) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.advanceLocked(generation)
}

func (mc *MemoryCache[V]) advanceLocked(generation uint64) bool {
	if generation <= mc.generation {
		return false
	}
	if len(mc.entries) > 0 {
		util.LogDebugf("MemoryCache: dropping %d entries of generation %d", len(mc.entries), mc.generation)
	}
	mc.generation = generation
	mc.entries = make(map[string]*memoryEntry[V])
	return true
}

// Generation returns the generation entries belong to.
func (mc *MemoryCache[V]) Generation() uint64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.generation
}

func (mc *MemoryCache[V]) Get(generation uint64, key string) (V, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var zero V
	if generation != mc.generation {
		return zero, false
	}
	entry, ok := mc.entries[key]
	if !ok {
		return zero, false
	}
	entry.lastAccessed = time.Now().UnixNano()
	return entry.value, true
}

// Set stores value unless generation is older than the cache. A newer
// generation advances the cache first.
func (mc *MemoryCache[V]) Set(generation uint64, key string, value V) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if generation < mc.generation {
		return
	}
	mc.advanceLocked(generation)

	if _, ok := mc.entries[key]; !ok && len(mc.entries) >= mc.maxEntries {
		mc.evictLocked()
	}
	mc.entries[key] = &memoryEntry[V]{value: value, lastAccessed: time.Now().UnixNano()}
}

// evictLocked drops the least recently accessed entry.
func (mc *MemoryCache[V]) evictLocked() {
	var oldestKey string
	var oldest int64
	for key, entry := range mc.entries {
		if oldestKey == "" || entry.lastAccessed < oldest {
			oldestKey, oldest = key, entry.lastAccessed
		}
	}
	delete(mc.entries, oldestKey)
}

// GetOrCompute returns the cached value of key or stores the result of fn.
// Errors are not cached. hit reports whether fn was skipped.
func (mc *MemoryCache[V]) GetOrCompute(generation uint64, key string, fn func() (V, error)) (value V, hit bool, err error) {
	if v, ok := mc.Get(generation, key); ok {
		return v, true, nil
	}
	value, err = fn()
	if err != nil {
		return value, false, err
	}
	mc.Set(generation, key, value)
	return value, false, nil
}

func (mc *MemoryCache[V]) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.entries)
}
