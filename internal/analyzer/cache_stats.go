package analyzer

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/penwyp/go-activity-timeline/internal/data/cache"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// CacheStats counts how a file load was served.
type CacheStats struct {
	totalFiles  int64
	cacheHits   int64
	cacheMisses int64
	failures    int64
	mu          sync.Mutex
	missDetails []MissDetail
}

// MissDetail records one file that had to be parsed.
type MissDetail struct {
	FilePath string
	Reason   cache.CacheMissReason
}

// StatsSnapshot is a point-in-time copy of CacheStats.
type StatsSnapshot struct {
	Files       int64          `json:"files"`
	Hits        int64          `json:"hits"`
	Misses      int64          `json:"misses"`
	Failures    int64          `json:"failures"`
	HitRate     float64        `json:"hitRate"` // percent
	MissReasons map[string]int `json:"missReasons,omitempty"`
}

func NewCacheStats() *CacheStats {
	return &CacheStats{
		missDetails: make([]MissDetail, 0),
	}
}

func (cs *CacheStats) IncrementTotal() {
	atomic.AddInt64(&cs.totalFiles, 1)
}

func (cs *CacheStats) IncrementHit() {
	atomic.AddInt64(&cs.cacheHits, 1)
}

// IncrementMiss counts a parsed file and remembers why the cache missed.
func (cs *CacheStats) IncrementMiss(filePath string, reason cache.CacheMissReason) {
	atomic.AddInt64(&cs.cacheMisses, 1)

	cs.mu.Lock()
	cs.missDetails = append(cs.missDetails, MissDetail{
		FilePath: filePath,
		Reason:   reason,
	})
	cs.mu.Unlock()
}

func (cs *CacheStats) IncrementFailure() {
	atomic.AddInt64(&cs.failures, 1)
}

// GetStats returns the counters and the hit rate in percent.
func (cs *CacheStats) GetStats() (total, hits, misses, failures int64, hitRate float64) {
	total = atomic.LoadInt64(&cs.totalFiles)
	hits = atomic.LoadInt64(&cs.cacheHits)
	misses = atomic.LoadInt64(&cs.cacheMisses)
	failures = atomic.LoadInt64(&cs.failures)

	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

func (cs *CacheStats) reasonCounts() map[string]int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	counts := make(map[string]int)
	for _, d := range cs.missDetails {
		counts[d.Reason.String()]++
	}
	return counts
}

// Snapshot copies the current counters.
func (cs *CacheStats) Snapshot() StatsSnapshot {
	total, hits, misses, failures, hitRate := cs.GetStats()
	s := StatsSnapshot{Files: total, Hits: hits, Misses: misses, Failures: failures, HitRate: hitRate}
	if misses > 0 {
		s.MissReasons = cs.reasonCounts()
	}
	return s
}

// PrintProgress logs how far a load has got.
func (cs *CacheStats) PrintProgress(processed int64) {
	total, hits, misses, failures, hitRate := cs.GetStats()
	util.LogInfof("File load progress: processed %d/%d files, cache hit rate: %.1f%% (%d hits/%d misses/%d failures)",
		processed, total, hitRate, hits, misses, failures)
}

// PrintFinalStats logs the totals and a summary of miss reasons.
func (cs *CacheStats) PrintFinalStats() {
	total, hits, misses, failures, hitRate := cs.GetStats()
	util.LogInfof("Cache statistics complete: total files %d, hit rate %.1f%% (%d hits/%d misses/%d failures)",
		total, hitRate, hits, misses, failures)

	if misses == 0 {
		return
	}
	counts := cs.reasonCounts()
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		util.LogDebugf("  cache miss %s: %d files", r, counts[r])
	}
}
