// Package cache keeps normalized batches of input files on disk so unchanged
// exports are not parsed again.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
	MissReasonTimezone
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "error"
	case MissReasonInode:
		return "inode"
	case MissReasonSize:
		return "size"
	case MissReasonModTime:
		return "modtime"
	case MissReasonFingerprint:
		return "fingerprint"
	case MissReasonNoFingerprint:
		return "no_fingerprint"
	case MissReasonNotFound:
		return "not_found"
	case MissReasonTimezone:
		return "timezone"
	}
	return "unknown"
}

// Entry is one cached batch together with the identity of the file it was
// built from.
type Entry struct {
	FilePath           string             `json:"filePath"`
	Timezone           string             `json:"timezone"`
	Inode              uint64             `json:"inode"`
	FileSize           int64              `json:"fileSize"`
	LastModified       int64              `json:"lastModified"`
	ContentFingerprint string             `json:"contentFingerprint"`
	CachedAt           time.Time          `json:"cachedAt"`
	Batch              *model.ParsedBatch `json:"batch"`
}

type CacheResult struct {
	Entry      *Entry
	Found      bool
	MissReason CacheMissReason
}

type Cache interface {
	Get(path, timezone string) CacheResult
	Set(path, timezone string, batch *model.ParsedBatch) error
	Clear() error
	Preload() error
	BatchValidate(paths []string, timezone string) map[string]BatchValidateResult
}

type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*Entry
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*Entry),
	}, nil
}

// Key returns the cache key of a file read in a timezone. The same export
// read in another zone normalizes to different instants.
func Key(path, timezone string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha1.Sum([]byte(abs + "\x00" + timezone))
	return hex.EncodeToString(sum[:])
}

func (c *FileCache) entryPath(key string) string {
	return filepath.Join(c.baseDir, key+".json")
}

func (c *FileCache) Get(path, timezone string) CacheResult {
	key := Key(path, timezone)

	c.mu.RLock()
	memEntry, exists := c.memoryCache[key]
	c.mu.RUnlock()

	if exists {
		if ret := validateEntry(memEntry, timezone); ret.cached {
			return CacheResult{Entry: memEntry, Found: true, MissReason: MissReasonNone}
		}
		c.mu.Lock()
		delete(c.memoryCache, key)
		c.mu.Unlock()
	}

	return c.getFromFile(key, timezone)
}

func (c *FileCache) getFromFile(key, timezone string) CacheResult {
	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return CacheResult{MissReason: MissReasonNotFound}
	}

	var entry Entry
	if err := sonic.Unmarshal(data, &entry); err != nil || entry.Batch == nil {
		util.LogDebugf("Cache entry %s unreadable: %v", key, err)
		return CacheResult{MissReason: MissReasonError}
	}

	if ret := validateEntry(&entry, timezone); !ret.cached {
		return CacheResult{MissReason: ret.reason}
	}

	c.mu.Lock()
	c.memoryCache[key] = &entry
	c.mu.Unlock()

	return CacheResult{Entry: &entry, Found: true, MissReason: MissReasonNone}
}

type ValidateResult struct {
	cached bool
	reason CacheMissReason
}

func validateEntry(entry *Entry, timezone string) ValidateResult {
	if entry.Timezone != timezone {
		return ValidateResult{reason: MissReasonTimezone}
	}

	currentInfo, err := util.GetFileInfo(entry.FilePath)
	if err != nil {
		util.LogDebugf("Cache validation failed for %s: unable to get file info: %v", entry.FilePath, err)
		return ValidateResult{reason: MissReasonError}
	}

	if currentInfo.Inode != entry.Inode {
		util.LogDebugf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			entry.FilePath, entry.Inode, currentInfo.Inode)
		return ValidateResult{reason: MissReasonInode}
	}
	if currentInfo.Size != entry.FileSize {
		util.LogDebugf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			entry.FilePath, entry.FileSize, currentInfo.Size)
		return ValidateResult{reason: MissReasonSize}
	}
	if currentInfo.ModTime != entry.LastModified {
		util.LogDebugf("Cache invalidated for %s: modtime changed", entry.FilePath)
		return ValidateResult{reason: MissReasonModTime}
	}

	if entry.ContentFingerprint == "" {
		return ValidateResult{reason: MissReasonNoFingerprint}
	}
	fingerprint, err := util.CalculateFileFingerprint(entry.FilePath)
	if err != nil {
		util.LogDebugf("Cache invalidated for %s: unable to calculate fingerprint: %v", entry.FilePath, err)
		return ValidateResult{reason: MissReasonNoFingerprint}
	}
	if fingerprint != entry.ContentFingerprint {
		util.LogDebugf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			entry.FilePath, entry.ContentFingerprint, fingerprint)
		return ValidateResult{reason: MissReasonFingerprint}
	}
	return ValidateResult{cached: true, reason: MissReasonNone}
}

// Set stores batch as the normalized form of path in timezone.
func (c *FileCache) Set(path, timezone string, batch *model.ParsedBatch) error {
	if batch == nil {
		return fmt.Errorf("cache %s: nil batch", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fileInfo, err := util.GetFileInfo(abs)
	if err != nil {
		return err
	}
	fingerprint, err := util.CalculateFileFingerprint(abs)
	if err != nil {
		return err
	}

	entry := &Entry{
		FilePath:           abs,
		Timezone:           timezone,
		Inode:              fileInfo.Inode,
		FileSize:           fileInfo.Size,
		LastModified:       fileInfo.ModTime,
		ContentFingerprint: fingerprint,
		CachedAt:           time.Now(),
		Batch:              batch,
	}

	data, err := sonic.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	key := Key(abs, timezone)
	c.mu.Lock()
	defer c.mu.Unlock()

	// readers outside the lock only ever see a complete entry
	target := c.entryPath(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	c.memoryCache[key] = entry
	return nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*Entry)

	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".json" {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
		return nil
	})
}

// Preload reads every entry file into memory. Entries are validated on Get,
// not here.
func (c *FileCache) Preload() error {
	cacheFiles, err := c.entryFiles()
	if err != nil {
		return fmt.Errorf("failed to scan cache directory: %w", err)
	}
	if len(cacheFiles) == 0 {
		util.LogDebug("Cache directory is empty, skipping preload")
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(cacheFiles) {
		numWorkers = len(cacheFiles)
	}
	util.LogDebugf("Preloading %d cache files with %d workers", len(cacheFiles), numWorkers)

	filesChan := make(chan string, len(cacheFiles))
	resultsChan := make(chan preloadResult, len(cacheFiles))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go preloadWorker(filesChan, resultsChan, &wg)
	}
	for _, file := range cacheFiles {
		filesChan <- file
	}
	close(filesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	loaded, failed := 0, 0
	c.mu.Lock()
	for result := range resultsChan {
		if result.err != nil {
			failed++
			util.LogWarnf("Failed to preload cache file %s: %v", result.filePath, result.err)
			continue
		}
		c.memoryCache[result.key] = result.entry
		loaded++
	}
	c.mu.Unlock()

	util.LogDebugf("Cache preload complete: %d loaded, %d errors (total %d)", loaded, failed, len(cacheFiles))
	return nil
}

type preloadResult struct {
	filePath string
	key      string
	entry    *Entry
	err      error
}

func preloadWorker(filesChan <-chan string, resultsChan chan<- preloadResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for filePath := range filesChan {
		result := preloadResult{
			filePath: filePath,
			key:      strings.TrimSuffix(filepath.Base(filePath), ".json"),
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			result.err = err
			resultsChan <- result
			continue
		}

		var entry Entry
		if err := sonic.Unmarshal(data, &entry); err != nil {
			result.err = err
		} else if entry.Batch == nil {
			result.err = fmt.Errorf("entry has no batch")
		} else {
			result.entry = &entry
		}
		resultsChan <- result
	}
}

func (c *FileCache) entryFiles() ([]string, error) {
	var files []string
	err := filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	c.mu.RLock()
	memoryCount = len(c.memoryCache)
	c.mu.RUnlock()

	files, _ := c.entryFiles()
	return memoryCount, len(files)
}

type BatchValidateResult struct {
	Valid      bool
	MissReason CacheMissReason
}

// BatchValidate reports, per path, whether a valid entry exists.
func (c *FileCache) BatchValidate(paths []string, timezone string) map[string]BatchValidateResult {
	result := make(map[string]BatchValidateResult, len(paths))
	validCount := 0
	for _, path := range paths {
		r := c.Get(path, timezone)
		result[path] = BatchValidateResult{Valid: r.Found, MissReason: r.MissReason}
		if r.Found {
			validCount++
		}
	}

	util.LogDebugf("Batch validation complete: %d files, %d valid", len(paths), validCount)
	return result
}
