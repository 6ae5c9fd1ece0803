package analyzer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/data/cache"
	"github.com/penwyp/go-activity-timeline/internal/data/normalizer"
	"github.com/penwyp/go-activity-timeline/internal/data/parser"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

var (
	// ErrNoFiles is returned when a directory holds no supported export.
	ErrNoFiles = errors.New("no activity files found")
	// ErrNoRemote is returned by LoadRemote without an API URL.
	ErrNoRemote = errors.New("no activity API configured")
)

// LoadFiles reads, normalizes and merges files. Valid cache entries are used
// in place of parsing. A file that fails is logged and skipped; the load
// fails only when no file produced a batch.
func (a *Analyzer) LoadFiles(files []string) (*model.ParsedBatch, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	tz := a.location.String()
	stats := NewCacheStats()

	batches := make(map[string]*model.ParsedBatch, len(files))
	var filesToParse []string
	missReasons := make(map[string]cache.CacheMissReason)

	validateStart := time.Now()
	if a.cache != nil {
		valid := a.cache.BatchValidate(files, tz)
		for _, file := range files {
			v := valid[file]
			if !v.Valid {
				filesToParse = append(filesToParse, file)
				missReasons[file] = v.MissReason
				continue
			}
			if r := a.cache.Get(file, tz); r.Found && r.Entry != nil && r.Entry.Batch != nil {
				stats.IncrementTotal()
				stats.IncrementHit()
				batches[file] = r.Entry.Batch
				continue
			}
			filesToParse = append(filesToParse, file)
			missReasons[file] = cache.MissReasonNotFound
		}
	} else {
		filesToParse = files
	}
	util.LogDebugf("Cache validation duration: %v, %d hits, %d to parse",
		time.Since(validateStart), len(batches), len(filesToParse))

	var lastErr error
	if len(filesToParse) > 0 {
		for _, f := range filesToParse {
			a.parser.Forget(f)
		}
		parseStart := time.Now()
		processed := int64(len(batches))
		for result := range a.parser.ParseFiles(filesToParse) {
			stats.IncrementTotal()
			processed++

			if result.Error != nil {
				stats.IncrementFailure()
				lastErr = result.Error
				util.LogWarnf("Failed to parse file %s: %v", result.File, result.Error)
				continue
			}

			batch, err := a.normalizer.NormalizeTable(result.Table, result.File)
			if err != nil {
				stats.IncrementFailure()
				lastErr = fmt.Errorf("%s: %w", result.File, err)
				util.LogWarnf("Failed to normalize file %s: %v", result.File, err)
				continue
			}
			stats.IncrementMiss(result.File, missReasons[result.File])
			batches[result.File] = batch

			if a.cache != nil {
				if err := a.cache.Set(result.File, tz, batch); err != nil {
					util.LogWarnf("Failed to save cache for %s: %v", result.File, err)
				}
			}
			if processed%100 == 0 {
				stats.PrintProgress(processed)
			}
		}
		util.LogDebugf("File parse duration: %v", time.Since(parseStart))
	}
	stats.PrintFinalStats()
	a.setStats(stats)

	if len(batches) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrNoFiles
	}

	ordered := make([]*model.ParsedBatch, 0, len(batches))
	for _, file := range files {
		if b, ok := batches[file]; ok {
			ordered = append(ordered, b)
		}
	}
	return MergeBatches(ordered...), nil
}

// LoadDir scans dir for supported exports and loads them.
func (a *Analyzer) LoadDir(dir string) (*model.ParsedBatch, error) {
	scanStart := time.Now()
	files, err := a.newScanner(dir).Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	util.LogDebugf("File scan duration: %v, found %d files", time.Since(scanStart), len(files))
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	util.LogInfof("Found %d activity files", len(files))
	return a.LoadFiles(files)
}

// LoadBytes normalizes an in-memory upload. name selects the format by
// extension, falling back to sniffing the content.
func (a *Analyzer) LoadBytes(data []byte, name string) (*model.ParsedBatch, error) {
	format, ok := parser.FormatForPath(name)
	if !ok {
		format = parser.SniffFormat(data)
	}
	table, err := parser.Parse(data, format)
	if err != nil {
		return nil, err
	}
	return a.normalizer.NormalizeTable(table, filepath.Base(name))
}

// LoadRemote fetches one user's day from the activity API.
func (a *Analyzer) LoadRemote(ctx context.Context, user string, day time.Time) (*model.ParsedBatch, error) {
	if a.fetcher == nil {
		return nil, ErrNoRemote
	}
	fetchStart := time.Now()
	records, err := a.fetcher.Fetch(ctx, user, day)
	if err != nil {
		return nil, err
	}
	util.LogDebugf("Fetched %d records for %s in %v", len(records), user, time.Since(fetchStart))
	return a.normalizer.NormalizeRecords(records, user, "api:"+user+"@"+day.Format(util.DateLayout))
}

// MergeBatches combines batches into one sorted batch. Warnings keep the
// source they came from.
func MergeBatches(batches ...*model.ParsedBatch) *model.ParsedBatch {
	if len(batches) == 1 && batches[0] != nil {
		cp := *batches[0]
		return &cp
	}
	merged := &model.ParsedBatch{Activities: make([]model.Activity, 0)}
	var sources []string
	for _, b := range batches {
		if b == nil {
			continue
		}
		merged.Activities = append(merged.Activities, b.Activities...)
		merged.TotalRowsSeen += b.TotalRowsSeen
		merged.RowsKept += b.RowsKept
		for _, w := range b.Warnings {
			if w.Source == "" {
				w.Source = b.Source
			}
			merged.Warnings = append(merged.Warnings, w)
		}
		if merged.CoveredRange.Start.IsZero() || b.CoveredRange.Start.Before(merged.CoveredRange.Start) {
			merged.CoveredRange.Start = b.CoveredRange.Start
		}
		if b.CoveredRange.End.After(merged.CoveredRange.End) {
			merged.CoveredRange.End = b.CoveredRange.End
		}
		if b.LoadedAt.After(merged.LoadedAt) {
			merged.LoadedAt = b.LoadedAt
		}
		sources = append(sources, b.Source)
	}

	sort.SliceStable(merged.Activities, func(i, j int) bool {
		return merged.Activities[i].StartTime.Before(merged.Activities[j].StartTime)
	})
	switch len(sources) {
	case 0:
	case 1:
		merged.Source = sources[0]
	default:
		merged.Source = fmt.Sprintf("%s (+%d more)", sources[0], len(sources)-1)
	}
	return merged
}

// IsInputError reports whether err is a problem with the data itself rather
// than with reading it.
func IsInputError(err error) bool {
	var schema *normalizer.SchemaError
	var empty *normalizer.EmptyResultError
	return errors.As(err, &schema) || errors.As(err, &empty) || errors.Is(err, ErrNoFiles)
}
