// Package analyzer loads activity exports and produces reports from them.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/data/cache"
	"github.com/penwyp/go-activity-timeline/internal/data/normalizer"
	"github.com/penwyp/go-activity-timeline/internal/data/parser"
	"github.com/penwyp/go-activity-timeline/internal/data/scanner"
	"github.com/penwyp/go-activity-timeline/internal/data/source"
	"github.com/penwyp/go-activity-timeline/internal/presentation/formatter"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

type Config struct {
	Files        []string // explicit inputs; DataDir is scanned when empty
	DataDir      string
	CacheDir     string
	NoCache      bool
	Reset        bool
	OutputFormat string
	Timezone     string
	Date         string // YYYY-MM-DD, today or yesterday; empty keeps every day
	GroupBy      string
	Limit        int
	Concurrency  int
	Diagnostics  io.Writer // receives the data quality line; nil disables it

	// Remote source, used when User is set
	APIURL     string
	APIToken   string
	APITimeout time.Duration
	User       string
}

type Analyzer struct {
	config     *Config
	location   *time.Location
	cache      cache.Cache
	parser     *parser.Parser
	normalizer *normalizer.Normalizer
	fetcher    source.Fetcher

	statsMu sync.RWMutex
	stats   *CacheStats
}

// Option customises an Analyzer.
type Option func(*Analyzer)

// WithFetcher replaces the HTTP client built from the config.
func WithFetcher(f source.Fetcher) Option {
	return func(a *Analyzer) { a.fetcher = f }
}

// WithCache replaces the on-disk cache.
func WithCache(c cache.Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

func New(config *Config, opts ...Option) (*Analyzer, error) {
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}

	loc, err := util.LoadTimezone(config.Timezone)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		config:     config,
		location:   loc,
		parser:     parser.NewParser(config.Concurrency),
		normalizer: normalizer.New(normalizer.WithLocation(loc)),
		stats:      NewCacheStats(),
	}

	if !config.NoCache && config.CacheDir != "" {
		fileCache, err := cache.NewFileCache(config.CacheDir)
		if err != nil {
			util.LogWarnf("Cache disabled: %v", err)
		} else {
			a.cache = fileCache
		}
	}
	if config.APIURL != "" {
		a.fetcher = source.NewClient(config.APIURL, config.APIToken, config.APITimeout)
	}

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Location returns the zone naive timestamps are read in.
func (a *Analyzer) Location() *time.Location {
	return a.location
}

// Stats returns the cache statistics of the last completed file load.
func (a *Analyzer) Stats() *CacheStats {
	a.statsMu.RLock()
	defer a.statsMu.RUnlock()
	return a.stats
}

func (a *Analyzer) setStats(stats *CacheStats) {
	a.statsMu.Lock()
	a.stats = stats
	a.statsMu.Unlock()
}

// Day resolves the configured date. The zero time means every day.
func (a *Analyzer) Day() (time.Time, error) {
	if a.config.Date == "" {
		return time.Time{}, nil
	}
	return util.NewTimeProvider(a.location).ParseDate(a.config.Date)
}

func (a *Analyzer) newScanner(dir string) *scanner.FileScanner {
	return scanner.NewFileScanner(dir)
}

// Load reads the configured source: the remote API when a user is set,
// otherwise the explicit files or the data directory.
func (a *Analyzer) Load(ctx context.Context) (*model.ParsedBatch, error) {
	if a.cache != nil {
		preloadStart := time.Now()
		if a.config.Reset {
			if err := a.cache.Clear(); err != nil {
				util.LogWarnf("Cache reset failed: %v", err)
			}
		} else if err := a.cache.Preload(); err != nil {
			util.LogWarnf("Cache preload failed: %v", err)
		}
		util.LogDebugf("Cache preload duration: %v", time.Since(preloadStart))
	}

	switch {
	case a.config.User != "":
		day, err := a.Day()
		if err != nil {
			return nil, err
		}
		if day.IsZero() {
			day = util.NewTimeProvider(a.location).StartOfDay(time.Now())
		}
		return a.LoadRemote(ctx, a.config.User, day)
	case len(a.config.Files) > 0:
		return a.LoadFiles(a.config.Files)
	case a.config.DataDir != "":
		return a.LoadDir(a.config.DataDir)
	default:
		return nil, errors.New("no input: pass files, a data directory or a user")
	}
}

// Summarize groups batch according to the config.
func (a *Analyzer) Summarize(batch *model.ParsedBatch) (*report.Summary, error) {
	day, err := a.Day()
	if err != nil {
		return nil, err
	}
	if a.config.GroupBy == "user" && !batch.HasUsernames() {
		util.LogWarnf("%s carries no usernames, every activity groups under %q", batch.Source, model.UnknownUser)
	}
	return report.BuildSummary(batch, report.Options{
		GroupBy:  a.config.GroupBy,
		Day:      day,
		Limit:    a.config.Limit,
		Location: a.location,
	})
}

// Run loads the source, summarizes it and writes the result to w.
func (a *Analyzer) Run(ctx context.Context, w io.Writer) error {
	startTime := time.Now()
	util.LogInfo("Starting activity analysis...")

	f, err := formatter.New(a.config.OutputFormat)
	if err != nil {
		return err
	}

	loadStart := time.Now()
	batch, err := a.Load(ctx)
	if err != nil {
		return err
	}
	util.LogDebugf("Phase 1 - Load duration: %v, %d activities from %s",
		time.Since(loadStart), len(batch.Activities), batch.Source)
	for _, warning := range batch.Warnings {
		util.LogDebugf("Row %d of %s: %s", warning.Row, warning.Source, warning.Reason)
	}
	if a.config.Diagnostics != nil {
		WriteQuality(a.config.Diagnostics, batch)
	}

	summaryStart := time.Now()
	summary, err := a.Summarize(batch)
	if err != nil {
		return err
	}
	util.LogDebugf("Phase 2 - Summary duration: %v, %d groups", time.Since(summaryStart), len(summary.Groups))

	outputStart := time.Now()
	if err := f.FormatSummary(w, summary); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	util.LogDebugf("Phase 3 - Output duration: %v", time.Since(outputStart))

	util.LogInfof("Analysis complete in %v", time.Since(startTime))
	return nil
}

// WriteQuality writes the one line rows seen versus kept report of batch.
func WriteQuality(w io.Writer, batch *model.ParsedBatch) {
	fatal := 0
	for _, warning := range batch.Warnings {
		if warning.Fatal {
			fatal++
		}
	}
	fmt.Fprintf(w, "%s: %d rows seen, %d kept, %d skipped, %d warnings\n",
		batch.Source, batch.TotalRowsSeen, batch.RowsKept, batch.RowsSkipped(), len(batch.Warnings)-fatal)
}
