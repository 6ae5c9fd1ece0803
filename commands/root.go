package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-activity-timeline/internal/analyzer"
	"github.com/penwyp/go-activity-timeline/internal/config"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

var (
	// Logging related
	debug bool

	// Input
	dataDir  string
	user     string
	apiURL   string
	noCache  bool
	reset    bool
	cacheDir string

	// Output related
	outputFormat string
	timezone     string
	noColor      bool

	// Filtering and grouping
	date    string
	groupBy string
	limit   int

	rootCmd = &cobra.Command{
		Use:   "go-activity-timeline [files...] [flags]",
		Short: "Activity log timeline and summary tool",
		Long: `go-activity-timeline normalizes exported activity logs (CSV, JSON or JSONL),
merges overlapping intervals and reports where the time went.

Input is read from the files given as arguments, from a directory (--dir) or
from the activity API for a single user and day (--user, with
ACTIVITY_TIMELINE_API_URL set).

Examples:
  go-activity-timeline export.csv                         # Summary grouped by type
  go-activity-timeline --dir ./exports --group-by user    # Per user totals of a directory
  go-activity-timeline export.csv --date 2024-03-01 -o json
  go-activity-timeline --user alice --date 2024-03-01     # Fetch from the activity API
  go-activity-timeline timeline export.csv --start 09:00 --end 12:00
  go-activity-timeline hourly export.csv --date 2024-03-01
  go-activity-timeline serve --dir ./exports --watch`,
		Args: cobra.ArbitraryArgs,
		RunE: runSummary,
	}
)

const (
	defaultCacheDir = "~/.go-activity-timeline/cache"
)

func init() {
	// Input data configuration
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", "",
		"Directory scanned for activity exports")
	rootCmd.PersistentFlags().StringVar(&user, "user", "",
		"Fetch the activities of this user from the activity API")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "",
		"Activity API base URL (overrides ACTIVITY_TIMELINE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", defaultCacheDir,
		"Parsed file cache directory")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false,
		"Disable the parsed file cache")
	rootCmd.PersistentFlags().BoolVarP(&reset, "reset", "r", false,
		"Clear cache before analysis")

	// Time filtering
	rootCmd.PersistentFlags().StringVar(&date, "date", "",
		"Restrict to one day (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "",
		"Timezone for zone-less timestamps and day boundaries (e.g., UTC, Europe/Berlin)")

	// Data organization and analysis
	rootCmd.Flags().StringVar(&groupBy, "group-by", "type",
		"Group by field (type, user, app, domain)")
	rootCmd.Flags().IntVar(&limit, "limit", 0,
		"Limit result count (0 = unlimited)")

	// Output configuration
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	rootCmd.Flags().StringVar(&outputFormat, "format", "",
		"Alias for --output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable ANSI colors")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func runSummary(cmd *cobra.Command, args []string) error {
	// Handle format alias
	if format := cmd.Flags().Lookup("format"); format != nil && format.Changed {
		outputFormat = format.Value.String()
	}

	cfg, err := setup()
	if err != nil {
		return err
	}
	ac := analyzerConfig(cfg, args)
	ac.OutputFormat = outputFormat
	ac.GroupBy = groupBy
	ac.Limit = limit
	ac.Diagnostics = cmd.ErrOrStderr()

	a, err := analyzer.New(ac)
	if err != nil {
		return err
	}
	return a.Run(cmd.Context(), cmd.OutOrStdout())
}

// setup initializes logging and the time provider and reads the environment.
// Flags win over environment values.
func setup() (*config.Config, error) {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	logFile := util.DefaultLogFile()
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(logLevel, logFile, debug); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}
	if !debug && cfg.LogLevel != "" && cfg.LogLevel != logLevel {
		if err := util.InitLogger(cfg.LogLevel, logFile, false); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	if timezone != "" {
		cfg.Timezone = timezone
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if user != "" && !cfg.HasSource() {
		return nil, fmt.Errorf("--user needs an activity API: set ACTIVITY_TIMELINE_API_URL or --api-url")
	}
	if err := util.InitializeTimeProvider(cfg.Timezone); err != nil {
		return nil, err
	}
	return cfg, nil
}

// analyzerConfig maps flags and environment onto the analyzer. Files given
// as arguments win over --dir.
func analyzerConfig(cfg *config.Config, files []string) *analyzer.Config {
	expanded := make([]string, 0, len(files))
	for _, f := range files {
		expanded = append(expanded, expandPath(f))
	}

	ac := &analyzer.Config{
		Files:       expanded,
		NoCache:     noCache,
		Reset:       reset,
		Timezone:    cfg.Timezone,
		Date:        date,
		Concurrency: runtime.NumCPU(),
		APIURL:      cfg.APIURL,
		APIToken:    cfg.APIToken,
		APITimeout:  cfg.APITimeout,
		User:        user,
	}
	if dataDir != "" {
		ac.DataDir = expandPath(dataDir)
	}
	if !noCache && cacheDir != "" {
		ac.CacheDir = expandPath(cacheDir)
		if err := ensureDir(ac.CacheDir); err != nil {
			util.LogWarnf("Cache disabled: %v", err)
			ac.CacheDir = ""
		}
	}
	return ac
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
