package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-activity-timeline/internal/data/parser"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// FileScanner finds activity export files under a directory.
type FileScanner struct {
	baseDir    string
	extensions map[string]bool
}

// NewFileScanner creates a scanner for baseDir. Without extensions it looks
// for every format the parser reads.
func NewFileScanner(baseDir string, extensions ...string) *FileScanner {
	if len(extensions) == 0 {
		extensions = parser.SupportedExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	return &FileScanner{baseDir: baseDir, extensions: exts}
}

// Scan walks the directory and returns matching files in lexical order.
// Hidden directories are skipped and unreadable entries are ignored.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebugf("Start scanning directory: %s", s.baseDir)

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebugf("Skip file (error): %s - %v", path, err)
			return nil
		}

		if info.IsDir() {
			if path != s.baseDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			dirCount++
			return nil
		}

		totalCount++
		if s.extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	util.LogDebugf("File scan completed: duration %v, scanned %d directories, %d files, found %d activity files",
		time.Since(start), dirCount, totalCount, len(files))

	return files, err
}
