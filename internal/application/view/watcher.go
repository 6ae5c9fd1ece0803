package view

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 300 * time.Millisecond

// FileWatcher reports changes to activity files. Directories are watched
// rather than files so editors that replace a file on save are still seen.
type FileWatcher struct {
	watcher    *fsnotify.Watcher
	files      map[string]bool // explicit files; empty means any match
	extensions map[string]bool
	events     chan model.FileEvent
}

// NewFileWatcher watches paths. A directory is watched recursively; a file
// is watched through its parent directory.
func NewFileWatcher(paths []string, extensions []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:    watcher,
		files:      make(map[string]bool),
		extensions: make(map[string]bool, len(extensions)),
		events:     make(chan model.FileEvent, 100),
	}
	for _, ext := range extensions {
		fw.extensions[strings.ToLower(ext)] = true
	}

	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()
	return fw, nil
}

func (fw *FileWatcher) addPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		fw.files[abs] = true
		return fw.watcher.Add(filepath.Dir(abs))
	}

	return filepath.Walk(abs, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if p != abs && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return fw.watcher.Add(p)
		}
		return nil
	})
}

func (fw *FileWatcher) relevant(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if len(fw.files) > 0 {
		return fw.files[abs]
	}
	return fw.extensions[strings.ToLower(filepath.Ext(abs))]
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod || !fw.relevant(event.Name) {
				continue
			}
			fw.events <- model.FileEvent{
				Path:      event.Name,
				Operation: event.Op.String(),
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// Events returns raw, undebounced events.
func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

// Run calls onChange with the distinct paths changed during each quiet
// period of debounce. It returns when ctx is done or the watcher closes.
func (fw *FileWatcher) Run(ctx context.Context, debounce time.Duration, onChange func(paths []string)) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-fw.events:
			if !ok {
				timer.Stop()
				return
			}
			util.LogDebugf("File event %s %s", ev.Operation, ev.Path)
			pending[ev.Path] = true
			timer.Reset(debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]bool)
			onChange(paths)
		}
	}
}

func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
