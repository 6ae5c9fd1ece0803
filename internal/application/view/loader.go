package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// ErrSuperseded is returned by Load when a newer load started before this
// one finished.
var ErrSuperseded = errors.New("load superseded by a newer one")

// LoadFunc produces a batch. ctx is cancelled once a newer load starts.
type LoadFunc func(ctx context.Context) (*model.ParsedBatch, error)

// Loader runs loads against a View, cancelling the one in flight whenever a
// new one starts.
type Loader struct {
	view *View

	mu        sync.Mutex
	cancel    context.CancelFunc
	cancelGen uint64
}

func NewLoader(v *View) *Loader {
	return &Loader{view: v}
}

// View returns the view loads are committed to.
func (l *Loader) View() *View {
	return l.view
}

// Load runs fn under a fresh generation and commits its batch.
func (l *Loader) Load(ctx context.Context, fn LoadFunc) (*model.ParsedBatch, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// generations are handed out under mu so the stored cancel always
	// belongs to the newest load
	l.mu.Lock()
	gen := l.view.Begin()
	if l.cancel != nil && l.cancelGen < gen {
		l.cancel()
	}
	l.cancel, l.cancelGen = cancel, gen
	l.mu.Unlock()

	start := time.Now()
	batch, err := fn(ctx)
	if err != nil {
		if gen < l.view.Latest() {
			return nil, ErrSuperseded
		}
		return nil, err
	}

	batch.Generation = gen
	if batch.LoadedAt.IsZero() {
		batch.LoadedAt = time.Now()
	}
	if !l.view.Commit(batch) {
		return nil, ErrSuperseded
	}
	util.LogInfof("Loaded %s in %v: %d rows seen, %d kept, %d warnings",
		batch.Source, time.Since(start), batch.TotalRowsSeen, batch.RowsKept, len(batch.Warnings))
	return batch, nil
}
