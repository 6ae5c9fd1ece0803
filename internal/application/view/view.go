// Package view holds the batch currently on display and the viewport over
// it. Loads are stamped with a generation so a slow load can never replace
// the result of a newer one.
package view

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// View is safe for concurrent use.
type View struct {
	started  atomic.Uint64 // last generation handed out by Begin
	location *time.Location
	minWidth float64

	mu        sync.RWMutex
	batch     *model.ParsedBatch
	viewport  window.Viewport
	onCommit  []func(*model.ParsedBatch)
	onDiscard []func(*model.ParsedBatch)
}

// New returns an empty view. Day boundaries are drawn in loc.
func New(loc *time.Location, minWidthMinutes float64) *View {
	if loc == nil {
		loc = time.Local
	}
	v := &View{location: loc, minWidth: minWidthMinutes}
	v.viewport = window.NewViewport(window.StartOfDay(time.Now(), loc), minWidthMinutes)
	return v
}

// OnCommit registers fn to run after a batch is accepted.
func (v *View) OnCommit(fn func(*model.ParsedBatch)) {
	v.mu.Lock()
	v.onCommit = append(v.onCommit, fn)
	v.mu.Unlock()
}

// OnDiscard registers fn to run when a stale batch is dropped.
func (v *View) OnDiscard(fn func(*model.ParsedBatch)) {
	v.mu.Lock()
	v.onDiscard = append(v.onDiscard, fn)
	v.mu.Unlock()
}

// Begin hands out the generation for a new load.
func (v *View) Begin() uint64 {
	return v.started.Add(1)
}

// Latest returns the newest generation handed out so far.
func (v *View) Latest() uint64 {
	return v.started.Load()
}

// Commit installs batch unless a newer load has started since batch's
// generation was handed out. It reports whether batch was accepted.
func (v *View) Commit(batch *model.ParsedBatch) bool {
	if batch == nil {
		return false
	}

	v.mu.Lock()
	stale := batch.Generation < v.started.Load() ||
		(v.batch != nil && batch.Generation <= v.batch.Generation)
	if stale {
		listeners := v.onDiscard
		v.mu.Unlock()
		util.LogDebugf("Discard batch generation %d from %s, latest is %d",
			batch.Generation, batch.Source, v.started.Load())
		for _, fn := range listeners {
			fn(batch)
		}
		return false
	}

	previousDay := v.viewport.DayStart
	v.batch = batch
	if day := v.dayOf(batch); !day.Equal(previousDay) {
		v.viewport = window.NewViewport(day, v.minWidth)
	}
	listeners := v.onCommit
	v.mu.Unlock()

	util.LogDebugf("Commit batch generation %d from %s: %d activities",
		batch.Generation, batch.Source, len(batch.Activities))
	for _, fn := range listeners {
		fn(batch)
	}
	return true
}

// dayOf picks the first covered day of batch, or today when it is empty.
func (v *View) dayOf(batch *model.ParsedBatch) time.Time {
	if batch.CoveredRange.Start.IsZero() {
		return window.StartOfDay(time.Now(), v.location)
	}
	return window.StartOfDay(batch.CoveredRange.Start, v.location)
}

// Batch returns the committed batch, or nil before the first commit.
func (v *View) Batch() *model.ParsedBatch {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.batch
}

// Location returns the zone day boundaries are drawn in.
func (v *View) Location() *time.Location {
	return v.location
}

// Viewport returns the current viewport.
func (v *View) Viewport() window.Viewport {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.viewport
}

// SetDay moves the viewport to another day and shows all of it.
func (v *View) SetDay(day time.Time) window.Viewport {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.viewport = window.NewViewport(window.StartOfDay(day, v.location), v.minWidth)
	return v.viewport
}

// SetRange shows [startMinute, startMinute+widthMinutes) of the current day.
func (v *View) SetRange(startMinute, widthMinutes float64) window.Viewport {
	return v.update(func(vp window.Viewport) window.Viewport {
		vp.StartMinute = startMinute
		vp.WidthMinutes = widthMinutes
		return vp.Clamp()
	})
}

// Zoom scales the viewport around anchorMinute.
func (v *View) Zoom(factor, anchorMinute float64) window.Viewport {
	return v.update(func(vp window.Viewport) window.Viewport {
		return vp.Zoom(factor, anchorMinute)
	})
}

// Pan scrolls the viewport by delta minutes.
func (v *View) Pan(delta float64) window.Viewport {
	return v.update(func(vp window.Viewport) window.Viewport {
		return vp.Pan(delta)
	})
}

func (v *View) update(fn func(window.Viewport) window.Viewport) window.Viewport {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.viewport = fn(v.viewport)
	return v.viewport
}
