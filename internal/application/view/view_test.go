package view

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
)

var march1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func batchOn(day time.Time, source string) *model.ParsedBatch {
	return &model.ParsedBatch{
		Source:       source,
		Activities:   []model.Activity{{ID: source, StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour)}},
		CoveredRange: model.DateRange{Start: day, End: day},
	}
}

func TestCommitDiscardsStaleGenerations(t *testing.T) {
	v := New(time.UTC, 15)
	var discarded int
	v.OnDiscard(func(*model.ParsedBatch) { discarded++ })

	older := v.Begin()
	newer := v.Begin()

	b2 := batchOn(march1, "newer")
	b2.Generation = newer
	assert.True(t, v.Commit(b2))

	b1 := batchOn(march1, "older")
	b1.Generation = older
	assert.False(t, v.Commit(b1))
	assert.Equal(t, "newer", v.Batch().Source)

	// a repeated commit of the same generation is stale as well
	assert.False(t, v.Commit(b2))
	assert.Equal(t, 2, discarded)
	assert.False(t, v.Commit(nil))
}

func TestCommitOlderThanStartedLoad(t *testing.T) {
	v := New(time.UTC, 15)
	gen := v.Begin()
	v.Begin() // a newer load is in flight

	b := batchOn(march1, "slow")
	b.Generation = gen
	assert.False(t, v.Commit(b))
	assert.Nil(t, v.Batch())
}

func TestCommitMovesViewportToBatchDay(t *testing.T) {
	v := New(time.UTC, 30)
	var committed []string
	v.OnCommit(func(b *model.ParsedBatch) { committed = append(committed, b.Source) })

	b := batchOn(march1, "a")
	b.Generation = v.Begin()
	require.True(t, v.Commit(b))
	assert.Equal(t, march1, v.Viewport().DayStart)
	assert.Equal(t, 30.0, v.Viewport().MinWidth)

	v.SetRange(540, 60)
	// same day keeps the zoom
	b = batchOn(march1, "b")
	b.Generation = v.Begin()
	require.True(t, v.Commit(b))
	assert.Equal(t, 540.0, v.Viewport().StartMinute)

	// another day resets it
	next := march1.AddDate(0, 0, 1)
	b = batchOn(next, "c")
	b.Generation = v.Begin()
	require.True(t, v.Commit(b))
	assert.Equal(t, next, v.Viewport().DayStart)
	assert.Equal(t, float64(window.MinutesPerDay), v.Viewport().WidthMinutes)
	assert.Equal(t, []string{"a", "b", "c"}, committed)
}

func TestViewportOperations(t *testing.T) {
	v := New(time.UTC, 15)
	v.SetDay(march1.Add(13 * time.Hour))
	assert.Equal(t, march1, v.Viewport().DayStart)

	vp := v.Zoom(0.5, 720)
	assert.Equal(t, 720.0, vp.WidthMinutes)
	assert.Equal(t, 360.0, vp.StartMinute)

	vp = v.Pan(10000)
	assert.Equal(t, 720.0, vp.StartMinute)

	vp = v.SetRange(-50, 5)
	assert.Equal(t, 0.0, vp.StartMinute)
	assert.Equal(t, 15.0, vp.WidthMinutes)
	assert.Equal(t, time.UTC, v.Location())
}

func TestLoaderLoad(t *testing.T) {
	v := New(time.UTC, 15)
	l := NewLoader(v)
	assert.Same(t, v, l.View())

	batch, err := l.Load(context.Background(), func(context.Context) (*model.ParsedBatch, error) {
		return batchOn(march1, "file.csv"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), batch.Generation)
	assert.False(t, batch.LoadedAt.IsZero())
	assert.Same(t, batch, v.Batch())

	_, err = l.Load(context.Background(), func(context.Context) (*model.ParsedBatch, error) {
		return nil, errors.New("disk on fire")
	})
	assert.EqualError(t, err, "disk on fire")
	assert.Same(t, batch, v.Batch())
}

func TestLoaderSupersedesSlowLoad(t *testing.T) {
	v := New(time.UTC, 15)
	l := NewLoader(v)

	started := make(chan struct{})
	var cancelled atomic.Bool
	slowDone := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), func(ctx context.Context) (*model.ParsedBatch, error) {
			close(started)
			<-ctx.Done()
			cancelled.Store(true)
			return batchOn(march1, "slow"), nil
		})
		slowDone <- err
	}()
	<-started

	fast, err := l.Load(context.Background(), func(context.Context) (*model.ParsedBatch, error) {
		return batchOn(march1, "fast"), nil
	})
	require.NoError(t, err)

	select {
	case err := <-slowDone:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("slow load was not cancelled")
	}
	assert.True(t, cancelled.Load())
	assert.Same(t, fast, v.Batch())
}

func TestLoaderNewestConcurrentLoadWins(t *testing.T) {
	const loads = 16
	v := New(time.UTC, 15)
	l := NewLoader(v)

	entered := make(chan struct{}, loads)
	release := make(chan struct{})
	results := make(chan error, loads)
	for i := 0; i < loads; i++ {
		go func() {
			_, err := l.Load(context.Background(), func(ctx context.Context) (*model.ParsedBatch, error) {
				entered <- struct{}{}
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-release:
					return batchOn(march1, "load"), nil
				}
			})
			results <- err
		}()
	}
	for i := 0; i < loads; i++ {
		<-entered
	}
	close(release)

	var ok int
	for i := 0; i < loads; i++ {
		err := <-results
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrSuperseded)
	}
	assert.Equal(t, 1, ok)
	require.NotNil(t, v.Batch())
	assert.Equal(t, v.Latest(), v.Batch().Generation)
}
