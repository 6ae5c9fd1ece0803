package report

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
)

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

func act(id string, typ model.ActivityType, user string, start, end time.Time, weight int) model.Activity {
	return model.Activity{
		ID: id, Type: typ, Title: id, Username: user,
		StartTime: start, EndTime: end, DurationMinutes: weight,
	}
}

func sampleBatch() *model.ParsedBatch {
	acts := []model.Activity{
		act("a", model.TypeWebPage, "alice", at(9, 0), at(10, 0), 60),
		act("b", model.TypeApplication, "alice", at(9, 30), at(10, 0), 30),
		act("c", model.TypeIdle, "alice", at(10, 0), at(10, 20), 20),
		act("d", model.TypeApplication, "bob", at(11, 0), at(11, 30), 30),
	}
	return &model.ParsedBatch{
		Activities:    acts,
		TotalRowsSeen: 5,
		RowsKept:      4,
		Source:        "sample.csv",
	}
}

func TestBuildSummary(t *testing.T) {
	s, err := BuildSummary(sampleBatch(), Options{GroupBy: "type"})
	require.NoError(t, err)

	assert.Equal(t, "type", s.GroupBy)
	assert.Equal(t, 4, s.ActivityCount)
	assert.InDelta(t, 90.0, s.ActiveMinutes, 1e-9)
	assert.InDelta(t, 20.0, s.IdleMinutes, 1e-9)
	assert.InDelta(t, 120.0, s.RawMinutes, 1e-9)

	require.Len(t, s.Groups, 2)
	// equal merged minutes fall back to key order
	assert.Equal(t, "Application", s.Groups[0].Key)
	assert.Equal(t, "WebPage", s.Groups[1].Key)
	assert.Equal(t, "Web Page", s.Groups[1].Label)
	assert.NotEmpty(t, s.Groups[1].Color)
	assert.InDelta(t, 60.0, s.Groups[0].Minutes, 1e-9)
	assert.InDelta(t, 90.0, s.Groups[0].RawMinutes, 1e-9)
	assert.InDelta(t, 60.0, s.Groups[1].Minutes, 1e-9)

	var allocated float64
	for _, ts := range s.Types {
		assert.NotEqual(t, model.TypeIdle, ts.Type)
		allocated += ts.AllocatedMinutes
		assert.Equal(t, int(math.Round(ts.AllocatedMinutes)), ts.DisplayMinutes)
	}
	assert.InDelta(t, s.ActiveMinutes, allocated, 1e-9)
	assert.Len(t, s.Types, 3)
}

func TestBuildSummary_ByUserAndLimit(t *testing.T) {
	s, err := BuildSummary(sampleBatch(), Options{GroupBy: "user"})
	require.NoError(t, err)
	require.Len(t, s.Groups, 2)
	assert.Equal(t, "alice", s.Groups[0].Key)
	assert.InDelta(t, 60.0, s.Groups[0].Minutes, 1e-9)
	assert.InDelta(t, 90.0, s.Groups[0].RawMinutes, 1e-9)
	assert.Empty(t, s.Groups[0].Color)

	s, err = BuildSummary(sampleBatch(), Options{GroupBy: "user", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, s.Groups, 1)
}

func TestBuildSummary_Errors(t *testing.T) {
	_, err := BuildSummary(nil, Options{})
	assert.Error(t, err)

	_, err = BuildSummary(sampleBatch(), Options{GroupBy: "planet"})
	assert.Error(t, err)
}

func TestBuildSummary_DegenerateWeights(t *testing.T) {
	batch := &model.ParsedBatch{Activities: []model.Activity{
		act("a", model.TypeWebPage, "", at(9, 0), at(9, 30), 0),
	}}
	s, err := BuildSummary(batch, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, s.UnattributedMinutes, 1e-9)
	assert.Equal(t, "type", s.GroupBy)
}

func TestFilter_ClipsToDay(t *testing.T) {
	acts := []model.Activity{
		act("late", model.TypeWebPage, "", day.Add(-30*time.Minute), day.Add(30*time.Minute), 60),
		act("prev", model.TypeWebPage, "", day.Add(-2*time.Hour), day.Add(-time.Hour), 60),
	}
	out := Filter(acts, day)
	require.Len(t, out, 1)
	assert.Equal(t, day, out[0].StartTime)
	assert.Equal(t, 60, out[0].DurationMinutes)

	assert.Len(t, Filter(acts, time.Time{}), 2)

	s, err := BuildSummary(&model.ParsedBatch{Activities: acts}, Options{Day: day})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", s.Day)
	assert.InDelta(t, 30.0, s.ActiveMinutes, 1e-9)
}

func TestBuildTimeline(t *testing.T) {
	w := window.Window{Start: at(9, 45), End: at(10, 15)}
	tl := BuildTimeline(sampleBatch().Activities, w)

	require.Len(t, tl.Bars, 3)
	assert.Equal(t, "a", tl.Bars[0].ID)
	assert.Equal(t, w.Start, tl.Bars[0].Start)
	assert.InDelta(t, 15.0, tl.Bars[0].Minutes, 1e-9)
	assert.InDelta(t, 0.0, tl.Bars[0].Left, 1e-9)
	assert.InDelta(t, 0.5, tl.Bars[0].Width, 1e-9)
	assert.Equal(t, "Idle", tl.Bars[2].Label)
	assert.InDelta(t, 0.5, tl.Bars[2].Left, 1e-9)

	assert.InDelta(t, 15.0, tl.ActiveMinutes, 1e-9)
	assert.InDelta(t, 15.0, tl.IdleMinutes, 1e-9)
}

func TestBuildHourly(t *testing.T) {
	hours := BuildHourly(sampleBatch().Activities, day)
	require.Len(t, hours, 24)
	assert.InDelta(t, 60.0, hours[9].ActiveMinutes, 1e-9)
	assert.Len(t, hours[9].Bars, 2)
	assert.InDelta(t, 20.0, hours[10].IdleMinutes, 1e-9)
	assert.Empty(t, hours[3].Bars)

	h := BuildHour(sampleBatch().Activities, day, 11)
	assert.Equal(t, 11, h.Hour)
	assert.InDelta(t, 30.0, h.ActiveMinutes, 1e-9)
}
