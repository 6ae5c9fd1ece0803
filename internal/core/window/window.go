// Package window clips activities to display windows: a zoomable viewport on
// the timeline or a single clock hour.
package window

import (
	"time"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
)

// MinutesPerDay is the widest possible window.
const MinutesPerDay = 24 * 60

// Window is a half-open display range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FromMinutes builds a window from minute offsets relative to dayStart.
func FromMinutes(dayStart time.Time, startMinute, endMinute float64) Window {
	return Window{
		Start: dayStart.Add(minutes(startMinute)),
		End:   dayStart.Add(minutes(endMinute)),
	}
}

// Duration returns the window width.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Segment is the visible part of one activity inside a window.
type Segment struct {
	Activity model.Activity `json:"activity"`
	Offset   time.Duration  `json:"offset"`   // from window start to clipped start
	Duration time.Duration  `json:"duration"` // clipped length
}

// Placement is a pixel independent position: both values are fractions of
// the window width.
type Placement struct {
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

// Placement converts the segment to fractions of w.
func (s Segment) Placement(w Window) Placement {
	total := w.Duration()
	if total <= 0 {
		return Placement{}
	}
	return Placement{
		Left:  float64(s.Offset) / float64(total),
		Width: float64(s.Duration) / float64(total),
	}
}

// ClippedStart returns the absolute start of the visible part.
func (s Segment) ClippedStart(w Window) time.Time {
	return w.Start.Add(s.Offset)
}

// ClippedEnd returns the absolute end of the visible part.
func (s Segment) ClippedEnd(w Window) time.Time {
	return w.Start.Add(s.Offset + s.Duration)
}

// Clip returns one segment per activity that is visible in w. Overlapping
// activities are not merged: each keeps its own segment. Order follows
// activities.
func Clip(activities []model.Activity, w Window) []Segment {
	segments := make([]Segment, 0)
	for _, a := range activities {
		if seg, ok := clipOne(a, w); ok {
			segments = append(segments, seg)
		}
	}
	return segments
}

func clipOne(a model.Activity, w Window) (Segment, bool) {
	if !a.EndTime.After(w.Start) || !a.StartTime.Before(w.End) {
		return Segment{}, false
	}

	clippedStart := a.StartTime
	if w.Start.After(clippedStart) {
		clippedStart = w.Start
	}
	clippedEnd := a.EndTime
	if w.End.Before(clippedEnd) {
		clippedEnd = w.End
	}
	if !clippedEnd.After(clippedStart) {
		return Segment{}, false
	}

	return Segment{
		Activity: a,
		Offset:   clippedStart.Sub(w.Start),
		Duration: clippedEnd.Sub(clippedStart),
	}, true
}

// Intervals returns the absolute clipped spans of segments.
func Intervals(segments []Segment, w Window) []model.TimeInterval {
	out := make([]model.TimeInterval, len(segments))
	for i, s := range segments {
		out[i] = model.TimeInterval{Start: s.ClippedStart(w), End: s.ClippedEnd(w)}
	}
	return out
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
