package window

import (
	"time"

	"github.com/penwyp/go-activity-timeline/internal/core/interval"
	"github.com/penwyp/go-activity-timeline/internal/core/model"
)

// HoursPerDay is the number of buckets in an hourly breakdown.
const HoursPerDay = 24

// HourBucket summarises one clock hour.
type HourBucket struct {
	Hour          int       `json:"hour"`
	Window        Window    `json:"window"`
	Segments      []Segment `json:"segments"`
	ActiveMinutes float64   `json:"activeMinutes"` // merged, idle excluded
	IdleMinutes   float64   `json:"idleMinutes"`   // merged idle only
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// HourWindow returns the window for clock hour (0-23) of day.
func HourWindow(day time.Time, hour int) Window {
	y, m, d := day.Date()
	loc := day.Location()
	return Window{
		Start: time.Date(y, m, d, hour, 0, 0, 0, loc),
		End:   time.Date(y, m, d, hour+1, 0, 0, 0, loc),
	}
}

// DayWindow returns the window covering the whole calendar day.
func DayWindow(day time.Time) Window {
	y, m, d := day.Date()
	loc := day.Location()
	return Window{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d+1, 0, 0, 0, 0, loc),
	}
}

// Hour clips activities to a single clock hour.
func Hour(activities []model.Activity, day time.Time, hour int) HourBucket {
	w := HourWindow(day, hour)
	segments := Clip(activities, w)

	var active, idle []model.TimeInterval
	for _, s := range segments {
		iv := model.TimeInterval{Start: s.ClippedStart(w), End: s.ClippedEnd(w)}
		if s.Activity.Type == model.TypeIdle {
			idle = append(idle, iv)
		} else {
			active = append(active, iv)
		}
	}

	return HourBucket{
		Hour:          hour,
		Window:        w,
		Segments:      segments,
		ActiveMinutes: interval.Coverage(active).Minutes,
		IdleMinutes:   interval.Coverage(idle).Minutes,
	}
}

// HourlyBreakdown builds one bucket for each hour of day.
func HourlyBreakdown(activities []model.Activity, day time.Time) []HourBucket {
	buckets := make([]HourBucket, HoursPerDay)
	for h := 0; h < HoursPerDay; h++ {
		buckets[h] = Hour(activities, day, h)
	}
	return buckets
}

// OnDay returns the activities that overlap the calendar day of day.
// Activities are not clipped.
func OnDay(activities []model.Activity, day time.Time) []model.Activity {
	w := DayWindow(day)
	out := make([]model.Activity, 0, len(activities))
	for _, a := range activities {
		if a.StartTime.Before(w.End) && a.EndTime.After(w.Start) {
			out = append(out, a)
			continue
		}
		// instantaneous events sitting on the day
		if a.StartTime.Equal(a.EndTime) && !a.StartTime.Before(w.Start) && a.StartTime.Before(w.End) {
			out = append(out, a)
		}
	}
	return out
}
