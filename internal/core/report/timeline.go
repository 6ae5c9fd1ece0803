package report

import (
	"time"

	"github.com/penwyp/go-activity-timeline/internal/core/interval"
	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
)

// Bar is a clipped activity ready to draw.
type Bar struct {
	ID       string             `json:"id"`
	Type     model.ActivityType `json:"type"`
	Label    string             `json:"label"`
	Color    string             `json:"color"`
	Title    string             `json:"title"`
	Username string             `json:"username,omitempty"`
	Start    time.Time          `json:"start"` // clipped
	End      time.Time          `json:"end"`   // clipped
	Minutes  float64            `json:"minutes"`
	Left     float64            `json:"left"`
	Width    float64            `json:"width"`
}

// Timeline is the visible part of a window.
type Timeline struct {
	Window        window.Window `json:"window"`
	Bars          []Bar         `json:"bars"`
	ActiveMinutes float64       `json:"activeMinutes"`
	IdleMinutes   float64       `json:"idleMinutes"`
}

// Hour is one row of the hourly strip.
type Hour struct {
	Hour          int           `json:"hour"`
	Window        window.Window `json:"window"`
	Bars          []Bar         `json:"bars"`
	ActiveMinutes float64       `json:"activeMinutes"`
	IdleMinutes   float64       `json:"idleMinutes"`
}

func bars(segments []window.Segment, w window.Window) []Bar {
	out := make([]Bar, len(segments))
	for i, seg := range segments {
		style := seg.Activity.Type.Style()
		p := seg.Placement(w)
		out[i] = Bar{
			ID:       seg.Activity.ID,
			Type:     seg.Activity.Type,
			Label:    style.Label,
			Color:    style.Color,
			Title:    seg.Activity.Title,
			Username: seg.Activity.Username,
			Start:    seg.ClippedStart(w),
			End:      seg.ClippedEnd(w),
			Minutes:  seg.Duration.Minutes(),
			Left:     p.Left,
			Width:    p.Width,
		}
	}
	return out
}

// BuildTimeline clips activities to w. Totals are merged within the window.
func BuildTimeline(activities []model.Activity, w window.Window) *Timeline {
	segments := window.Clip(activities, w)
	spans := window.Intervals(segments, w)

	var active, idle []model.TimeInterval
	for i, seg := range segments {
		if seg.Activity.Type == model.TypeIdle {
			idle = append(idle, spans[i])
		} else {
			active = append(active, spans[i])
		}
	}

	return &Timeline{
		Window:        w,
		Bars:          bars(segments, w),
		ActiveMinutes: interval.Coverage(active).Minutes,
		IdleMinutes:   interval.Coverage(idle).Minutes,
	}
}

// BuildHourly returns the 24 hourly rows of day.
func BuildHourly(activities []model.Activity, day time.Time) []Hour {
	buckets := window.HourlyBreakdown(activities, day)
	out := make([]Hour, len(buckets))
	for i, b := range buckets {
		out[i] = Hour{
			Hour:          b.Hour,
			Window:        b.Window,
			Bars:          bars(b.Segments, b.Window),
			ActiveMinutes: b.ActiveMinutes,
			IdleMinutes:   b.IdleMinutes,
		}
	}
	return out
}

// BuildHour returns a single hourly row.
func BuildHour(activities []model.Activity, day time.Time, hour int) Hour {
	b := window.Hour(activities, day, hour)
	return Hour{
		Hour:          b.Hour,
		Window:        b.Window,
		Bars:          bars(b.Segments, b.Window),
		ActiveMinutes: b.ActiveMinutes,
		IdleMinutes:   b.IdleMinutes,
	}
}
