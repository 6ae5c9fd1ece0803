package formatter

import (
	"time"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
)

var testDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func testSummary() *report.Summary {
	return &report.Summary{
		Source:        "march.csv",
		Day:           "2024-03-01",
		RowsSeen:      5,
		RowsKept:      4,
		WarningCount:  1,
		ActivityCount: 4,
		GroupBy:       "user",
		ActiveMinutes: 90,
		IdleMinutes:   20,
		RawMinutes:    120,
		Groups: []report.Group{
			{Key: "alice", Label: "alice", Minutes: 60, RawMinutes: 90, ActivityCount: 3, Share: 2.0 / 3},
			{Key: "bob", Label: "bob", Minutes: 30, RawMinutes: 30, ActivityCount: 1, Share: 1.0 / 3},
		},
		Types: []report.TypeShare{
			{Type: model.TypeWebPage, Label: "Web Page", RawMinutes: 60, AllocatedMinutes: 45},
			{Type: model.TypeApplication, Label: "Application", RawMinutes: 60, AllocatedMinutes: 45},
			{Type: model.TypeOther, Label: "Other"},
		},
	}
}

func testActivities() []model.Activity {
	at := func(h, m int) time.Time { return testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }
	return []model.Activity{
		{ID: "a", Type: model.TypeWebPage, Title: "docs", StartTime: at(9, 0), EndTime: at(9, 30), DurationMinutes: 30, Username: "alice"},
		{ID: "b", Type: model.TypeApplication, Title: "editor", StartTime: at(9, 30), EndTime: at(10, 0), DurationMinutes: 30},
		{ID: "c", Type: model.TypeIdle, Title: "Idle", StartTime: at(10, 0), EndTime: at(10, 15), DurationMinutes: 15},
	}
}

func testTimeline() *report.Timeline {
	w := window.Window{Start: testDay.Add(9 * time.Hour), End: testDay.Add(11 * time.Hour)}
	return report.BuildTimeline(testActivities(), w)
}
