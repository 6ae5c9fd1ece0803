// Package report assembles the summary, timeline and hourly views of a batch
// from the merge, window and allocation engines.
package report

import (
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/penwyp/go-activity-timeline/internal/core/allocation"
	"github.com/penwyp/go-activity-timeline/internal/core/interval"
	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
)

// Options controls summary construction.
type Options struct {
	GroupBy  string    // type, user, app or domain
	Day      time.Time // zero keeps every day
	Limit    int       // 0 keeps every group
	Location *time.Location
}

// Group is the merged time of one grouping key.
type Group struct {
	Key           string  `json:"key"`
	Label         string  `json:"label"`
	Color         string  `json:"color,omitempty"`
	Minutes       float64 `json:"minutes"`
	RawMinutes    float64 `json:"rawMinutes"`
	ActivityCount int     `json:"activityCount"`
	Share         float64 `json:"share"` // of ActiveMinutes, 0..1
}

// TypeShare is one type's portion of the active total after allocation.
type TypeShare struct {
	Type             model.ActivityType `json:"type"`
	Label            string             `json:"label"`
	Color            string             `json:"color"`
	RawMinutes       float64            `json:"rawMinutes"`
	AllocatedMinutes float64            `json:"allocatedMinutes"`
	DisplayMinutes   int                `json:"displayMinutes"`
}

// Summary is the grouped view of a batch.
type Summary struct {
	Source              string          `json:"source"`
	GeneratedAt         time.Time       `json:"generatedAt"`
	Day                 string          `json:"day,omitempty"`
	CoveredRange        model.DateRange `json:"coveredRange"`
	RowsSeen            int             `json:"rowsSeen"`
	RowsKept            int             `json:"rowsKept"`
	WarningCount        int             `json:"warningCount"`
	ActivityCount       int             `json:"activityCount"`
	GroupBy             string          `json:"groupBy"`
	ActiveMinutes       float64         `json:"activeMinutes"`
	IdleMinutes         float64         `json:"idleMinutes"`
	RawMinutes          float64         `json:"rawMinutes"`
	UnattributedMinutes float64         `json:"unattributedMinutes"`
	Groups              []Group         `json:"groups"`
	Types               []TypeShare     `json:"types"`
}

// Filter returns the activities overlapping day clipped to its bounds, or all
// of them when day is zero. Reported durations are kept as weights.
func Filter(activities []model.Activity, day time.Time) []model.Activity {
	if day.IsZero() {
		return activities
	}
	w := window.DayWindow(day)
	out := make([]model.Activity, 0, len(activities))
	for _, a := range window.OnDay(activities, day) {
		if a.StartTime.Before(w.Start) {
			a.StartTime = w.Start
		}
		if a.EndTime.After(w.End) {
			a.EndTime = w.End
		}
		out = append(out, a)
	}
	return out
}

// BuildSummary computes merged totals per group and the allocated type
// breakdown.
func BuildSummary(batch *model.ParsedBatch, opts Options) (*Summary, error) {
	if batch == nil {
		return nil, errors.New("no batch loaded")
	}
	key, ok := interval.KeyFuncFor(opts.GroupBy)
	if !ok {
		return nil, errors.New("unsupported group by: " + opts.GroupBy)
	}
	groupBy := opts.GroupBy
	if groupBy == "" {
		groupBy = interval.GroupByType
	}

	activities := Filter(batch.Activities, opts.Day)
	active := lo.Filter(activities, func(a model.Activity, _ int) bool { return a.Type != model.TypeIdle })

	alloc, err := allocation.Allocate(activities, interval.ByType)
	if err != nil && !errors.Is(err, allocation.ErrAllocationDegenerate) {
		return nil, err
	}

	s := &Summary{
		Source:              batch.Source,
		GeneratedAt:         time.Now(),
		CoveredRange:        batch.CoveredRange,
		RowsSeen:            batch.TotalRowsSeen,
		RowsKept:            batch.RowsKept,
		WarningCount:        len(batch.Warnings),
		ActivityCount:       len(activities),
		GroupBy:             groupBy,
		ActiveMinutes:       alloc.TrueTotalMinutes,
		IdleMinutes:         alloc.IdleMinutes,
		RawMinutes:          alloc.RawTotalMinutes,
		UnattributedMinutes: alloc.UnattributedMinutes,
	}
	if !opts.Day.IsZero() {
		loc := opts.Location
		if loc == nil {
			loc = opts.Day.Location()
		}
		s.Day = opts.Day.In(loc).Format("2006-01-02")
	}

	for _, g := range interval.GroupTotals(active, key) {
		group := Group{
			Key:           g.Key,
			Label:         g.Key,
			Minutes:       g.Minutes,
			RawMinutes:    g.RawMinutes,
			ActivityCount: g.ActivityCount,
		}
		if style, ok := model.LabelStyle(g.Key); ok && groupBy == interval.GroupByType {
			group.Label = style.Label
			group.Color = style.Color
		}
		if s.ActiveMinutes > 0 {
			group.Share = g.Minutes / s.ActiveMinutes
		}
		s.Groups = append(s.Groups, group)
	}
	if opts.Limit > 0 && len(s.Groups) > opts.Limit {
		s.Groups = s.Groups[:opts.Limit]
	}
	if s.Groups == nil {
		s.Groups = []Group{}
	}

	s.Types = typeShares(alloc)
	return s, nil
}

// typeShares lists every type in canonical order, zero filled.
func typeShares(alloc allocation.Allocation) []TypeShare {
	byLabel := lo.KeyBy(alloc.Shares, func(sh allocation.Share) string { return sh.Label })
	rounded := allocation.RoundShares(alloc.Shares)
	out := make([]TypeShare, 0, len(model.AllTypes()))
	for _, style := range model.TypeStyles() {
		if style.Type == model.TypeIdle {
			continue
		}
		sh := byLabel[string(style.Type)]
		out = append(out, TypeShare{
			Type:             style.Type,
			Label:            style.Label,
			Color:            style.Color,
			RawMinutes:       sh.RawMinutes,
			AllocatedMinutes: sh.AllocatedMinutes,
			DisplayMinutes:   rounded[string(style.Type)],
		})
	}
	return out
}
