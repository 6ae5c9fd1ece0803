// Package interval coalesces overlapping time spans and measures the time
// they actually cover.
package interval

import (
	"sort"
	"time"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
)

// Result is the merged form of a set of intervals.
type Result struct {
	Intervals  []model.TimeInterval `json:"intervals"`
	Minutes    float64              `json:"minutes"` // fractional, rounded only for display
	RawMinutes float64              `json:"rawMinutes"`
	Count      int                  `json:"count"` // input intervals
}

// Merge returns the minimal set of disjoint, non-adjacent intervals covering
// the same time as in. Intervals that touch (one ends exactly when the next
// starts) are joined. in is never modified.
//
// Every interval must satisfy End >= Start; this is not re-checked here.
func Merge(in []model.TimeInterval) []model.TimeInterval {
	if len(in) == 0 {
		return []model.TimeInterval{}
	}

	sorted := make([]model.TimeInterval, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]model.TimeInterval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	return merged
}

// TotalMinutes sums the length of intervals and returns fractional minutes.
// Callers pass a merged set to get covered time; an unmerged set gives the
// naive, overlap-inflated sum.
func TotalMinutes(intervals []model.TimeInterval) float64 {
	var total time.Duration
	for _, iv := range intervals {
		total += iv.End.Sub(iv.Start)
	}
	return total.Minutes()
}

// Coverage merges in and measures the result.
func Coverage(in []model.TimeInterval) Result {
	merged := Merge(in)
	return Result{
		Intervals:  merged,
		Minutes:    TotalMinutes(merged),
		RawMinutes: TotalMinutes(in),
		Count:      len(in),
	}
}

// Intervals extracts the spans of activities in their given order.
func Intervals(activities []model.Activity) []model.TimeInterval {
	out := make([]model.TimeInterval, len(activities))
	for i, a := range activities {
		out[i] = a.Interval()
	}
	return out
}

// ActivityCoverage merges the spans of activities.
func ActivityCoverage(activities []model.Activity) Result {
	return Coverage(Intervals(activities))
}
