package interval

import (
	"sort"

	"github.com/samber/lo"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
)

// KeyFunc extracts a grouping key from an activity. An empty key excludes the
// activity from the grouping.
type KeyFunc func(model.Activity) string

// Grouping keys supported by summaries.
const (
	GroupByType   = "type"
	GroupByUser   = "user"
	GroupByApp    = "app"
	GroupByDomain = "domain"
)

// ByType groups by activity type.
func ByType(a model.Activity) string { return string(a.Type) }

// ByUser groups by username; activities without one land under UnknownUser.
func ByUser(a model.Activity) string {
	if a.Username == "" {
		return model.UnknownUser
	}
	return a.Username
}

// ByApp groups by application name.
func ByApp(a model.Activity) string { return a.ApplicationName }

// ByDomain groups by the domain of the activity URL.
func ByDomain(a model.Activity) string { return a.Domain() }

// KeyFuncFor resolves a group-by name to its KeyFunc.
func KeyFuncFor(groupBy string) (KeyFunc, bool) {
	switch groupBy {
	case GroupByType, "":
		return ByType, true
	case GroupByUser:
		return ByUser, true
	case GroupByApp, "application":
		return ByApp, true
	case GroupByDomain, "url", "website":
		return ByDomain, true
	default:
		return nil, false
	}
}

// GroupTotal is the merged coverage of one grouping key.
type GroupTotal struct {
	Key           string               `json:"key"`
	Intervals     []model.TimeInterval `json:"intervals"`
	Minutes       float64              `json:"minutes"`
	RawMinutes    float64              `json:"rawMinutes"` // naive sum before merging
	ActivityCount int                  `json:"activityCount"`
}

// MergeByKey merges the spans of every group independently.
func MergeByKey(activities []model.Activity, key KeyFunc) map[string]Result {
	groups := lo.GroupBy(lo.Filter(activities, func(a model.Activity, _ int) bool {
		return key(a) != ""
	}), func(a model.Activity) string {
		return key(a)
	})

	return lo.MapValues(groups, func(members []model.Activity, _ string) Result {
		return ActivityCoverage(members)
	})
}

// GroupTotals merges per key and returns the groups ordered by covered
// minutes, largest first, ties broken by key.
func GroupTotals(activities []model.Activity, key KeyFunc) []GroupTotal {
	groups := MergeByKey(activities, key)
	totals := make([]GroupTotal, 0, len(groups))
	for k, r := range groups {
		totals = append(totals, GroupTotal{
			Key:           k,
			Intervals:     r.Intervals,
			Minutes:       r.Minutes,
			RawMinutes:    r.RawMinutes,
			ActivityCount: r.Count,
		})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Minutes != totals[j].Minutes {
			return totals[i].Minutes > totals[j].Minutes
		}
		return totals[i].Key < totals[j].Key
	})
	return totals
}
