// Package allocation distributes the true merged time of a set of activities
// across labels in proportion to each label's raw (unmerged) minutes.
//
// Raw minutes double count overlaps, so their sum can exceed the wall clock
// time actually covered. Allocated minutes always add up to the merged total.
package allocation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/penwyp/go-activity-timeline/internal/core/interval"
	"github.com/penwyp/go-activity-timeline/internal/core/model"
)

// ErrAllocationDegenerate is returned when there is covered time but no raw
// minutes to distribute it by. The Allocation is still returned with the
// covered time reported as UnattributedMinutes.
var ErrAllocationDegenerate = errors.New("allocation: no raw minutes to distribute merged time")

// LabelFunc picks the label an activity is counted under.
type LabelFunc func(model.Activity) string

// Share is one label's portion of the merged total.
type Share struct {
	Label            string  `json:"label"`
	RawMinutes       float64 `json:"rawMinutes"`
	AllocatedMinutes float64 `json:"allocatedMinutes"`
	ActivityCount    int     `json:"activityCount"`
}

// Allocation is the result of Allocate.
type Allocation struct {
	Shares              []Share `json:"shares"`
	TrueTotalMinutes    float64 `json:"trueTotalMinutes"`
	RawTotalMinutes     float64 `json:"rawTotalMinutes"`
	IdleMinutes         float64 `json:"idleMinutes"`
	UnattributedMinutes float64 `json:"unattributedMinutes"`
}

// AllocatedTotal sums allocated minutes across shares plus the unattributed
// remainder.
func (a Allocation) AllocatedTotal() float64 {
	return lo.SumBy(a.Shares, func(s Share) float64 { return s.AllocatedMinutes }) + a.UnattributedMinutes
}

// Allocate computes per-label shares. Idle activities are left out of the
// pool and their merged time is reported separately as IdleMinutes.
// Shares are sorted by allocated minutes, largest first.
func Allocate(activities []model.Activity, label LabelFunc) (Allocation, error) {
	if label == nil {
		label = interval.ByType
	}

	active := lo.Filter(activities, func(a model.Activity, _ int) bool { return a.Type != model.TypeIdle })
	idle := lo.Filter(activities, func(a model.Activity, _ int) bool { return a.Type == model.TypeIdle })

	result := Allocation{
		TrueTotalMinutes: interval.ActivityCoverage(active).Minutes,
		IdleMinutes:      interval.ActivityCoverage(idle).Minutes,
	}

	byLabel := lo.GroupBy(active, func(a model.Activity) string {
		if l := label(a); l != "" {
			return l
		}
		return model.UnattributedKey
	})

	shares := make([]Share, 0, len(byLabel))
	for l, group := range byLabel {
		shares = append(shares, Share{
			Label:         l,
			RawMinutes:    lo.SumBy(group, func(a model.Activity) float64 { return float64(a.DurationMinutes) }),
			ActivityCount: len(group),
		})
	}
	grand := lo.SumBy(shares, func(s Share) float64 { return s.RawMinutes })
	result.RawTotalMinutes = grand

	if grand == 0 {
		result.Shares = sortShares(shares)
		if result.TrueTotalMinutes > 0 {
			result.UnattributedMinutes = result.TrueTotalMinutes
			return result, fmt.Errorf("%d activities covering %.1f minutes: %w",
				len(active), result.TrueTotalMinutes, ErrAllocationDegenerate)
		}
		return result, nil
	}

	for i := range shares {
		shares[i].AllocatedMinutes = result.TrueTotalMinutes * shares[i].RawMinutes / grand
	}
	result.Shares = sortShares(shares)
	return result, nil
}

func sortShares(shares []Share) []Share {
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].AllocatedMinutes != shares[j].AllocatedMinutes {
			return shares[i].AllocatedMinutes > shares[j].AllocatedMinutes
		}
		if shares[i].RawMinutes != shares[j].RawMinutes {
			return shares[i].RawMinutes > shares[j].RawMinutes
		}
		return shares[i].Label < shares[j].Label
	})
	return shares
}

// RoundShares rounds each share to the nearest whole minute for display.
func RoundShares(shares []Share) map[string]int {
	out := make(map[string]int, len(shares))
	for _, s := range shares {
		out[s.Label] = int(math.Round(s.AllocatedMinutes))
	}
	return out
}
