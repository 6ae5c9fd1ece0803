package allocation

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-activity-timeline/internal/core/interval"
	"github.com/penwyp/go-activity-timeline/internal/core/model"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func activity(typ model.ActivityType, user string, startMin, endMin, raw int) model.Activity {
	return model.Activity{
		Type:            typ,
		Username:        user,
		StartTime:       base.Add(time.Duration(startMin) * time.Minute),
		EndTime:         base.Add(time.Duration(endMin) * time.Minute),
		DurationMinutes: raw,
	}
}

func TestAllocateProportional(t *testing.T) {
	// 09:00-10:00 web page with a 09:30-09:45 app on top: 60 merged, 75 raw
	activities := []model.Activity{
		activity(model.TypeWebPage, "alice", 0, 60, 60),
		activity(model.TypeApplication, "alice", 30, 45, 15),
	}

	result, err := Allocate(activities, interval.ByType)
	require.NoError(t, err)

	assert.Equal(t, 60.0, result.TrueTotalMinutes)
	assert.Equal(t, 75.0, result.RawTotalMinutes)
	require.Len(t, result.Shares, 2)

	assert.Equal(t, string(model.TypeWebPage), result.Shares[0].Label)
	assert.InDelta(t, 48.0, result.Shares[0].AllocatedMinutes, 1e-9)
	assert.Equal(t, 60.0, result.Shares[0].RawMinutes)

	assert.Equal(t, string(model.TypeApplication), result.Shares[1].Label)
	assert.InDelta(t, 12.0, result.Shares[1].AllocatedMinutes, 1e-9)

	assert.InDelta(t, result.TrueTotalMinutes, result.AllocatedTotal(), 1e-9)
}

func TestAllocateExcludesIdle(t *testing.T) {
	activities := []model.Activity{
		activity(model.TypeWebPage, "alice", 0, 30, 30),
		activity(model.TypeIdle, "alice", 30, 50, 20),
		activity(model.TypeIdle, "alice", 40, 60, 20),
	}

	result, err := Allocate(activities, interval.ByType)
	require.NoError(t, err)

	assert.Equal(t, 30.0, result.TrueTotalMinutes)
	assert.Equal(t, 30.0, result.IdleMinutes)
	require.Len(t, result.Shares, 1)
	assert.Equal(t, string(model.TypeWebPage), result.Shares[0].Label)
	assert.InDelta(t, 30.0, result.Shares[0].AllocatedMinutes, 1e-9)
}

func TestAllocateDegenerate(t *testing.T) {
	// covered time with every raw duration recorded as zero
	activities := []model.Activity{
		activity(model.TypeApplication, "bob", 0, 10, 0),
		activity(model.TypeWebPage, "bob", 5, 20, 0),
	}

	result, err := Allocate(activities, interval.ByUser)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllocationDegenerate))

	assert.Equal(t, 20.0, result.TrueTotalMinutes)
	assert.Equal(t, 20.0, result.UnattributedMinutes)
	require.Len(t, result.Shares, 1)
	assert.Equal(t, 0.0, result.Shares[0].AllocatedMinutes)
	assert.InDelta(t, result.TrueTotalMinutes, result.AllocatedTotal(), 1e-9)
}

func TestAllocateEmpty(t *testing.T) {
	result, err := Allocate(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Shares)
	assert.Equal(t, 0.0, result.TrueTotalMinutes)
	assert.Equal(t, 0.0, result.UnattributedMinutes)
}

func TestAllocateEmptyLabel(t *testing.T) {
	activities := []model.Activity{
		activity(model.TypeWebPage, "", 0, 10, 10),
	}
	result, err := Allocate(activities, interval.ByApp)
	require.NoError(t, err)
	require.Len(t, result.Shares, 1)
	assert.Equal(t, model.UnattributedKey, result.Shares[0].Label)
	assert.Equal(t, 1, result.Shares[0].ActivityCount)
}

func TestAllocateConservation(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	types := model.AllTypes()
	users := []string{"alice", "bob", "carol"}

	for run := 0; run < 50; run++ {
		n := 1 + r.Intn(30)
		activities := make([]model.Activity, n)
		for i := range activities {
			start := r.Intn(600)
			length := r.Intn(90)
			activities[i] = activity(types[r.Intn(len(types))], users[r.Intn(len(users))], start, start+length, length)
		}

		result, err := Allocate(activities, interval.ByUser)
		if errors.Is(err, ErrAllocationDegenerate) {
			assert.InDelta(t, result.TrueTotalMinutes, result.UnattributedMinutes, 1e-9)
			continue
		}
		require.NoError(t, err)
		assert.InDelta(t, result.TrueTotalMinutes, result.AllocatedTotal(), 1e-6, "run %d", run)
		assert.LessOrEqual(t, result.TrueTotalMinutes, result.RawTotalMinutes+1e-9)
	}
}

func TestRoundShares(t *testing.T) {
	shares := []Share{
		{Label: "a", AllocatedMinutes: 10.4},
		{Label: "b", AllocatedMinutes: 10.5},
		{Label: "c", AllocatedMinutes: 0.2},
	}
	assert.Equal(t, map[string]int{"a": 10, "b": 11, "c": 0}, RoundShares(shares))
}
