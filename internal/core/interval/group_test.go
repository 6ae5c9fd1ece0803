package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
)

func sampleActivities() []model.Activity {
	return []model.Activity{
		{Type: model.TypeWebPage, Username: "alice", URL: "https://github.com/x", StartTime: at("09:00"), EndTime: at("10:00")},
		{Type: model.TypeWebPage, Username: "alice", URL: "https://www.github.com/y", StartTime: at("09:30"), EndTime: at("10:30")},
		{Type: model.TypeApplication, Username: "bob", ApplicationName: "code", StartTime: at("09:00"), EndTime: at("09:20")},
		{Type: model.TypeIdle, StartTime: at("12:00"), EndTime: at("12:10")},
	}
}

func TestMergeByKey(t *testing.T) {
	byType := MergeByKey(sampleActivities(), ByType)
	require.Len(t, byType, 3)
	assert.Equal(t, 90.0, byType[string(model.TypeWebPage)].Minutes)
	assert.Equal(t, 20.0, byType[string(model.TypeApplication)].Minutes)
	assert.Equal(t, 10.0, byType[string(model.TypeIdle)].Minutes)
}

func TestMergeByKeySkipsEmptyKeys(t *testing.T) {
	byApp := MergeByKey(sampleActivities(), ByApp)
	assert.Len(t, byApp, 1)
	assert.Contains(t, byApp, "code")

	byDomain := MergeByKey(sampleActivities(), ByDomain)
	assert.Len(t, byDomain, 1)
	assert.Equal(t, 90.0, byDomain["github.com"].Minutes)
}

func TestGroupTotalsOrdering(t *testing.T) {
	totals := GroupTotals(sampleActivities(), ByUser)
	require.Len(t, totals, 3)

	assert.Equal(t, "alice", totals[0].Key)
	assert.Equal(t, 90.0, totals[0].Minutes)
	assert.Equal(t, 120.0, totals[0].RawMinutes)
	assert.Equal(t, 2, totals[0].ActivityCount)

	assert.Equal(t, "bob", totals[1].Key)
	assert.Equal(t, model.UnknownUser, totals[2].Key)
}

func TestKeyFuncFor(t *testing.T) {
	for _, name := range []string{"", "type", "user", "app", "application", "domain", "url"} {
		fn, ok := KeyFuncFor(name)
		assert.True(t, ok, name)
		assert.NotNil(t, fn, name)
	}

	_, ok := KeyFuncFor("model")
	assert.False(t, ok)
}
