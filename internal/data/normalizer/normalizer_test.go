package normalizer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestNormalizer(opts ...Option) *Normalizer {
	defaults := []Option{
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return base }),
	}
	return New(append(defaults, opts...)...)
}

func TestResolveColumns(t *testing.T) {
	cols, err := ResolveColumns([]string{"\ufeffStart Time", " END TIME ", "activity_type", "Website", "User"})
	require.NoError(t, err)

	assert.Equal(t, 0, cols.Index(FieldStart))
	assert.Equal(t, 1, cols.Index(FieldEnd))
	assert.Equal(t, 2, cols.Index(FieldType))
	assert.Equal(t, 3, cols.Index(FieldURL))
	assert.Equal(t, 4, cols.Index(FieldUsername))
	assert.False(t, cols.Has(FieldDuration))
	assert.Equal(t, -1, cols.Index(FieldTitle))
}

func TestResolveColumnsAliasPriority(t *testing.T) {
	// "Start UTC Timestamp" outranks "Start" regardless of column order
	cols, err := ResolveColumns([]string{"Start", "End", "Type", "Start UTC Timestamp", "End UTC Timestamp"})
	require.NoError(t, err)
	assert.Equal(t, 3, cols.Index(FieldStart))
	assert.Equal(t, 4, cols.Index(FieldEnd))
}

func TestResolveColumnsMissingRequired(t *testing.T) {
	_, err := ResolveColumns([]string{"Start Time", "Application"})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"end", "type"}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "end, type")
}

func TestNormalizeTableEpochScenario(t *testing.T) {
	table := model.Table{
		Headers: []string{"Start UTC Timestamp", "End UTC Timestamp", "Activity Type", "Application"},
		Rows:    [][]string{{"1700000000", "1700000900", "Application", "Editor"}},
	}

	batch, err := newTestNormalizer().NormalizeTable(table, "upload.csv")
	require.NoError(t, err)
	require.Len(t, batch.Activities, 1)

	a := batch.Activities[0]
	assert.Equal(t, 15, a.DurationMinutes)
	assert.Equal(t, 15*time.Minute, a.EndTime.Sub(a.StartTime))
	assert.Equal(t, model.TypeApplication, a.Type)
	assert.Equal(t, "Editor", a.Title)
	assert.Equal(t, "id-1", a.ID)
	assert.Empty(t, a.Username, "no user column means a single user feed")
}

func TestNormalizeTableRowHandling(t *testing.T) {
	table := model.Table{
		Headers: []string{"Start Time", "End Time", "Type", "Duration", "Website", "Username", "Title"},
		Rows: [][]string{
			{"2024-03-01 10:00:00", "2024-03-01 10:30:00", "web", "1h 2m 30s", "https://www.example.com/a", "alice", ""},
			{"2024-03-01 09:00:00", "2024-03-01 09:00:20", "app", "", "", "", "Terminal"},
			{"not a time", "2024-03-01 11:00:00", "web", "", "", "bob", ""},
			{"2024-03-01 12:00:00", "2024-03-01 11:00:00", "web", "", "", "bob", ""},
			{"2024-03-01 13:00:00", "2024-03-01 13:00:00", "lock screen", "", "", "bob", ""},
			{"2024-03-01 14:00:00", "2024-03-01 14:10:00", "idle", "soon", "", "carol", ""},
			{"2024-03-01 15:00:00"},
		},
	}

	batch, err := newTestNormalizer().NormalizeTable(table, "mixed.csv")
	require.NoError(t, err)

	assert.Equal(t, 7, batch.TotalRowsSeen)
	assert.Equal(t, 4, batch.RowsKept)
	assert.Equal(t, 3, batch.RowsSkipped())
	require.Len(t, batch.Activities, 4)

	// sorted by start time
	for i := 1; i < len(batch.Activities); i++ {
		assert.False(t, batch.Activities[i].StartTime.Before(batch.Activities[i-1].StartTime))
	}

	sub := batch.Activities[0]
	assert.Equal(t, "Terminal", sub.Title)
	assert.Equal(t, 1, sub.DurationMinutes, "sub minute spans are kept visible")
	assert.Equal(t, model.UnknownUser, sub.Username)

	web := batch.Activities[1]
	assert.Equal(t, model.TypeWebPage, web.Type)
	assert.Equal(t, 63, web.DurationMinutes, "explicit duration wins over elapsed time")
	assert.Equal(t, "example.com", web.Title)
	assert.Equal(t, "alice", web.Username)

	instant := batch.Activities[2]
	assert.Equal(t, model.TypeIdle, instant.Type)
	assert.Equal(t, 0, instant.DurationMinutes)
	assert.Equal(t, "lock screen", instant.Title)

	idle := batch.Activities[3]
	assert.Equal(t, 10, idle.DurationMinutes, "bad duration falls back to elapsed time")

	var fatal, nonFatal int
	for _, w := range batch.Warnings {
		if w.Fatal {
			fatal++
		} else {
			nonFatal++
		}
	}
	assert.Equal(t, 3, fatal, "rows 3, 4 and 7 are dropped")
	assert.Equal(t, 1, nonFatal)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), batch.CoveredRange.Start)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), batch.CoveredRange.End)
	assert.Equal(t, "mixed.csv", batch.Source)
	assert.Equal(t, base, batch.LoadedAt)
}

func TestNormalizeTableTitleFallback(t *testing.T) {
	table := model.Table{
		Headers: []string{"Start", "End", "Type", "App", "URL"},
		Rows: [][]string{
			{"2024-03-01 09:00", "2024-03-01 09:05", "Application", "Slack", "https://slack.com"},
			{"2024-03-01 09:05", "2024-03-01 09:10", "Web", "", "news.example.org/today"},
			{"2024-03-01 09:10", "2024-03-01 09:15", "meeting", "", ""},
			{"2024-03-01 09:15", "2024-03-01 09:20", "", "", ""},
		},
	}

	batch, err := newTestNormalizer().NormalizeTable(table, "titles.csv")
	require.NoError(t, err)
	require.Len(t, batch.Activities, 4)

	assert.Equal(t, "Slack", batch.Activities[0].Title)
	assert.Equal(t, "news.example.org", batch.Activities[1].Title)
	assert.Equal(t, "meeting", batch.Activities[2].Title)
	assert.Equal(t, model.TypeOther, batch.Activities[2].Type)
	assert.Equal(t, model.UnknownActivity, batch.Activities[3].Title)
}

func TestNormalizeTableLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	table := model.Table{
		Headers: []string{"Start", "End", "Type"},
		Rows:    [][]string{{"2024-03-01 23:30:00", "2024-03-02 00:30:00", "app"}},
	}

	batch, err := newTestNormalizer(WithLocation(tokyo)).NormalizeTable(table, "tz.csv")
	require.NoError(t, err)

	a := batch.Activities[0]
	assert.True(t, a.StartTime.Equal(time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, tokyo), batch.CoveredRange.Start)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, tokyo), batch.CoveredRange.End)
}

func TestNormalizeTableFatalErrors(t *testing.T) {
	t.Run("no_headers", func(t *testing.T) {
		_, err := newTestNormalizer().NormalizeTable(model.Table{Rows: [][]string{{}}}, "objects.json")
		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Empty(t, schemaErr.Missing)
	})

	t.Run("empty_table", func(t *testing.T) {
		_, err := newTestNormalizer().NormalizeTable(model.Table{}, "empty.json")
		var emptyErr *EmptyResultError
		require.True(t, errors.As(err, &emptyErr))
		assert.Equal(t, 0, emptyErr.RowsSeen)
	})

	t.Run("missing_columns", func(t *testing.T) {
		_, err := newTestNormalizer().NormalizeTable(model.Table{Headers: []string{"foo", "bar"}}, "x.csv")
		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Len(t, schemaErr.Missing, 3)
	})

	t.Run("no_rows", func(t *testing.T) {
		_, err := newTestNormalizer().NormalizeTable(model.Table{Headers: []string{"Start", "End", "Type"}}, "x.csv")
		var emptyErr *EmptyResultError
		require.True(t, errors.As(err, &emptyErr))
		assert.Equal(t, 0, emptyErr.RowsSeen)
	})

	t.Run("all_rows_invalid", func(t *testing.T) {
		table := model.Table{
			Headers: []string{"Start", "End", "Type"},
			Rows:    [][]string{{"x", "y", "web"}, {"", "", ""}},
		}
		_, err := newTestNormalizer().NormalizeTable(table, "x.csv")
		var emptyErr *EmptyResultError
		require.True(t, errors.As(err, &emptyErr))
		assert.Equal(t, 2, emptyErr.RowsSeen)
		assert.Contains(t, err.Error(), "2 rows")
	})
}

func TestNormalizeTableRejectedRows(t *testing.T) {
	table := model.Table{
		Headers: []string{"Start", "End", "Type"},
		Rows: [][]string{
			{"2024-03-01T09:00:00Z", "2024-03-01T09:30:00Z", "web"},
			nil,
			{"2024-03-01T10:00:00Z", "2024-03-01T10:15:00Z", "app"},
		},
		Rejected: map[int]string{1: "invalid JSON on line 2"},
	}

	batch, err := newTestNormalizer().NormalizeTable(table, "events.jsonl")
	require.NoError(t, err)
	assert.Equal(t, 3, batch.TotalRowsSeen)
	assert.Equal(t, 2, batch.RowsKept)
	require.Len(t, batch.Warnings, 1)
	assert.Equal(t, model.RowWarning{Row: 2, Reason: "invalid JSON on line 2", Fatal: true}, batch.Warnings[0])
}

func TestNormalizeTableResilience(t *testing.T) {
	table := model.Table{Headers: []string{"Start", "End", "Type", "Duration"}}
	good := 0
	for i := 0; i < 200; i++ {
		start := base.Add(time.Duration(i) * time.Minute)
		switch i % 4 {
		case 0:
			table.Rows = append(table.Rows, []string{start.Format(time.RFC3339), start.Add(5 * time.Minute).Format(time.RFC3339), "web", "5m"})
			good++
		case 1:
			table.Rows = append(table.Rows, []string{"garbage", "", "app", "??"})
		case 2:
			table.Rows = append(table.Rows, []string{start.Format(time.RFC3339), start.Add(-time.Minute).Format(time.RFC3339), "app", ""})
		case 3:
			table.Rows = append(table.Rows, []string{fmt.Sprint(start.Unix())})
		}
	}

	batch, err := newTestNormalizer().NormalizeTable(table, "noisy.csv")
	require.NoError(t, err)
	assert.Equal(t, 200, batch.TotalRowsSeen)
	assert.Equal(t, good, batch.RowsKept)
	for _, a := range batch.Activities {
		assert.False(t, a.EndTime.Before(a.StartTime))
	}
}

func TestNormalizeRecords(t *testing.T) {
	records := []model.RawActivity{
		{ID: "b", Type: "WebPage", StartTime: "2024-03-01T10:00:00Z", EndTime: "2024-03-01T10:20:00Z", DurationMinutes: 20, URL: "https://docs.example.com"},
		{ID: "a", Type: "Application", Title: "Build", StartTime: "2024-03-01T09:00:00Z", EndTime: "2024-03-01T09:30:00Z", DurationMinutes: 0, ApplicationName: "Terminal"},
		{Type: "Idle", StartTime: "2024-03-01T11:00:00Z", EndTime: "2024-03-01T11:10:00Z", DurationMinutes: 10.4},
		{ID: "bad", Type: "Application", StartTime: "nope", EndTime: "2024-03-01T11:10:00Z"},
	}

	batch, err := newTestNormalizer().NormalizeRecords(records, "u-42", "api")
	require.NoError(t, err)

	assert.Equal(t, 4, batch.TotalRowsSeen)
	assert.Equal(t, 3, batch.RowsKept)
	require.Len(t, batch.Activities, 3)

	assert.Equal(t, "a", batch.Activities[0].ID)
	assert.Equal(t, "Build", batch.Activities[0].Title)
	assert.Equal(t, 30, batch.Activities[0].DurationMinutes)
	assert.Equal(t, "u-42", batch.Activities[0].Username)

	assert.Equal(t, "b", batch.Activities[1].ID)
	assert.Equal(t, "docs.example.com", batch.Activities[1].Title)

	assert.Equal(t, "id-1", batch.Activities[2].ID)
	assert.Equal(t, model.TypeIdle, batch.Activities[2].Type)
	assert.Equal(t, 10, batch.Activities[2].DurationMinutes)
}

func TestNormalizeRecordsWithoutUser(t *testing.T) {
	records := []model.RawActivity{{Type: "web", StartTime: "2024-03-01T10:00:00Z", EndTime: "2024-03-01T10:01:00Z"}}
	batch, err := newTestNormalizer().NormalizeRecords(records, "", "api")
	require.NoError(t, err)
	assert.Empty(t, batch.Activities[0].Username)
	assert.False(t, batch.HasUsernames())
}

func TestNormalizeRecordsEmpty(t *testing.T) {
	_, err := newTestNormalizer().NormalizeRecords(nil, "u", "api")
	var emptyErr *EmptyResultError
	assert.True(t, errors.As(err, &emptyErr))
}

func TestNewUsesUUIDs(t *testing.T) {
	table := model.Table{
		Headers: []string{"Start", "End", "Type"},
		Rows:    [][]string{{"1700000000", "1700000060", "web"}, {"1700000000", "1700000060", "web"}},
	}
	batch, err := New().NormalizeTable(table, "ids.csv")
	require.NoError(t, err)
	assert.Len(t, batch.Activities[0].ID, 36)
	assert.NotEqual(t, batch.Activities[0].ID, batch.Activities[1].ID)
}
