package model

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "full_url", raw: "https://www.GitHub.com/penwyp/repo", expected: "github.com"},
		{name: "bare_domain", raw: "news.ycombinator.com", expected: "news.ycombinator.com"},
		{name: "bare_domain_with_path", raw: "example.org/a/b", expected: "example.org"},
		{name: "with_port", raw: "http://localhost:8080/x", expected: "localhost"},
		{name: "empty", raw: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractDomain(tt.raw))
		})
	}
}

func TestActivityInterval(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := Activity{StartTime: start, EndTime: start.Add(90 * time.Minute)}

	iv := a.Interval()
	assert.Equal(t, start, iv.Start)
	assert.Equal(t, 90*time.Minute, iv.Duration())
}

func TestRawActivityUnmarshal(t *testing.T) {
	data := `{"id":"a1","type":"Application","title":"Editor","startTime":"2024-03-01T09:00:00Z","endTime":"2024-03-01T09:30:00Z","durationMinutes":30,"applicationName":"code"}`

	var raw RawActivity
	require.NoError(t, sonic.UnmarshalString(data, &raw))
	assert.Equal(t, "Application", raw.Type)
	assert.Equal(t, 30.0, raw.DurationMinutes)
	assert.Equal(t, "code", raw.ApplicationName)
	assert.Empty(t, raw.URL)
}

func TestParsedBatchCounters(t *testing.T) {
	b := &ParsedBatch{
		TotalRowsSeen: 10,
		RowsKept:      7,
		Activities:    []Activity{{ID: "1"}, {ID: "2", Username: "alice"}},
	}
	assert.Equal(t, 3, b.RowsSkipped())
	assert.True(t, b.HasUsernames())

	b.Activities[1].Username = ""
	assert.False(t, b.HasUsernames())
}
