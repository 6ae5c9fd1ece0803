package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected ActivityType
	}{
		{name: "web_keyword", raw: "Web Browsing", expected: TypeWebPage},
		{name: "http_keyword", raw: "HTTP request", expected: TypeWebPage},
		{name: "canonical_webpage", raw: "WebPage", expected: TypeWebPage},
		{name: "app_keyword", raw: "Desktop App", expected: TypeApplication},
		{name: "program_keyword", raw: "PROGRAM", expected: TypeApplication},
		{name: "exe_keyword", raw: "chrome.exe", expected: TypeApplication},
		{name: "idle_keyword", raw: "idle", expected: TypeIdle},
		{name: "lock_keyword", raw: "Screen Locked", expected: TypeIdle},
		{name: "away_keyword", raw: "Away", expected: TypeIdle},
		{name: "web_wins_over_app", raw: "webapp", expected: TypeWebPage},
		{name: "empty", raw: "", expected: TypeOther},
		{name: "whitespace", raw: "   ", expected: TypeOther},
		{name: "unknown", raw: "meeting", expected: TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyType(tt.raw))
		})
	}
}

func TestTypeStyles(t *testing.T) {
	styles := TypeStyles()
	assert.Len(t, styles, 4)
	for i, s := range styles {
		assert.Equal(t, i, s.Order)
		assert.NotEmpty(t, s.Label)
		assert.Regexp(t, `^#[0-9a-f]{6}$`, s.Color)
	}

	assert.Equal(t, "Web Page", TypeWebPage.Label())
	assert.Equal(t, TypeOther.Style(), ActivityType("bogus").Style())
	assert.False(t, ActivityType("bogus").Valid())
	assert.True(t, TypeIdle.Valid())
}

func TestLabelStyle(t *testing.T) {
	s, ok := LabelStyle("Web Page")
	assert.True(t, ok)
	assert.Equal(t, TypeWebPage, s.Type)

	s, ok = LabelStyle("application")
	assert.True(t, ok)
	assert.Equal(t, TypeApplication, s.Type)

	_, ok = LabelStyle("github.com")
	assert.False(t, ok)
}
