package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name   string
		raw    string
		loc    *time.Location
		want   time.Time
		wantOK bool
	}{
		{"epoch_seconds", "1700000000", time.UTC, time.Unix(1700000000, 0), true},
		{"epoch_millis", "1700000000000", time.UTC, time.Unix(1700000000, 0), true},
		{"epoch_fractional_seconds", "1700000000.5", time.UTC, time.Unix(1700000000, 500000000), true},
		{"named_iso_like", "2024-03-01 09:30:00", time.UTC, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), true},
		{"named_without_seconds", "2024-03-01 09:30", time.UTC, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), true},
		{"named_us_12h", "03/01/2024 2:15 PM", time.UTC, time.Date(2024, 3, 1, 14, 15, 0, 0, time.UTC), true},
		{"named_dotted", "01.03.2024 08:00:00", time.UTC, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), true},
		{"named_month_name", "Mar 1, 2024 3:04:05 PM", time.UTC, time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC), true},
		{"named_in_location", "2024-03-01 09:30:00", ny, time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC), true},
		{"rfc3339", "2024-03-01T09:30:00Z", ny, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), true},
		{"rfc3339_offset", "2024-03-01T09:30:00+02:00", time.UTC, time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC), true},
		{"rfc3339_nano", "2024-03-01T09:30:00.123Z", time.UTC, time.Date(2024, 3, 1, 9, 30, 0, 123000000, time.UTC), true},
		{"iso_without_zone", "2024-03-01T09:30:00", time.UTC, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), true},
		{"surrounding_space", "  1700000000 ", time.UTC, time.Unix(1700000000, 0), true},
		{"empty", "", time.UTC, time.Time{}, false},
		{"garbage", "yesterday-ish", time.UTC, time.Time{}, false},
		{"not_a_number", "1e12", time.UTC, time.Time{}, false},
		{"epoch_millis_last_valid", "253402300799999", time.UTC, time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC), true},
		{"epoch_millis_past_year_9999", "253402300800000", time.UTC, time.Time{}, false},
		{"epoch_overflowing_int64", "99999999999999999999999", time.UTC, time.Time{}, false},
		{"epoch_huge_negative", "-99999999999999999999", time.UTC, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.raw, tt.loc, DefaultStrategies())
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
			}
		})
	}
}

func TestParseTimestampStrategyOrder(t *testing.T) {
	// 01/02/2024 is January 2nd under the default month-first layouts
	got, ok := ParseTimestamp("01/02/2024 10:00", time.UTC, DefaultStrategies())
	require.True(t, ok)
	assert.Equal(t, time.January, got.Month())

	dayFirst := []Strategy{{Kind: NamedFormat, Layout: "02/01/2006 15:04"}}
	got, ok = ParseTimestamp("01/02/2024 10:00", time.UTC, dayFirst)
	require.True(t, ok)
	assert.Equal(t, time.February, got.Month())
}

func TestParseTimestampRestrictedStrategies(t *testing.T) {
	onlyISO := []Strategy{{Kind: ISO8601}}
	_, ok := ParseTimestamp("1700000000", time.UTC, onlyISO)
	assert.False(t, ok)

	onlySeconds := []Strategy{{Kind: EpochSeconds}}
	_, ok = ParseTimestamp("1700000000000", time.UTC, onlySeconds)
	assert.False(t, ok, "millisecond magnitudes are not read as seconds")
}

func TestStrategyKindString(t *testing.T) {
	assert.Equal(t, "epoch-seconds", EpochSeconds.String())
	assert.Equal(t, "named-format", NamedFormat.String())
	assert.Equal(t, "unknown", StrategyKind(99).String())
}
