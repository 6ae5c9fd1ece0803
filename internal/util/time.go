package util

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DateLayout is the layout of --date style arguments.
const DateLayout = "2006-01-02"

// TimeProvider holds the timezone used to read zone-less timestamps and to
// draw day and hour boundaries.
type TimeProvider struct {
	location *time.Location
	mu       sync.RWMutex
}

var (
	globalTimeProvider *TimeProvider
	mu                 sync.Mutex
)

// NewTimeProvider returns a provider fixed to loc.
func NewTimeProvider(loc *time.Location) *TimeProvider {
	if loc == nil {
		loc = time.Local
	}
	return &TimeProvider{location: loc}
}

// InitializeTimeProvider installs the global provider for timezone.
func InitializeTimeProvider(timezone string) error {
	provider := &TimeProvider{}
	if err := provider.SetTimezone(timezone); err != nil {
		return err
	}

	mu.Lock()
	globalTimeProvider = provider
	mu.Unlock()
	return nil
}

// GetTimeProvider returns the global provider, defaulting to Local.
func GetTimeProvider() *TimeProvider {
	mu.Lock()
	defer mu.Unlock()
	if globalTimeProvider == nil {
		globalTimeProvider = &TimeProvider{location: time.Local}
	}
	return globalTimeProvider
}

// LoadTimezone resolves "", "Local" and IANA names.
func LoadTimezone(timezone string) (*time.Location, error) {
	timezone = strings.TrimSpace(timezone)
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/New_York, Asia/Shanghai, Europe/London", timezone, err)
	}
	return loc, nil
}

func (tp *TimeProvider) SetTimezone(timezone string) error {
	loc, err := LoadTimezone(timezone)
	if err != nil {
		return err
	}
	tp.mu.Lock()
	tp.location = loc
	tp.mu.Unlock()
	return nil
}

// Location returns the configured zone.
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

func (tp *TimeProvider) Now() time.Time {
	return time.Now().In(tp.Location())
}

func (tp *TimeProvider) In(t time.Time) time.Time {
	return t.In(tp.Location())
}

func (tp *TimeProvider) Format(t time.Time, layout string) string {
	return t.In(tp.Location()).Format(layout)
}

// StartOfDay returns local midnight of the day containing t.
func (tp *TimeProvider) StartOfDay(t time.Time) time.Time {
	t = t.In(tp.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate reads YYYY-MM-DD as local midnight. "today" and "yesterday"
// are accepted too.
func (tp *TimeProvider) ParseDate(s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return tp.StartOfDay(tp.Now()), nil
	case "yesterday":
		return tp.StartOfDay(tp.Now()).AddDate(0, 0, -1), nil
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), tp.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}
