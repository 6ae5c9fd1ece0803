package window

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock reads HH:MM as minutes from midnight, returning def for an
// empty string. 24:00 is accepted as the end of the day.
func ParseClock(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	return float64(h*60 + m), nil
}
