package normalizer

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	compositeDuration = regexp.MustCompile(`(?i)^(?:(\d+(?:\.\d+)?)\s*h(?:ours?|rs?)?)?\s*(?:(\d+(?:\.\d+)?)\s*m(?:in(?:ute)?s?)?)?\s*(?:(\d+(?:\.\d+)?)\s*s(?:ec(?:ond)?s?)?)?$`)
	clockDuration     = regexp.MustCompile(`^(\d+):([0-5]?\d):([0-5]?\d)$`)
	bareSeconds       = regexp.MustCompile(`^\d+$`)
)

// ParseDuration reads a duration cell and returns its length in seconds.
// Accepted forms: "1h 2m 30s" with any subset of the parts, a bare integer
// of seconds, or "HH:MM:SS". ok is false for anything else.
func ParseDuration(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	if bareSeconds.MatchString(raw) {
		v, err := strconv.ParseFloat(raw, 64)
		return v, err == nil
	}

	if m := clockDuration.FindStringSubmatch(raw); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		return float64(h*3600 + min*60 + sec), true
	}

	m := compositeDuration.FindStringSubmatch(raw)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, false
	}
	total := 0.0
	for i, unit := range []float64{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, false
		}
		total += v * unit
	}
	return total, true
}
