package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// StrategyKind tags a timestamp decoding strategy.
type StrategyKind int

const (
	EpochSeconds StrategyKind = iota
	EpochMillis
	NamedFormat
	ISO8601
)

func (k StrategyKind) String() string {
	switch k {
	case EpochSeconds:
		return "epoch-seconds"
	case EpochMillis:
		return "epoch-millis"
	case NamedFormat:
		return "named-format"
	case ISO8601:
		return "iso8601"
	default:
		return "unknown"
	}
}

// Strategy is one way of decoding a timestamp. Layout is only used by
// NamedFormat.
type Strategy struct {
	Kind   StrategyKind
	Layout string
}

// Numeric values above this are epoch milliseconds.
const millisThreshold = 1e11

// Epoch values must land in years 0001 through 9999, the range RFC 3339 and
// JSON encoding of time.Time accept.
const (
	minEpochMillis = -62135596800000
	maxEpochMillis = 253402300799999
)

// NamedLayouts are the human readable formats, tried in order.
var NamedLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 3:04:05 PM",
	"01/02/2006 3:04 PM",
	"2006/01/02 15:04:05",
	"02.01.2006 15:04:05",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 15:04",
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

var numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// DefaultStrategies returns the standard decoding order.
func DefaultStrategies() []Strategy {
	strategies := []Strategy{{Kind: EpochSeconds}, {Kind: EpochMillis}}
	for _, layout := range NamedLayouts {
		strategies = append(strategies, Strategy{Kind: NamedFormat, Layout: layout})
	}
	return append(strategies, Strategy{Kind: ISO8601})
}

// ParseTimestamp tries each strategy in order and returns the first match.
// Values without an explicit offset are read in loc. ok is false when no
// strategy matches.
func ParseTimestamp(raw string, loc *time.Location, strategies []Strategy) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, s := range strategies {
		if t, ok := s.parse(raw, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (s Strategy) parse(raw string, loc *time.Location) (time.Time, bool) {
	switch s.Kind {
	case EpochSeconds, EpochMillis:
		if !numericPattern.MatchString(raw) {
			return time.Time{}, false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(v, 0) {
			return time.Time{}, false
		}
		isMillis := math.Abs(v) > millisThreshold
		if isMillis != (s.Kind == EpochMillis) {
			return time.Time{}, false
		}
		millis := v
		if !isMillis {
			millis = v * 1000
		}
		if millis < minEpochMillis || millis > maxEpochMillis {
			return time.Time{}, false
		}
		if isMillis {
			return time.UnixMilli(int64(math.Round(v))).In(loc), true
		}
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(math.Round(frac*1e9))).In(loc), true
	case NamedFormat:
		t, err := time.ParseInLocation(s.Layout, raw, loc)
		return t, err == nil
	case ISO8601:
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
