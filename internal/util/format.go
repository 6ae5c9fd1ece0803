package util

import (
	"fmt"
	"math"
)

// FormatNumber abbreviates large counts.
func FormatNumber(n int) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1000000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// FormatMinutes renders fractional minutes rounded to the nearest minute,
// e.g. "2h 05m" or "45m".
func FormatMinutes(minutes float64) string {
	total := int(math.Round(minutes))
	if total < 0 {
		total = 0
	}
	hours := total / 60
	mins := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// FormatPercent renders part/total as a percentage with one decimal.
func FormatPercent(part, total float64) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", part/total*100)
}

// FormatClock renders a minute offset from midnight as HH:MM.
func FormatClock(minuteOfDay float64) string {
	m := int(math.Round(minuteOfDay))
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
