package window

import (
	"math"
	"time"
)

// DefaultMinWidthMinutes is the finest zoom level.
const DefaultMinWidthMinutes = 15.0

// Viewport is the visible part of one day on the scrolling timeline,
// expressed in minutes from DayStart.
type Viewport struct {
	DayStart     time.Time `json:"dayStart"`
	StartMinute  float64   `json:"startMinute"`
	WidthMinutes float64   `json:"widthMinutes"`
	MinWidth     float64   `json:"minWidth"`
}

// NewViewport returns a viewport showing the whole day.
func NewViewport(dayStart time.Time, minWidth float64) Viewport {
	if minWidth <= 0 {
		minWidth = DefaultMinWidthMinutes
	}
	if minWidth > MinutesPerDay {
		minWidth = MinutesPerDay
	}
	return Viewport{
		DayStart:     dayStart,
		StartMinute:  0,
		WidthMinutes: MinutesPerDay,
		MinWidth:     minWidth,
	}
}

// Clamp keeps the width within [MinWidth, one day] and the start within
// [0, 1440-width]. A NaN width falls back to the whole day and a NaN start
// to 0.
func (v Viewport) Clamp() Viewport {
	minWidth := v.MinWidth
	if !finite(minWidth) || minWidth <= 0 {
		minWidth = DefaultMinWidthMinutes
	}
	if minWidth > MinutesPerDay {
		minWidth = MinutesPerDay
	}
	v.MinWidth = minWidth
	if math.IsNaN(v.WidthMinutes) {
		v.WidthMinutes = MinutesPerDay
	}
	if math.IsNaN(v.StartMinute) {
		v.StartMinute = 0
	}
	if v.WidthMinutes < minWidth {
		v.WidthMinutes = minWidth
	}
	if v.WidthMinutes > MinutesPerDay {
		v.WidthMinutes = MinutesPerDay
	}
	if v.StartMinute < 0 {
		v.StartMinute = 0
	}
	if maxStart := MinutesPerDay - v.WidthMinutes; v.StartMinute > maxStart {
		v.StartMinute = maxStart
	}
	return v
}

// Zoom scales the width by factor (< 1 zooms in) keeping anchorMinute at the
// same relative position on screen.
func (v Viewport) Zoom(factor, anchorMinute float64) Viewport {
	if !finite(factor) || factor <= 0 {
		return v.Clamp()
	}
	v = v.Clamp()
	if !finite(anchorMinute) {
		anchorMinute = v.StartMinute + v.WidthMinutes/2
	}
	relative := 0.5
	if v.WidthMinutes > 0 {
		relative = (anchorMinute - v.StartMinute) / v.WidthMinutes
	}
	if relative < 0 || relative > 1 {
		relative = 0.5
	}

	width := v.WidthMinutes * factor
	if width < v.MinWidth {
		width = v.MinWidth
	}
	if width > MinutesPerDay {
		width = MinutesPerDay
	}
	v.StartMinute = anchorMinute - relative*width
	v.WidthMinutes = width
	return v.Clamp()
}

// Pan moves the viewport by delta minutes.
func (v Viewport) Pan(delta float64) Viewport {
	if !finite(delta) {
		return v.Clamp()
	}
	v.StartMinute += delta
	return v.Clamp()
}

// Window converts the clamped viewport to an absolute window.
func (v Viewport) Window() Window {
	c := v.Clamp()
	return FromMinutes(c.DayStart, c.StartMinute, c.StartMinute+c.WidthMinutes)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
