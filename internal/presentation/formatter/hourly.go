package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// HourlyRenderer draws one row per clock hour. Each cell shows the type of
// the first non-idle bar covering it, or idle when only idle time does.
type HourlyRenderer struct {
	Width     int
	Color     bool
	SkipEmpty bool
}

// NewHourlyRenderer uses one cell per minute.
func NewHourlyRenderer(color bool) *HourlyRenderer {
	return &HourlyRenderer{Width: 60, Color: color}
}

func (r *HourlyRenderer) Render(w io.Writer, hours []report.Hour) error {
	var b strings.Builder
	var active, idle float64
	for _, h := range hours {
		active += h.ActiveMinutes
		idle += h.IdleMinutes
		if r.SkipEmpty && len(h.Bars) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%02d:00 │%s│ %s %s\n",
			h.Hour,
			r.row(h.Bars),
			util.PadLeft(util.FormatMinutes(h.ActiveMinutes), 4),
			r.idleNote(h.IdleMinutes))
	}
	fmt.Fprintf(&b, "Active %s  Idle %s\n", util.FormatMinutes(active), util.FormatMinutes(idle))
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *HourlyRenderer) idleNote(minutes float64) string {
	if minutes <= 0 {
		return ""
	}
	return "(idle " + util.FormatMinutes(minutes) + ")"
}

func (r *HourlyRenderer) row(bars []report.Bar) string {
	styles := model.TypeStyles()
	lanes := make(map[model.ActivityType][]bool, len(styles))
	for _, style := range styles {
		t := style.Type
		lanes[t] = coveredCells(bars, r.Width, func(bar report.Bar) bool { return bar.Type == t })
	}

	var b strings.Builder
	for i := 0; i < r.Width; i++ {
		cell := emptyCell
		var ansi string
		for _, style := range styles {
			if style.Type == model.TypeIdle || !lanes[style.Type][i] {
				continue
			}
			cell, ansi = filledCell, style.ANSI
			break
		}
		if cell == emptyCell && lanes[model.TypeIdle][i] {
			cell, ansi = "░", model.TypeIdle.Style().ANSI
		}
		if r.Color && ansi != "" {
			cell = util.Colorize(cell, ansi)
		}
		b.WriteString(cell)
	}
	return b.String()
}
