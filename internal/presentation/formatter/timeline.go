package formatter

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

const (
	filledCell = "█"
	emptyCell  = "·"
	laneLabel  = 14
)

// TimelineRenderer draws a window as one lane per activity type.
type TimelineRenderer struct {
	Width int  // cells for the bar area
	Color bool // emit ANSI colors
	List  bool // list the visible bars below the lanes
}

// NewTimelineRenderer sizes the bar area to the terminal.
func NewTimelineRenderer(color bool) *TimelineRenderer {
	width := util.TerminalWidth() - laneLabel - 4
	if width < 24 {
		width = 24
	}
	return &TimelineRenderer{Width: width, Color: color, List: true}
}

// Render writes the lanes, the time axis and the bar list.
func (r *TimelineRenderer) Render(w io.Writer, tl *report.Timeline) error {
	var b strings.Builder
	startLabel := tl.Window.Start.Format("15:04")
	startMinute := float64(tl.Window.Start.Hour()*60 + tl.Window.Start.Minute())
	endLabel := util.FormatClock(startMinute + tl.Window.Duration().Minutes())

	fmt.Fprintf(&b, "%s  %s - %s\n",
		r.paint("Timeline", util.ColorBold),
		tl.Window.Start.Format("2006-01-02 15:04"),
		endLabel)

	for _, style := range model.TypeStyles() {
		cells := coveredCells(tl.Bars, r.Width, func(bar report.Bar) bool { return bar.Type == style.Type })
		fmt.Fprintf(&b, "%s │%s│\n", util.PadRight(style.Label, laneLabel), r.lane(cells, style.ANSI))
	}

	gap := r.Width - len(startLabel) - len(endLabel) + 2
	if gap < 1 {
		gap = 1
	}
	fmt.Fprintf(&b, "%s %s%s%s\n", strings.Repeat(" ", laneLabel), startLabel, strings.Repeat(" ", gap), endLabel)
	fmt.Fprintf(&b, "Active %s  Idle %s\n", util.FormatMinutes(tl.ActiveMinutes), util.FormatMinutes(tl.IdleMinutes))

	if r.List && len(tl.Bars) > 0 {
		b.WriteString("\n")
		for _, bar := range tl.Bars {
			line := fmt.Sprintf("%s-%s  %s %s %s",
				bar.Start.Format("15:04"),
				bar.End.Format("15:04"),
				util.PadRight(bar.Label, 12),
				util.PadLeft(util.FormatMinutes(bar.Minutes), 7),
				bar.Title)
			if bar.Username != "" {
				line += "  (" + bar.Username + ")"
			}
			b.WriteString(line + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *TimelineRenderer) lane(cells []bool, ansi string) string {
	var b strings.Builder
	for _, filled := range cells {
		if filled {
			b.WriteString(r.paint(filledCell, ansi))
		} else {
			b.WriteString(emptyCell)
		}
	}
	return b.String()
}

func (r *TimelineRenderer) paint(text, ansi string) string {
	if !r.Color {
		return text
	}
	return util.Colorize(text, ansi)
}

// coveredCells marks each of width cells that a matching bar overlaps. A bar
// narrower than one cell still marks the cell it starts in.
func coveredCells(bars []report.Bar, width int, match func(report.Bar) bool) []bool {
	cells := make([]bool, width)
	for _, bar := range bars {
		if !match(bar) || bar.Width <= 0 {
			continue
		}
		first := int(math.Floor(bar.Left * float64(width)))
		last := int(math.Ceil((bar.Left+bar.Width)*float64(width))) - 1
		if last < first {
			last = first
		}
		for i := max(first, 0); i <= last && i < width; i++ {
			cells[i] = true
		}
	}
	return cells
}
