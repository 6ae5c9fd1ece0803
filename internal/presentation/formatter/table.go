package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{"Group", "Merged", "Raw Sum", "Activities", "Share"},
	}
}

func (f *TableFormatter) FormatSummary(w io.Writer, s *report.Summary) error {
	rows := make([][]string, 0, len(s.Groups)+1)
	var raw float64
	var count int
	for _, g := range s.Groups {
		rows = append(rows, []string{
			g.Label,
			util.FormatMinutes(g.Minutes),
			util.FormatMinutes(g.RawMinutes),
			fmt.Sprintf("%d", g.ActivityCount),
			util.FormatPercent(g.Minutes, s.ActiveMinutes),
		})
		raw += g.RawMinutes
		count += g.ActivityCount
	}
	// group totals overlap across groups, so the total row carries the merged active time
	total := []string{
		"Total",
		util.FormatMinutes(s.ActiveMinutes),
		util.FormatMinutes(raw),
		fmt.Sprintf("%d", count),
		"",
	}
	// time outside the groups
	var extra [][]string
	if s.IdleMinutes > 0 {
		extra = append(extra, []string{model.TypeIdle.Label(), util.FormatMinutes(s.IdleMinutes), "", "", ""})
	}
	if s.UnattributedMinutes > 0 {
		extra = append(extra, []string{model.UnattributedKey, util.FormatMinutes(s.UnattributedMinutes), "", "",
			util.FormatPercent(s.UnattributedMinutes, s.ActiveMinutes)})
	}

	all := append(append(append([][]string{}, rows...), total), extra...)
	widths := f.calculateColumnWidths(all)

	tw := &tableWriter{w: w}
	tw.border(widths, "top")
	tw.row(f.headers, widths)
	tw.border(widths, "middle")
	for _, r := range rows {
		tw.row(r, widths)
	}
	tw.border(widths, "middle")
	tw.row(total, widths)
	for _, r := range extra {
		tw.row(r, widths)
	}
	tw.border(widths, "bottom")
	return tw.err
}

// calculateColumnWidths determines the width of each column from content
func (f *TableFormatter) calculateColumnWidths(rows [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, h := range f.headers {
		widths[i] = util.GetDisplayWidth(h)
	}
	for _, r := range rows {
		for i, v := range r {
			if n := util.GetDisplayWidth(v); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i := range widths {
		if widths[i] < 8 {
			widths[i] = 8
		}
	}
	// keep labels readable on narrow terminals
	if widths[0] > 40 {
		widths[0] = 40
	}
	return widths
}

type tableWriter struct {
	w   io.Writer
	err error
}

func (t *tableWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

// border prints top, middle or bottom rules
func (t *tableWriter) border(widths []int, kind string) {
	var left, middle, right string
	switch kind {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	default:
		left, middle, right = "└", "┴", "┘"
	}

	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("─", width+2)
	}
	t.printf("%s%s%s\n", left, strings.Join(parts, middle), right)
}

// row prints the first column left-aligned and the rest right-aligned
func (t *tableWriter) row(values []string, widths []int) {
	var b strings.Builder
	b.WriteString("│")
	for i, v := range values {
		b.WriteString(" ")
		if i == 0 {
			b.WriteString(util.PadRight(v, widths[i]))
		} else {
			b.WriteString(util.PadLeft(v, widths[i]))
		}
		b.WriteString(" │")
	}
	t.printf("%s\n", b.String())
}
