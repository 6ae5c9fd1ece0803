package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// SummaryFormatter writes a plain text report of a summary.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// FormatSummary writes the totals, the type allocation and the groups.
func (f *SummaryFormatter) FormatSummary(w io.Writer, s *report.Summary) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Activity Summary Report")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)

	if s.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", s.Source)
	}
	switch {
	case s.Day != "":
		fmt.Fprintf(&b, "Day: %s\n", s.Day)
	case !s.CoveredRange.Start.IsZero():
		start := s.CoveredRange.Start.Format(util.DateLayout)
		end := s.CoveredRange.End.Format(util.DateLayout)
		if start == end {
			fmt.Fprintf(&b, "Date Range: %s\n", start)
		} else {
			fmt.Fprintf(&b, "Date Range: %s to %s\n", start, end)
		}
	}
	fmt.Fprintf(&b, "Rows: %s kept of %s (%d warnings)\n",
		util.FormatNumber(s.RowsKept), util.FormatNumber(s.RowsSeen), s.WarningCount)
	fmt.Fprintln(&b)

	if s.ActivityCount == 0 {
		fmt.Fprintln(&b, "No activity to summarize")
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, rule)
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintln(&b, "Time Breakdown:")
	fmt.Fprintf(&b, "  Active:        %s\n", util.FormatMinutes(s.ActiveMinutes))
	fmt.Fprintf(&b, "  Idle:          %s\n", util.FormatMinutes(s.IdleMinutes))
	fmt.Fprintf(&b, "  Reported Sum:  %s\n", util.FormatMinutes(s.RawMinutes))
	if overlap := s.RawMinutes - s.ActiveMinutes; overlap > 0 {
		fmt.Fprintf(&b, "  Overlap:       %s\n", util.FormatMinutes(overlap))
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "By Type:")
	for _, t := range s.Types {
		fmt.Fprintf(&b, "  %s %s %s\n",
			util.PadRight(t.Label+":", 14),
			util.PadLeft(util.FormatMinutes(t.AllocatedMinutes), 8),
			util.PadLeft(util.FormatPercent(t.AllocatedMinutes, s.ActiveMinutes), 7))
	}
	if s.UnattributedMinutes > 0 {
		fmt.Fprintf(&b, "  %s %s\n", util.PadRight("Unattributed:", 14),
			util.PadLeft(util.FormatMinutes(s.UnattributedMinutes), 8))
	}
	fmt.Fprintln(&b)

	if len(s.Groups) > 0 && s.GroupBy != "type" {
		fmt.Fprintf(&b, "By %s:\n", strings.ToUpper(s.GroupBy[:1])+s.GroupBy[1:])
		fmt.Fprintln(&b, util.FormatSectionSeparator(60))
		for _, g := range s.Groups {
			fmt.Fprintf(&b, "  %s %s  (%d activities)\n",
				util.PadRight(g.Label, 36),
				util.PadLeft(util.FormatMinutes(g.Minutes), 8),
				g.ActivityCount)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, rule)
	_, err := io.WriteString(w, b.String())
	return err
}
