package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
	"github.com/penwyp/go-activity-timeline/internal/presentation/formatter"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

var (
	timelineStart  string
	timelineEnd    string
	timelineWidth  int
	timelineNoList bool
	timelineOutput string

	timelineCmd = &cobra.Command{
		Use:   "timeline [files...]",
		Short: "Draw one day of activity as lanes per type",
		Long: `Draw the merged activity of one day, or a part of it, as one lane per
activity type followed by the list of visible activities.

Examples:
  go-activity-timeline timeline export.csv
  go-activity-timeline timeline export.csv --date 2024-03-01 --start 09:00 --end 12:30
  go-activity-timeline timeline --dir ./exports -o json`,
		RunE: runTimeline,
	}
)

func init() {
	timelineCmd.Flags().StringVar(&timelineStart, "start", "", "Window start (HH:MM, default 00:00)")
	timelineCmd.Flags().StringVar(&timelineEnd, "end", "", "Window end (HH:MM, default 24:00)")
	timelineCmd.Flags().IntVar(&timelineWidth, "width", 0, "Bar area width in cells (0 = fit terminal)")
	timelineCmd.Flags().BoolVar(&timelineNoList, "no-list", false, "Hide the activity list")
	timelineCmd.Flags().StringVarP(&timelineOutput, "output", "o", "text", "Output format (text, json)")
	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, args []string) error {
	start, err := window.ParseClock(timelineStart, 0)
	if err != nil {
		return err
	}
	end, err := window.ParseClock(timelineEnd, window.MinutesPerDay)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("--end %s must be after --start %s", timelineEnd, timelineStart)
	}

	a, batch, err := loadBatch(cmd, args)
	if err != nil {
		return err
	}
	day, err := resolveDay(a, batch)
	if err != nil {
		return err
	}

	w := window.FromMinutes(day, start, end)
	tl := report.BuildTimeline(batch.Activities, w)
	util.LogDebugf("Timeline %s - %s: %d bars", w.Start.Format("15:04"), w.End.Format("15:04"), len(tl.Bars))

	switch timelineOutput {
	case "json":
		return formatter.WriteJSON(cmd.OutOrStdout(), tl)
	case "text", "":
		r := formatter.NewTimelineRenderer(useColor())
		if timelineWidth > 0 {
			r.Width = timelineWidth
		}
		r.List = !timelineNoList
		return r.Render(cmd.OutOrStdout(), tl)
	default:
		return fmt.Errorf("unsupported output format: %s", timelineOutput)
	}
}
