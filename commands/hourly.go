package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/presentation/formatter"
)

var (
	hourlyHour   int
	hourlyAll    bool
	hourlyOutput string

	hourlyCmd = &cobra.Command{
		Use:   "hourly [files...]",
		Short: "Show one row per clock hour of a day",
		Long: `Show how each clock hour of one day was spent. Activities crossing an
hour boundary are split between the hours they touch.

Examples:
  go-activity-timeline hourly export.csv --date 2024-03-01
  go-activity-timeline hourly export.csv --hour 14 -o json`,
		RunE: runHourly,
	}
)

func init() {
	hourlyCmd.Flags().IntVar(&hourlyHour, "hour", -1, "Show a single hour (0-23)")
	hourlyCmd.Flags().BoolVar(&hourlyAll, "all", false, "Include hours without activity")
	hourlyCmd.Flags().StringVarP(&hourlyOutput, "output", "o", "text", "Output format (text, json)")
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(cmd *cobra.Command, args []string) error {
	if hourlyHour < -1 || hourlyHour > 23 {
		return fmt.Errorf("--hour must be within 0-23, got %d", hourlyHour)
	}

	a, batch, err := loadBatch(cmd, args)
	if err != nil {
		return err
	}
	day, err := resolveDay(a, batch)
	if err != nil {
		return err
	}

	var hours []report.Hour
	if hourlyHour >= 0 {
		hours = []report.Hour{report.BuildHour(batch.Activities, day, hourlyHour)}
	} else {
		hours = report.BuildHourly(batch.Activities, day)
	}

	switch hourlyOutput {
	case "json":
		return formatter.WriteJSON(cmd.OutOrStdout(), hours)
	case "text", "":
		r := formatter.NewHourlyRenderer(useColor())
		r.SkipEmpty = !hourlyAll && hourlyHour < 0
		return r.Render(cmd.OutOrStdout(), hours)
	default:
		return fmt.Errorf("unsupported output format: %s", hourlyOutput)
	}
}
