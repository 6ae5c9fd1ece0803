package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-activity-timeline/internal/analyzer"
	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// loadBatch runs the shared setup, loads the configured input and reports
// data quality on stderr.
func loadBatch(cmd *cobra.Command, args []string) (*analyzer.Analyzer, *model.ParsedBatch, error) {
	cfg, err := setup()
	if err != nil {
		return nil, nil, err
	}
	a, err := analyzer.New(analyzerConfig(cfg, args))
	if err != nil {
		return nil, nil, err
	}

	batch, err := a.Load(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	analyzer.WriteQuality(cmd.ErrOrStderr(), batch)
	return a, batch, nil
}

// resolveDay returns the --date day, or the first day the batch covers.
func resolveDay(a *analyzer.Analyzer, batch *model.ParsedBatch) (time.Time, error) {
	day, err := a.Day()
	if err != nil {
		return time.Time{}, err
	}
	if day.IsZero() {
		if len(batch.Activities) == 0 {
			return time.Time{}, errors.New("no activities loaded")
		}
		day = batch.CoveredRange.Start
	}
	return window.StartOfDay(day, a.Location()), nil
}

func useColor() bool {
	return !noColor && util.StdoutIsTerminal()
}
