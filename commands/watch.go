package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-activity-timeline/internal/analyzer"
	"github.com/penwyp/go-activity-timeline/internal/application/view"
	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
	"github.com/penwyp/go-activity-timeline/internal/presentation/formatter"
	"github.com/penwyp/go-activity-timeline/internal/presentation/interaction"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

const (
	watchSummary  = "summary"
	watchTable    = "table"
	watchTimeline = "timeline"
	watchHourly   = "hourly"
)

var (
	watchView    string
	watchGroupBy string

	watchCmd = &cobra.Command{
		Use:   "watch [files...]",
		Short: "Re-render a report whenever the input files change",
		Long: `Keep a report on screen and redraw it every time one of the input files
changes. A load that is overtaken by a newer change is dropped.

Examples:
  go-activity-timeline watch export.csv
  go-activity-timeline watch --dir ./exports --view timeline`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().StringVar(&watchView, "view", watchSummary, "Report to show (summary, table, timeline, hourly)")
	watchCmd.Flags().StringVar(&watchGroupBy, "group-by", "type", "Group by field for summary and table")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	switch watchView {
	case watchSummary, watchTable, watchTimeline, watchHourly:
	default:
		return fmt.Errorf("unsupported view: %s", watchView)
	}

	cfg, err := setup()
	if err != nil {
		return err
	}
	ac := analyzerConfig(cfg, args)
	ac.GroupBy = watchGroupBy
	fw, err := watchInputs(ac)
	if err != nil {
		return err
	}
	defer fw.Close()

	a, err := analyzer.New(ac)
	if err != nil {
		return err
	}
	v := view.New(a.Location(), cfg.MinViewportMinutes)
	loader := view.NewLoader(v)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var kr *interaction.KeyboardReader
	out := cmd.OutOrStdout()
	footer := "press Ctrl+C to exit"
	if watchView == watchTimeline {
		kr = interaction.NewKeyboardReader()
		switch err := kr.Start(); {
		case err == nil:
			defer kr.Stop()
			out = interaction.RawWriter{W: out}
			footer = interaction.HelpLine
		case errors.Is(err, interaction.ErrNotTerminal):
			kr = nil
		default:
			util.LogWarnf("Keyboard input disabled: %v", err)
			kr = nil
		}
	}

	clearScreen := util.StdoutIsTerminal()
	var mu sync.Mutex
	draw := func(batch *model.ParsedBatch) {
		mu.Lock()
		defer mu.Unlock()
		if clearScreen {
			fmt.Fprint(out, util.ClearScreen+util.MoveCursorHome)
		}
		if err := renderWatch(out, a, v, batch); err != nil {
			util.LogErrorf("Render failed: %v", err)
			return
		}
		analyzer.WriteQuality(out, batch)
		fmt.Fprintf(out, "Updated %s, %s\n", util.GetTimeProvider().Format(batch.LoadedAt, "15:04:05"), footer)
	}
	if kr != nil {
		go handleKeys(ctx, cancel, kr, v, func() {
			if batch := v.Batch(); batch != nil {
				draw(batch)
			}
		})
	}
	v.OnCommit(draw)

	if _, err := loader.Load(ctx, a.Load); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Load failed: %v\n", err)
	}
	fw.Run(ctx, view.DefaultDebounce, func(paths []string) {
		util.LogDebugf("Changed: %v", paths)
		go reload(ctx, loader.Load, a)
	})
	return nil
}

// handleKeys applies zoom and pan keys to the shared viewport.
func handleKeys(ctx context.Context, quit context.CancelFunc, kr *interaction.KeyboardReader, v *view.View, redraw func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-kr.Events():
			vp := v.Viewport()
			center := vp.StartMinute + vp.WidthMinutes/2
			switch interaction.ActionFor(ev) {
			case interaction.ActionQuit:
				quit()
				return
			case interaction.ActionZoomIn:
				v.Zoom(interaction.ZoomInFactor, center)
			case interaction.ActionZoomOut:
				v.Zoom(interaction.ZoomOutFactor, center)
			case interaction.ActionPanLeft:
				v.Pan(-vp.WidthMinutes * interaction.PanShare)
			case interaction.ActionPanRight:
				v.Pan(vp.WidthMinutes * interaction.PanShare)
			case interaction.ActionReset:
				v.SetRange(0, window.MinutesPerDay)
			default:
				continue
			}
			redraw()
		}
	}
}

func renderWatch(w io.Writer, a *analyzer.Analyzer, v *view.View, batch *model.ParsedBatch) error {
	switch watchView {
	case watchTimeline:
		tl := report.BuildTimeline(batch.Activities, v.Viewport().Window())
		return formatter.NewTimelineRenderer(useColor()).Render(w, tl)
	case watchHourly:
		day, err := resolveDay(a, batch)
		if err != nil {
			return err
		}
		r := formatter.NewHourlyRenderer(useColor())
		r.SkipEmpty = true
		return r.Render(w, report.BuildHourly(batch.Activities, day))
	default:
		summary, err := a.Summarize(batch)
		if err != nil {
			return err
		}
		name := formatter.FormatSummary
		if watchView == watchTable {
			name = formatter.FormatTable
		}
		f, err := formatter.New(name)
		if err != nil {
			return err
		}
		return f.FormatSummary(w, summary)
	}
}
