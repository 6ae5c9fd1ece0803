package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-activity-timeline/internal/analyzer"
	"github.com/penwyp/go-activity-timeline/internal/application/view"
	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/data/parser"
	"github.com/penwyp/go-activity-timeline/internal/server"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

var (
	serveAddr  string
	serveWatch bool

	serveCmd = &cobra.Command{
		Use:   "serve [files...]",
		Short: "Serve the loaded activities over HTTP",
		Long: `Serve summaries, timelines and hourly breakdowns of the loaded activities
as JSON. Data can be preloaded from files, a directory or the activity API,
uploaded to /v1/upload or fetched through /v1/load. Prometheus metrics are
exposed on /metrics.

Examples:
  go-activity-timeline serve
  go-activity-timeline serve --dir ./exports --watch
  go-activity-timeline serve --addr 127.0.0.1:9000 export.csv`,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default ACTIVITY_TIMELINE_ADDRESS or :8080)")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Reload when the input files change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ac := analyzerConfig(cfg, args)
	a, err := analyzer.New(ac)
	if err != nil {
		return err
	}

	v := view.New(a.Location(), cfg.MinViewportMinutes)
	handler := server.NewHandler(view.NewLoader(v), a, server.NewMetrics())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(ac.Files) > 0 || ac.DataDir != "" || ac.User != "" {
		if batch, err := handler.Load(ctx, a.Load); err != nil {
			util.LogWarnf("Initial load failed: %v", err)
		} else {
			analyzer.WriteQuality(cmd.ErrOrStderr(), batch)
		}
	}

	if serveWatch {
		fw, err := watchInputs(ac)
		if err != nil {
			return err
		}
		defer fw.Close()
		go fw.Run(ctx, view.DefaultDebounce, func(paths []string) {
			util.LogInfof("Reloading after %d changed files", len(paths))
			go reload(ctx, handler.Load, a)
		})
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Address
	}
	srv := server.NewServer(server.ServerConfig{
		Address:      addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}, handler.Routes())
	return server.Run(ctx, srv, cfg.ShutdownTimeout)
}

// watchInputs watches the explicit files, or the data directory.
func watchInputs(ac *analyzer.Config) (*view.FileWatcher, error) {
	paths := ac.Files
	if len(paths) == 0 && ac.DataDir != "" {
		paths = []string{ac.DataDir}
	}
	if len(paths) == 0 {
		return nil, errors.New("--watch needs input files or --dir")
	}
	return view.NewFileWatcher(paths, parser.SupportedExtensions)
}

func reload(ctx context.Context, load func(context.Context, view.LoadFunc) (*model.ParsedBatch, error), a *analyzer.Analyzer) {
	_, err := load(ctx, a.Load)
	switch {
	case err == nil, errors.Is(err, view.ErrSuperseded), errors.Is(err, context.Canceled):
	default:
		util.LogErrorf("Reload failed: %v", err)
	}
}
