package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neurolab/braincycle-go/brain/emit"
	"github.com/neurolab/braincycle-go/pipeline"
)

var (
	watchDebounce    time.Duration
	watchMetricsAddr string
)

// watchCmd reruns the pipeline whenever the data directory changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the data directory and rerun the pipeline on changes",
	Long: `Watch runs the full pipeline once, then watches the data directory and
reruns it whenever a .graphml file is created or modified. Bursts of
file events (a dataset being copied in) are debounced into one run.

Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return err
		}
		if err := watcher.Add(cfg.DataDir); err != nil {
			return err
		}

		metrics, stopMetrics := serveMetrics(watchMetricsAddr)
		defer stopMetrics()

		runOnce := func() {
			runID := uuid.NewString()
			engine, closer, err := pipeline.Build(cfg, logger, emit.NewZapEmitter(logger.Named("events")), metrics, runID)
			if err != nil {
				logger.Error("pipeline build failed", zap.Error(err))
				return
			}
			defer closer()

			final, err := engine.Run(ctx, runID, pipeline.State{})
			if err != nil {
				logger.Error("pipeline run failed", zap.String("run_id", runID), zap.Error(err))
				return
			}
			logger.Info("pipeline complete",
				zap.String("run_id", runID),
				zap.Int("cycles", final.Stats.TotalCycles),
				zap.Strings("hubs", final.Hubs))
		}

		logger.Info("watching for connectome changes", zap.String("data_dir", cfg.DataDir))
		runOnce()

		var timer *time.Timer
		pending := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				logger.Info("watch stopped")
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !strings.HasSuffix(event.Name, ".graphml") {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
					continue
				}
				logger.Debug("change detected", zap.String("file", filepath.Base(event.Name)))

				// Debounce: restart the timer on every event in a burst.
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Error("watch error", zap.Error(err))

			case <-pending:
				runOnce()
			}
		}
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "settle time after the last file event before rerunning")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}
