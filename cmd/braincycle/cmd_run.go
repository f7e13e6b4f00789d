package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/neurolab/braincycle-go/brain"
	"github.com/neurolab/braincycle-go/brain/emit"
	"github.com/neurolab/braincycle-go/pipeline"
)

var (
	metricsAddr string
	enableTrace bool
)

// runCmd executes the full pipeline
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: process, analyze, visualize",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runID := uuid.NewString()
		logger.Info("starting pipeline run", zap.String("run_id", runID))

		metrics, stopMetrics := serveMetrics(metricsAddr)
		defer stopMetrics()

		emitter := buildEmitter(ctx)

		engine, closer, err := pipeline.Build(cfg, logger, emitter, metrics, runID)
		if err != nil {
			return err
		}
		defer closer()

		start := time.Now()
		final, err := engine.Run(ctx, runID, pipeline.State{})
		if err != nil {
			return fmt.Errorf("pipeline run %s failed: %w", runID, err)
		}

		logger.Info("pipeline complete",
			zap.String("run_id", runID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("graphs", len(final.GraphFiles)),
			zap.Int("cycles", final.Stats.TotalCycles),
			zap.Strings("hubs", final.Hubs),
			zap.Int("figures", len(final.Figures)))
		for _, w := range final.Warnings {
			logger.Warn(w)
		}
		return nil
	},
}

// serveMetrics starts a Prometheus endpoint on addr and returns the
// metrics sink plus a shutdown func. An empty addr disables metrics and
// returns a nil sink.
func serveMetrics(addr string) (*brain.PrometheusMetrics, func()) {
	if addr == "" {
		return nil, func() {}
	}

	registry := prometheus.NewRegistry()
	metrics := brain.NewPrometheusMetrics(registry)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return metrics, func() { _ = srv.Close() }
}

// buildEmitter wires pipeline events to zap, plus OTel spans when
// tracing is enabled.
func buildEmitter(ctx context.Context) emit.Emitter {
	zemit := emit.NewZapEmitter(logger.Named("events"))
	if !enableTrace {
		return zemit
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		logger.Warn("tracing disabled: exporter init failed", zap.Error(err))
		return zemit
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	go func() {
		<-ctx.Done()
		_ = tp.Shutdown(context.Background())
	}()

	return emit.NewMultiEmitter(zemit, emit.NewOTelEmitter(tp.Tracer("braincycle")))
}

func init() {
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().BoolVar(&enableTrace, "trace", false, "emit OpenTelemetry spans for pipeline events")
}
