// Package brain provides the pipeline execution engine for braincycle-go.
package brain

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics collection for
// pipeline monitoring, e.g. during long watch sessions over a growing
// connectome dataset.
//
// Metrics exposed (all namespaced with "braincycle_"):
//
//  1. stage_latency_ms (histogram): Stage execution duration in milliseconds.
//     Labels: run_id, stage, status (success/error/timeout).
//
//  2. stages_total (counter): Cumulative stage executions.
//     Labels: stage, status.
//
//  3. retries_total (counter): Cumulative stage retry attempts.
//     Labels: run_id, stage.
//
//  4. graph_regions (gauge): Regions in the most recently processed graph.
//
//  5. graph_synapses (gauge): Synapses in the most recently processed graph.
//
//  6. cycles_detected_total (counter): Cycles found across analyze runs.
//     Labels: run_id.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := NewPrometheusMetrics(registry)
//	engine := NewWithOptions(reducer, st, emitter, WithMetrics(metrics))
//
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: all methods delegate to prometheus client primitives.
type PrometheusMetrics struct {
	stageLatency *prometheus.HistogramVec
	stagesTotal  *prometheus.CounterVec
	retries      *prometheus.CounterVec

	graphRegions  prometheus.Gauge
	graphSynapses prometheus.Gauge
	cyclesFound   *prometheus.CounterVec

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers all pipeline metrics with the
// provided Prometheus registry. Pass nil to use the default registerer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.stageLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "braincycle",
		Name:      "stage_latency_ms",
		Help:      "Stage execution duration in milliseconds (from dispatch to completion)",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
	}, []string{"run_id", "stage", "status"})

	pm.stagesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "braincycle",
		Name:      "stages_total",
		Help:      "Cumulative count of stage executions",
	}, []string{"stage", "status"})

	pm.retries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "braincycle",
		Name:      "retries_total",
		Help:      "Cumulative count of stage retry attempts",
	}, []string{"run_id", "stage"})

	pm.graphRegions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "braincycle",
		Name:      "graph_regions",
		Help:      "Number of regions in the most recently processed connectome graph",
	})

	pm.graphSynapses = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "braincycle",
		Name:      "graph_synapses",
		Help:      "Number of synapses in the most recently processed connectome graph",
	})

	pm.cyclesFound = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "braincycle",
		Name:      "cycles_detected_total",
		Help:      "Cycles found by the analyze stage",
	}, []string{"run_id"})

	return pm
}

// RecordStage records the execution of a stage: its latency histogram
// observation and the stages_total increment.
//
// status is one of "success", "error", "timeout".
func (pm *PrometheusMetrics) RecordStage(runID, stage string, latency time.Duration, status string) {
	if !pm.isEnabled() {
		return
	}

	pm.stageLatency.WithLabelValues(runID, stage, status).Observe(float64(latency.Milliseconds()))
	pm.stagesTotal.WithLabelValues(stage, status).Inc()
}

// IncrementRetries increments the retry counter for a stage.
func (pm *PrometheusMetrics) IncrementRetries(runID, stage string) {
	if !pm.isEnabled() {
		return
	}

	pm.retries.WithLabelValues(runID, stage).Inc()
}

// SetGraphSize records the size of the most recently processed graph.
func (pm *PrometheusMetrics) SetGraphSize(regions, synapses int) {
	if !pm.isEnabled() {
		return
	}

	pm.graphRegions.Set(float64(regions))
	pm.graphSynapses.Set(float64(synapses))
}

// AddCyclesDetected adds to the cycle counter for a run.
func (pm *PrometheusMetrics) AddCyclesDetected(runID string, n int) {
	if !pm.isEnabled() || n <= 0 {
		return
	}

	pm.cyclesFound.WithLabelValues(runID).Add(float64(n))
}

func (pm *PrometheusMetrics) isEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
