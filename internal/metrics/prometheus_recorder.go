package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "treetracer"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
	traceRecords    *prom.CounterVec
	discoveredFiles *prom.CounterVec
	renamedFiles    *prom.CounterVec
	missingTrees    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the collectors on reg (a fresh
// registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline node builds",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build pass duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build passes by final status",
		}, []string{"outcome"}),
		traceRecords: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "trace_records_total",
			Help:      "Trace records emitted per traced stage",
		}, []string{"identity", "empty"}),
		discoveredFiles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "discovered_files_total",
			Help:      "Files observed passing through traced stages",
		}, []string{"identity"}),
		renamedFiles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "renamed_files_total",
			Help:      "Destination paths rewritten with a stage suffix",
		}, []string{"identity", "kind"}),
		missingTrees: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "missing_trees_total",
			Help:      "Wrap sites that had no tree to trace",
		}, []string{"identity"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.buildOutcome,
		pr.traceRecords, pr.discoveredFiles, pr.renamedFiles, pr.missingTrees)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcome) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncTraceRecord(identity string, empty bool) {
	if p == nil {
		return
	}
	p.traceRecords.WithLabelValues(identity, strconv.FormatBool(empty)).Inc()
}

func (p *PrometheusRecorder) AddDiscoveredFiles(identity string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.discoveredFiles.WithLabelValues(identity).Add(float64(n))
}

func (p *PrometheusRecorder) IncRenamedFile(identity, kind string) {
	if p == nil {
		return
	}
	p.renamedFiles.WithLabelValues(identity, kind).Inc()
}

func (p *PrometheusRecorder) IncMissingTree(identity string) {
	if p == nil {
		return
	}
	p.missingTrees.WithLabelValues(identity).Inc()
}

// HTTPHandler returns an http.Handler that serves metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
