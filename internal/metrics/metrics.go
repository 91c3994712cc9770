// Package metrics exposes prometheus collectors for the monitoring loop,
// pipeline runs and publishing. A nil *Metrics records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "listingcast"

// Metrics owns a dedicated registry so tests and multiple daemons never collide.
type Metrics struct {
	registry      *prometheus.Registry
	pipelineRuns  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	monitorPolls  *prometheus.CounterVec
	monitorItems  *prometheus.CounterVec
	queueFallback prometheus.Counter
	publish       *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		pipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),
		monitorPolls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_polls_total",
			Help:      "Queue polls by result.",
		}, []string{"result"}),
		monitorItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_items_total",
			Help:      "Work items handled by the monitoring loop, by result.",
		}, []string{"result"}),
		queueFallback: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_fallback_total",
			Help:      "Polls answered from the built-in sample items because no queue strategy connected.",
		}),
		publish: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Publish attempts by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// PipelineRun counts a finished run.
func (m *Metrics) PipelineRun(outcome string) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// MonitorPoll counts a poll; result is ok or error.
func (m *Metrics) MonitorPoll(result string) {
	if m == nil {
		return
	}
	m.monitorPolls.WithLabelValues(result).Inc()
}

// MonitorItem counts an item handled by the loop.
func (m *Metrics) MonitorItem(result string) {
	if m == nil {
		return
	}
	m.monitorItems.WithLabelValues(result).Inc()
}

// QueueFallback counts a poll served from sample items.
func (m *Metrics) QueueFallback() {
	if m == nil {
		return
	}
	m.queueFallback.Inc()
}

// PublishResult counts a publish attempt.
func (m *Metrics) PublishResult(result string) {
	if m == nil {
		return
	}
	m.publish.WithLabelValues(result).Inc()
}
