package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "handoff"

// Metrics holds the pipeline's Prometheus collectors. It satisfies
// pipeline.Recorder.
type Metrics struct {
	RunsTotal    *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	BytesIn      prometheus.Counter
	BytesOut     prometheus.Counter
	Handoffs     *prometheus.CounterVec
	WaitDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of a pipeline run",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		BytesIn: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "input_bytes_total",
				Help:      "Input bytes transformed",
			},
		),
		BytesOut: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "output_bytes_total",
				Help:      "Output bytes produced",
			},
		),
		Handoffs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handoffs_total",
				Help:      "Completed handoffs by phase",
			},
			[]string{"phase"},
		),
		WaitDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "barrier_wait_seconds",
				Help:      "Time spent blocked on a barrier",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"side"},
		),
	}
}

// RunFinished records one run.
func (m *Metrics) RunFinished(outcome string, in, out int, d time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
	if outcome == "ok" {
		m.BytesIn.Add(float64(in))
		m.BytesOut.Add(float64(out))
	}
}

// Handoff records a completed handoff and how long its waiter blocked.
func (m *Metrics) Handoff(phase int, side string, wait time.Duration) {
	if side == "producer" {
		m.Handoffs.WithLabelValues(strconv.Itoa(phase)).Inc()
	}
	m.WaitDuration.WithLabelValues(side).Observe(wait.Seconds())
}
