package internal

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors of one runtime.
// A nil *Metrics records nothing.
type Metrics struct {
	flushes       prometheus.Counter
	flushPasses   prometheus.Histogram
	flushDuration prometheus.Histogram
	effectRuns    *prometheus.CounterVec
	effectSkips   *prometheus.CounterVec
	recomputes    prometheus.Counter
	failures      *prometheus.CounterVec
	cycles        prometheus.Counter
	liveNodes     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg,
// labelled with the runtime name.
func NewMetrics(reg prometheus.Registerer, runtime string) (*Metrics, error) {
	labels := prometheus.Labels{"runtime": runtime}

	m := &Metrics{
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sig",
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: labels,
		}),
		flushPasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "sig",
			Name:        "flush_passes",
			Help:        "Fixed-point passes per flush",
			ConstLabels: labels,
			Buckets:     []float64{1, 2, 3, 5, 10, 25, 50, 100},
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "sig",
			Name:        "flush_duration_seconds",
			Help:        "Flush duration in seconds",
			ConstLabels: labels,
			Buckets:     []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}),
		effectRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sig",
			Name:        "effect_runs_total",
			Help:        "Effect executions by effect type",
			ConstLabels: labels,
		}, []string{"type"}),
		effectSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sig",
			Name:        "effect_skips_total",
			Help:        "Queued effects skipped because no dependency changed",
			ConstLabels: labels,
		}, []string{"type"}),
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sig",
			Name:        "recomputes_total",
			Help:        "Computed re-evaluations",
			ConstLabels: labels,
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sig",
			Name:        "callback_failures_total",
			Help:        "Failed compute and effect callbacks by node kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sig",
			Name:        "cycles_total",
			Help:        "Flushes aborted for exceeding the pass bound",
			ConstLabels: labels,
		}),
		liveNodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "sig",
			Name:        "live_nodes",
			Help:        "Allocated nodes by kind",
			ConstLabels: labels,
		}, []string{"kind"}),
	}

	collectors := []prometheus.Collector{
		m.flushes,
		m.flushPasses,
		m.flushDuration,
		m.effectRuns,
		m.effectSkips,
		m.recomputes,
		m.failures,
		m.cycles,
		m.liveNodes,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) observeFlush(passes int, d time.Duration) {
	if m == nil {
		return
	}
	m.flushes.Inc()
	m.flushPasses.Observe(float64(passes))
	m.flushDuration.Observe(d.Seconds())
}

func (m *Metrics) effectRun(typ EffectType) {
	if m == nil {
		return
	}
	m.effectRuns.WithLabelValues(typ.String()).Inc()
}

func (m *Metrics) effectSkip(typ EffectType) {
	if m == nil {
		return
	}
	m.effectSkips.WithLabelValues(typ.String()).Inc()
}

func (m *Metrics) recompute() {
	if m == nil {
		return
	}
	m.recomputes.Inc()
}

func (m *Metrics) failure(kind NodeKind) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) cycle() {
	if m == nil {
		return
	}
	m.cycles.Inc()
}

func (m *Metrics) live(kind NodeKind, n int) {
	if m == nil {
		return
	}
	m.liveNodes.WithLabelValues(kind.String()).Set(float64(n))
}
