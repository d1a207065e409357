// Package promcollector exports nndescent build metrics to Prometheus.
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/nndescent"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "nndescent"

// Options configures a Collector.
type Options struct {
	// Namespace prefixes every metric name. Defaults to DefaultNamespace.
	Namespace string

	// Registerer receives the metrics. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// ConstLabels are attached to every metric, e.g. a dataset name.
	ConstLabels prometheus.Labels
}

// Collector implements nndescent.MetricsCollector.
type Collector struct {
	initDuration  prometheus.Histogram
	initPoints    prometheus.Counter
	roundDuration prometheus.Histogram
	rounds        prometheus.Counter
	updates       prometheus.Counter
	proposals     prometheus.Counter
	admitted      prometheus.Counter
	lastRound     prometheus.Gauge
	lastUpdates   prometheus.Gauge
	avgDistance   prometheus.Gauge
	builds        *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
}

var _ nndescent.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics.
func New(opts Options) (*Collector, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}

	ns, cl := opts.Namespace, opts.ConstLabels

	c := &Collector{
		initDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "init_duration_seconds", ConstLabels: cl,
			Help:    "Duration of the random initialization",
			Buckets: prometheus.DefBuckets,
		}),
		initPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "init_points_total", ConstLabels: cl,
			Help: "Points given random initial neighbors",
		}),
		roundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "round_duration_seconds", ConstLabels: cl,
			Help:    "Duration of a refinement round",
			Buckets: prometheus.DefBuckets,
		}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "rounds_total", ConstLabels: cl,
			Help: "Completed refinement rounds",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "updates_total", ConstLabels: cl,
			Help: "Edges that entered an adjacency list",
		}),
		proposals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "proposals_total", ConstLabels: cl,
			Help: "Candidate edges produced by the local join",
		}),
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "admitted_total", ConstLabels: cl,
			Help: "Candidate edges that passed the worst-distance filter",
		}),
		lastRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "round", ConstLabels: cl,
			Help: "Index of the last completed round",
		}),
		lastUpdates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "round_updates", ConstLabels: cl,
			Help: "Updates in the last completed round",
		}),
		avgDistance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "avg_edge_distance", ConstLabels: cl,
			Help: "Mean squared distance over all stored edges after the last round",
		}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "builds_total", ConstLabels: cl,
			Help: "Finished BuildGraph calls",
		}, []string{"status"}),
		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "build_duration_seconds", ConstLabels: cl,
			Help:    "Duration of BuildGraph",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"status"}),
	}

	for _, m := range []prometheus.Collector{
		c.initDuration, c.initPoints, c.roundDuration, c.rounds,
		c.updates, c.proposals, c.admitted,
		c.lastRound, c.lastUpdates, c.avgDistance,
		c.builds, c.buildDuration,
	} {
		if err := opts.Registerer.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordInit implements nndescent.MetricsCollector.
func (c *Collector) RecordInit(n int, d time.Duration) {
	c.initDuration.Observe(d.Seconds())
	c.initPoints.Add(float64(n))
	c.lastRound.Set(0)
}

// RecordRound implements nndescent.MetricsCollector.
func (c *Collector) RecordRound(s nndescent.RoundStats) {
	c.roundDuration.Observe(s.Duration.Seconds())
	c.rounds.Inc()
	c.updates.Add(float64(s.Updates))
	c.proposals.Add(float64(s.Proposals))
	c.admitted.Add(float64(s.Admitted))
	c.lastRound.Set(float64(s.Round))
	c.lastUpdates.Set(float64(s.Updates))
	c.avgDistance.Set(s.AvgDistance)
}

// RecordBuild implements nndescent.MetricsCollector.
func (c *Collector) RecordBuild(_ int, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.builds.WithLabelValues(status).Inc()
	c.buildDuration.WithLabelValues(status).Observe(d.Seconds())
}
