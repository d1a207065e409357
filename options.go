package nndescent

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/nndescent/distance"
	"github.com/hupe1980/nndescent/resource"
)

const (
	// DefaultRounds is the number of refinement rounds run by BuildGraph.
	DefaultRounds = 20

	// DefaultSampleRate is the probability that an edge takes part in a round.
	DefaultSampleRate = 0.3

	// DefaultSeed seeds the random streams when WithSeed is not given.
	DefaultSeed uint64 = 0x5eed
)

type options struct {
	seed             uint64
	rounds           int
	sampleRate       float32
	rejoinSampled    bool
	workers          int
	earlyStop        bool
	earlyStopDelta   float64
	metric           distance.Metric
	metricsCollector MetricsCollector
	logger           *Logger
	rc               *resource.Controller
}

// Option configures graph construction.
type Option func(*options)

// WithSeed sets the seed of every random draw made during construction.
// Two graphs built from the same data, parameters and seed are identical,
// regardless of the number of workers.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithRounds sets the number of refinement rounds (default 20).
func WithRounds(rounds int) Option {
	return func(o *options) {
		o.rounds = rounds
	}
}

// WithSampleRate sets the per-round probability that an edge is sampled for
// the local join (default 0.3). Must be in (0, 1].
func WithSampleRate(p float32) Option {
	return func(o *options) {
		o.sampleRate = p
	}
}

// WithRejoinSampled makes every sampled edge take part in the local join as
// a new edge, not only the first time it is sampled. Rounds cost more
// distance evaluations but converge to a higher recall; on 10,000 uniform
// 64-dimensional points with 24 neighbors it lifts recall above 0.8.
//
// By default an edge joins as new once and as old afterwards.
func WithRejoinSampled() Option {
	return func(o *options) {
		o.rejoinSampled = true
	}
}

// WithWorkers sets the number of goroutines used by each build phase.
// Defaults to GOMAXPROCS. When a resource controller is configured, its
// worker slots cap the effective parallelism as well.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

// WithEarlyStop ends BuildGraph after the first round whose number of list
// updates is at most delta * n * maxDegree. delta = 0 stops only after a
// round that changed nothing.
//
// Without this option every configured round runs.
func WithEarlyStop(delta float64) Option {
	return func(o *options) {
		o.earlyStop = true
		o.earlyStopDelta = delta
	}
}

// WithMetric sets the distance metric. Only distance.MetricL2 is supported.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithMetricsCollector configures a metrics collector for build progress.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &nndescent.BasicMetricsCollector{}
//	g, _ := nndescent.New(data, dim, n, 24, nndescent.WithMetricsCollector(metrics))
//	_ = g.BuildGraph(ctx)
//	stats := metrics.GetStats()
//	fmt.Printf("Rounds: %d, Updates: %d\n", stats.RoundCount, stats.Updates)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := nndescent.NewJSONLogger(slog.LevelInfo)
//	g, _ := nndescent.New(data, dim, n, 24, nndescent.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController bounds memory and worker usage of the build.
// The controller may be shared between graphs.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		seed:             DefaultSeed,
		rounds:           DefaultRounds,
		sampleRate:       DefaultSampleRate,
		workers:          runtime.GOMAXPROCS(0),
		metric:           distance.MetricL2,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
