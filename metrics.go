package nndescent

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting build metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see package promcollector for a ready-made one.
type MetricsCollector interface {
	// RecordInit is called after the random initialization of n points.
	RecordInit(n int, duration time.Duration)

	// RecordRound is called after each refinement round.
	RecordRound(stats RoundStats)

	// RecordBuild is called when BuildGraph returns.
	// rounds is the number of refinement rounds that completed, err is nil if successful.
	RecordBuild(rounds int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInit(int, time.Duration)         {}
func (NoopMetricsCollector) RecordRound(RoundStats)                {}
func (NoopMetricsCollector) RecordBuild(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InitCount       atomic.Int64
	InitPoints      atomic.Int64
	InitTotalNanos  atomic.Int64
	RoundCount      atomic.Int64
	RoundTotalNanos atomic.Int64
	Updates         atomic.Int64
	Proposals       atomic.Int64
	Admitted        atomic.Int64
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildTotalNanos atomic.Int64

	// lastAvgDistance holds math.Float64bits of the latest round's average.
	lastAvgDistance atomic.Uint64
}

// RecordInit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInit(n int, duration time.Duration) {
	b.InitCount.Add(1)
	b.InitPoints.Add(int64(n))
	b.InitTotalNanos.Add(duration.Nanoseconds())
}

// RecordRound implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRound(s RoundStats) {
	b.RoundCount.Add(1)
	b.RoundTotalNanos.Add(s.Duration.Nanoseconds())
	b.Updates.Add(int64(s.Updates))
	b.Proposals.Add(int64(s.Proposals))
	b.Admitted.Add(int64(s.Admitted))
	b.lastAvgDistance.Store(math.Float64bits(s.AvgDistance))
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(rounds int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InitCount:       b.InitCount.Load(),
		InitPoints:      b.InitPoints.Load(),
		RoundCount:      b.RoundCount.Load(),
		RoundAvgNanos:   b.getAvgRoundNanos(),
		Updates:         b.Updates.Load(),
		Proposals:       b.Proposals.Load(),
		Admitted:        b.Admitted.Load(),
		LastAvgDistance: math.Float64frombits(b.lastAvgDistance.Load()),
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		BuildTotalNanos: b.BuildTotalNanos.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRoundNanos() int64 {
	count := b.RoundCount.Load()
	if count == 0 {
		return 0
	}
	return b.RoundTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InitCount       int64
	InitPoints      int64
	RoundCount      int64
	RoundAvgNanos   int64
	Updates         int64
	Proposals       int64
	Admitted        int64
	LastAvgDistance float64
	BuildCount      int64
	BuildErrors     int64
	BuildTotalNanos int64
}
