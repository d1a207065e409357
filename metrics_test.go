package nndescent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nndescent/testutil"
)

func TestBasicMetricsCollector(t *testing.T) {
	t.Run("RecordDirect", func(t *testing.T) {
		m := &BasicMetricsCollector{}

		m.RecordInit(100, time.Millisecond)
		m.RecordRound(RoundStats{Round: 1, Updates: 10, Proposals: 50, Admitted: 20, AvgDistance: 0.5, Duration: 2 * time.Millisecond})
		m.RecordRound(RoundStats{Round: 2, Updates: 4, Proposals: 30, Admitted: 8, AvgDistance: 0.25, Duration: 4 * time.Millisecond})
		m.RecordBuild(2, 10*time.Millisecond, nil)
		m.RecordBuild(0, time.Millisecond, errors.New("boom"))

		s := m.GetStats()
		assert.Equal(t, int64(1), s.InitCount)
		assert.Equal(t, int64(100), s.InitPoints)
		assert.Equal(t, int64(2), s.RoundCount)
		assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), s.RoundAvgNanos)
		assert.Equal(t, int64(14), s.Updates)
		assert.Equal(t, int64(80), s.Proposals)
		assert.Equal(t, int64(28), s.Admitted)
		assert.Equal(t, 0.25, s.LastAvgDistance)
		assert.Equal(t, int64(2), s.BuildCount)
		assert.Equal(t, int64(1), s.BuildErrors)
		assert.Equal(t, (11 * time.Millisecond).Nanoseconds(), s.BuildTotalNanos)
	})

	t.Run("Empty", func(t *testing.T) {
		m := &BasicMetricsCollector{}

		s := m.GetStats()
		assert.Zero(t, s.RoundAvgNanos)
		assert.Zero(t, s.LastAvgDistance)
	})

	t.Run("FromBuild", func(t *testing.T) {
		m := &BasicMetricsCollector{}
		data := testutil.NewRNG(8).UniformVectors(400, 4)

		g, err := New(data, 4, 400, 8, WithRounds(4), WithMetricsCollector(m))
		require.NoError(t, err)
		require.NoError(t, g.BuildGraph(context.Background()))

		s := m.GetStats()
		assert.Equal(t, int64(1), s.InitCount)
		assert.Equal(t, int64(400), s.InitPoints)
		assert.Equal(t, int64(4), s.RoundCount)
		assert.Equal(t, int64(1), s.BuildCount)
		assert.Zero(t, s.BuildErrors)
		assert.Positive(t, s.Updates)
		assert.GreaterOrEqual(t, s.Proposals, s.Admitted)
		assert.InDelta(t, g.Stats().AvgDistance, s.LastAvgDistance, 1e-12)
	})
}

func TestNoopMetricsCollector(t *testing.T) {
	var mc MetricsCollector = NoopMetricsCollector{}

	assert.NotPanics(t, func() {
		mc.RecordInit(1, time.Second)
		mc.RecordRound(RoundStats{})
		mc.RecordBuild(1, time.Second, nil)
	})
}
