package promcollector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nndescent"
	"github.com/hupe1980/nndescent/testutil"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(Options{Registerer: reg})
	require.NoError(t, err)

	c.RecordInit(100, 10*time.Millisecond)
	c.RecordRound(nndescent.RoundStats{Round: 1, Updates: 40, Proposals: 300, Admitted: 90, AvgDistance: 1.5})
	c.RecordRound(nndescent.RoundStats{Round: 2, Updates: 10, Proposals: 200, Admitted: 30, AvgDistance: 1.25})
	c.RecordBuild(2, time.Second, nil)
	c.RecordBuild(0, time.Second, errors.New("boom"))

	assert.Equal(t, 100.0, promtestutil.ToFloat64(c.initPoints))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(c.rounds))
	assert.Equal(t, 50.0, promtestutil.ToFloat64(c.updates))
	assert.Equal(t, 500.0, promtestutil.ToFloat64(c.proposals))
	assert.Equal(t, 120.0, promtestutil.ToFloat64(c.admitted))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(c.lastRound))
	assert.Equal(t, 10.0, promtestutil.ToFloat64(c.lastUpdates))
	assert.Equal(t, 1.25, promtestutil.ToFloat64(c.avgDistance))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.builds.WithLabelValues("success")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.builds.WithLabelValues("error")))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "nndescent_rounds_total")
	assert.Contains(t, names, "nndescent_build_duration_seconds")
}

func TestCollector_Namespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(Options{
		Namespace:   "bench",
		Registerer:  reg,
		ConstLabels: prometheus.Labels{"dataset": "uniform"},
	})
	require.NoError(t, err)

	c.RecordRound(nndescent.RoundStats{Round: 1})

	n, err := promtestutil.GatherAndCount(reg, "bench_rounds_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(Options{Registerer: reg})
	require.NoError(t, err)

	_, err = New(Options{Registerer: reg})
	var are prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &are)
}

func TestCollector_Build(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(Options{Registerer: reg})
	require.NoError(t, err)

	data := testutil.NewRNG(3).UniformVectors(300, 4)
	g, err := nndescent.New(data, 4, 300, 6, nndescent.WithRounds(3), nndescent.WithMetricsCollector(c))
	require.NoError(t, err)
	require.NoError(t, g.BuildGraph(context.Background()))

	assert.Equal(t, 300.0, promtestutil.ToFloat64(c.initPoints))
	assert.Equal(t, 3.0, promtestutil.ToFloat64(c.rounds))
	assert.Equal(t, 3.0, promtestutil.ToFloat64(c.lastRound))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.builds.WithLabelValues("success")))
	assert.InDelta(t, g.Stats().AvgDistance, promtestutil.ToFloat64(c.avgDistance), 1e-12)
}
