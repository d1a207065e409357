// Command nndescent-bench builds a k-NN graph over synthetic vectors and
// reports build time and recall against brute force.
//
// Configuration comes from defaults, an optional YAML file (-config) and
// NNDESCENT_* environment variables, in that order. With metrics_addr set,
// Prometheus metrics are served on /metrics while the build runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/nndescent"
	"github.com/hupe1980/nndescent/promcollector"
	"github.com/hupe1980/nndescent/resource"
	"github.com/hupe1980/nndescent/testutil"
)

// Result summarizes one run.
type Result struct {
	BuildID  string
	Rounds   int
	Updates  int
	Build    time.Duration
	Recall   float64
	Sampled  int
	AvgEdge  float64
	MemoryMB float64
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, cfg, newLogger(cfg, os.Stderr))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	report(os.Stdout, cfg, res)
}

func newLogger(cfg Config, w io.Writer) *nndescent.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return nndescent.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return nndescent.NewLogger(slog.NewTextHandler(w, opts))
}

func run(ctx context.Context, cfg Config, logger *nndescent.Logger) (Result, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	mc, err := promcollector.New(promcollector.Options{
		Registerer:  reg,
		ConstLabels: prometheus.Labels{"dataset": cfg.Dataset},
	})
	if err != nil {
		return Result{}, fmt.Errorf("register metrics: %w", err)
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	data := generate(cfg)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	rc := resource.NewController(resource.Config{
		MemoryLimitBytes: cfg.MemoryLimitBytes,
		MaxWorkers:       int64(workers),
	})

	opts := append(cfg.options(),
		nndescent.WithLogger(logger),
		nndescent.WithMetricsCollector(mc),
		nndescent.WithResourceController(rc),
	)

	g, err := nndescent.New(data, cfg.Dim, cfg.N, cfg.MaxDegree, opts...)
	if err != nil {
		return Result{}, err
	}
	defer g.Close()

	memoryMB := float64(rc.MemoryUsage()) / (1 << 20)

	start := time.Now()
	if err := g.BuildGraph(ctx); err != nil {
		return Result{}, fmt.Errorf("build graph: %w", err)
	}
	elapsed := time.Since(start)

	stats := g.Stats()
	res := Result{
		BuildID:  g.BuildID(),
		Rounds:   stats.Round,
		Updates:  stats.Updates,
		Build:    elapsed,
		AvgEdge:  stats.AvgDistance,
		MemoryMB: memoryMB,
	}

	if cfg.RecallSamples > 0 {
		points := testutil.NewRNG(cfg.DataSeed+1).Sample(cfg.N, cfg.RecallSamples)
		truth := testutil.BruteForceKNN(data, cfg.Dim, cfg.MaxDegree, points)
		res.Recall = testutil.GraphRecall(g.GetGraph(), truth, points)
		res.Sampled = len(points)
	}

	logger.Info("benchmark finished",
		"rounds", res.Rounds,
		"duration", res.Build,
		"recall", res.Recall,
	)

	return res, nil
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

func generate(cfg Config) []float32 {
	rng := testutil.NewRNG(cfg.DataSeed)
	if cfg.Dataset == "clustered" {
		return rng.ClusteredVectors(cfg.N, cfg.Dim, cfg.Clusters, cfg.Spread)
	}
	return rng.UniformVectors(cfg.N, cfg.Dim)
}

func report(w io.Writer, cfg Config, res Result) {
	fmt.Fprintf(w, "build id:     %s\n", res.BuildID)
	fmt.Fprintf(w, "points:       %d x %d (%s)\n", cfg.N, cfg.Dim, cfg.Dataset)
	fmt.Fprintf(w, "max degree:   %d\n", cfg.MaxDegree)
	fmt.Fprintf(w, "rounds:       %d (last round updates: %d)\n", res.Rounds, res.Updates)
	fmt.Fprintf(w, "build time:   %v\n", res.Build)
	fmt.Fprintf(w, "lists memory: %.1f MiB\n", res.MemoryMB)
	fmt.Fprintf(w, "avg distance: %.4f\n", res.AvgEdge)
	if res.Sampled > 0 {
		fmt.Fprintf(w, "recall@%d:    %.4f (%d sampled points)\n", cfg.MaxDegree, res.Recall, res.Sampled)
	}
}
