// Package nndescent builds approximate k-nearest-neighbor graphs with the
// NN-descent algorithm.
//
// Every point starts with random neighbors. Each round then compares the
// neighbors of a point with each other ("a neighbor of a neighbor is likely a
// neighbor") and keeps the closest candidates, so lists improve without ever
// computing all n² distances.
//
// By default a sampled edge takes part in the join as a new edge only once.
// WithRejoinSampled lets every sampled edge rejoin as new in each round,
// which costs more distance evaluations and reaches a higher recall.
//
// # Quick Start
//
//	data := make([]float32, n*dim) // row-major vectors
//	g, _ := nndescent.New(data, dim, n, 24, nndescent.WithSeed(42))
//	defer g.Close()
//
//	_ = g.BuildGraph(ctx)
//	graph := g.GetGraph() // graph[i] lists i's neighbor ids, nearest first
//
// # Reproducibility
//
// All random draws derive from the seed set with WithSeed. The same data,
// parameters and seed give the same graph for any number of workers.
//
// # Parallelism
//
// Rounds are split into phases that each run on WithWorkers goroutines. The
// local join reads a snapshot of the lists taken at the start of the round;
// candidate edges are staged per owner and merged afterwards. A shared
// resource.Controller caps worker slots and staging memory across builds.
//
// # Observability
//
//   - Structured logging via log/slog (WithLogger, WithLogLevel)
//   - Per-round metrics via MetricsCollector (see package promcollector)
//   - Round statistics via Graph.Stats
//
// # Distances
//
// Distances are squared Euclidean (package distance). Long vectors use the
// vek SIMD kernels on CPUs with AVX2 and FMA.
package nndescent
