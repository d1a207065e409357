// Package testutil provides testing utilities for nndescent.
//
// This package is intended for tests, benchmarks and the bench tool only.
// It provides helpers for generating random vectors, computing exact
// nearest neighbors, and verifying graph recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	data := rng.UniformVectors(10000, 64) // row-major, uniform [0, 1)
//
// # Exact Neighbors (Ground Truth)
//
//	truth := testutil.BruteForceKNN(data, 64, 24, nil)
//
// # Recall Verification
//
//	recall := testutil.GraphRecall(g.GetGraph(), truth, nil)
package testutil
