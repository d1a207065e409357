// Package distance provides vector distance calculations.
//
// SquaredL2 is the hot path of graph construction. On x86-64 CPUs with
// AVX2+FMA, vectors of 16 or more components are handed to the vek32 kernels;
// everything else runs through an unrolled scalar loop. For a given pair of
// vectors the chosen kernel never changes within a process, so repeated calls
// return the same value.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default, the only metric accepted
//     by the graph builder)
//   - MetricCosine, MetricDot: declared, rejected by Provider
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
//	fn, err := distance.Provider(distance.MetricL2)
package distance
