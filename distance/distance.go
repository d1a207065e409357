// Package distance provides public API for vector distance calculations.
// Long vectors use the vek32 AVX2 kernels when the CPU supports them.
package distance

import (
	"errors"
	"fmt"
	"sync"

	"github.com/viterin/vek/vek32"
	"golang.org/x/sys/cpu"
)

// ErrUnsupportedMetric is returned by Provider for metrics without a float32 kernel.
var ErrUnsupportedMetric = errors.New("unsupported metric")

// simdMinLen is the shortest vector handed to the vectorized kernel.
// Below it the call overhead dominates.
const simdMinLen = 16

var useSIMD = cpu.X86.HasAVX2 && cpu.X86.HasFMA

// diffPool holds the difference vectors of the vectorized kernel.
var diffPool = sync.Pool{
	New: func() interface{} {
		buf := make([]float32, 0, 256)
		return &buf
	},
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	if useSIMD && len(a) >= simdMinLen {
		return squaredL2SIMD(a, b)
	}
	return squaredL2Generic(a, b)
}

// squaredL2SIMD computes (a-b)·(a-b) with the vek32 kernels. It never takes
// a square root, so exactly representable sums come back exact.
func squaredL2SIMD(a, b []float32) float32 {
	buf := diffPool.Get().(*[]float32)
	if cap(*buf) < len(a) {
		*buf = make([]float32, len(a))
	}

	diff := vek32.Sub_Into((*buf)[:len(a)], a, b[:len(a)])
	s := vek32.Dot(diff, diff)

	diffPool.Put(buf)
	return s
}

func squaredL2Generic(a, b []float32) float32 {
	b = b[:len(a)]

	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= len(a); i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
	}
	for ; i < len(a); i++ {
		d := a[i] - b[i]
		s0 += d * d
	}

	return (s0 + s1) + (s2 + s3)
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricCosine
	MetricDot
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricCosine:
		return "Cosine"
	case MetricDot:
		return "Dot"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
//
// Graph construction only supports MetricL2 today; the other metrics are
// reserved for symmetric kernels that have not been wired yet.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMetric, m)
	}
}
