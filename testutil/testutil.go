package testutil

import (
	"cmp"
	"math/rand"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/nndescent/distance"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Sample returns k distinct indices from [0,n) in random order.
func (r *RNG) Sample(n, k int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)[:min(k, n)]
}

// UniformVectors generates num row-major vectors with values in range [0, 1).
func (r *RNG) UniformVectors(num, dimensions int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	for i := range data {
		data[i] = r.rand.Float32()
	}
	return data
}

// ClusteredVectors generates row-major vectors scattered around random
// centroids in [0, 1)^dim. Useful for data with low intrinsic dimension.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) []float32 {
	centroids := r.UniformVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	for i := range num {
		c := (i % clusters) * dim
		for j := range dim {
			data[i*dim+j] = centroids[c+j] + float32(r.rand.NormFloat64())*spread
		}
	}
	return data
}

// Rows splits a row-major buffer into per-vector views.
func Rows(data []float32, dim int) [][]float32 {
	rows := make([][]float32, len(data)/dim)
	for i := range rows {
		rows[i] = data[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return rows
}

// BruteForceKNN computes the exact k nearest neighbors of every point in
// points (nil means all points), excluding the point itself. Results are
// ordered by ascending squared L2 distance, ties by id.
func BruteForceKNN(data []float32, dim, k int, points []int) [][]uint32 {
	rows := Rows(data, dim)
	if points == nil {
		points = make([]int, len(rows))
		for i := range points {
			points[i] = i
		}
	}

	type result struct {
		id   uint32
		dist float32
	}

	out := make([][]uint32, len(points))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for qi, q := range points {
		eg.Go(func() error {
			results := make([]result, 0, len(rows)-1)
			for j, v := range rows {
				if j == q {
					continue
				}
				results = append(results, result{id: uint32(j), dist: distance.SquaredL2(rows[q], v)})
			}

			slices.SortFunc(results, func(a, b result) int {
				if c := cmp.Compare(a.dist, b.dist); c != 0 {
					return c
				}
				return cmp.Compare(a.id, b.id)
			})

			ids := make([]uint32, min(k, len(results)))
			for i := range ids {
				ids[i] = results[i].id
			}
			out[qi] = ids
			return nil
		})
	}
	_ = eg.Wait()

	return out
}

// ComputeRecall computes recall@k of one approximate neighbor list against
// the ground truth.
func ComputeRecall(groundTruth, approximate []uint32) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[uint32]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i]] = struct{}{}
	}

	hits := 0
	for _, id := range approximate[:k] {
		if _, ok := truthSet[id]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}

// GraphRecall returns the mean recall of graph[points[i]] against truth[i].
// points nil means truth covers every point in order.
func GraphRecall(graph [][]uint32, truth [][]uint32, points []int) float64 {
	if len(truth) == 0 {
		return 1.0
	}

	var sum float64
	for i, t := range truth {
		p := i
		if points != nil {
			p = points[i]
		}
		sum += ComputeRecall(t, graph[p])
	}
	return sum / float64(len(truth))
}
