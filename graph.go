package nndescent

import (
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/google/uuid"

	"github.com/hupe1980/nndescent/distance"
	"github.com/hupe1980/nndescent/internal/neighbor"
	"github.com/hupe1980/nndescent/internal/sampler"
)

// Graph is an approximate k-nearest-neighbor graph over a fixed vector set.
//
// The vector buffer passed to New is shared with the caller and only ever
// read; it must not be modified while the Graph is in use. A Graph is safe
// for concurrent readers, but BuildGraph excludes every other method while
// it runs.
type Graph struct {
	mu sync.RWMutex

	data      []float32
	dim       int
	n         int
	maxDegree int

	opts    options
	dist    distance.Func
	src     *sampler.Source
	logger  *Logger
	buildID uuid.UUID

	// lists[i] holds point i's neighbors; after the first round they are
	// sorted by distance. worst[i] caches the largest distance in lists[i].
	lists []neighbor.List
	worst []float32

	// Per-round scratch, sized once and reused.
	fwdNew  [][]uint32
	fwdOld  [][]uint32
	newPool [][]uint32
	oldPool [][]uint32
	staged  [][]neighbor.Neighbor

	chunkSize int
	chunks    int

	stats    RoundStats
	reserved int64
}

// New validates the configuration and allocates the per-point state.
//
// data is a row-major buffer of n vectors of length dim. maxDegree is the
// number of neighbors kept per point and must be smaller than n.
func New(data []float32, dim, n, maxDegree int, optFns ...Option) (*Graph, error) {
	opts := applyOptions(optFns)

	if err := validate(data, dim, n, maxDegree, &opts); err != nil {
		return nil, err
	}

	dist, err := distance.Provider(opts.metric)
	if err != nil {
		return nil, invalidConfig("metric", opts.metric, err.Error())
	}

	reserved := int64(n) * int64(maxDegree) * int64(unsafe.Sizeof(neighbor.Neighbor{}))
	if err := opts.rc.AcquireMemory(reserved); err != nil {
		return nil, fmt.Errorf("reserve adjacency lists: %w", err)
	}

	workers := min(opts.workers, n)
	chunkSize := (n + workers - 1) / workers

	id := uuid.New()
	g := &Graph{
		data:      data[: n*dim : n*dim],
		dim:       dim,
		n:         n,
		maxDegree: maxDegree,
		opts:      opts,
		dist:      dist,
		src:       sampler.New(opts.seed),
		logger:    opts.logger.WithBuildID(id.String()).WithDimension(dim).WithCount(n),
		buildID:   id,
		lists:     make([]neighbor.List, n),
		worst:     make([]float32, n),
		fwdNew:    make([][]uint32, n),
		fwdOld:    make([][]uint32, n),
		newPool:   make([][]uint32, n),
		oldPool:   make([][]uint32, n),
		staged:    make([][]neighbor.Neighbor, n),
		chunkSize: chunkSize,
		chunks:    (n + chunkSize - 1) / chunkSize,
		reserved:  reserved,
	}

	backing := make([]neighbor.Neighbor, n*maxDegree)
	for i := range g.lists {
		g.lists[i] = backing[i*maxDegree : i*maxDegree : (i+1)*maxDegree]
	}

	return g, nil
}

func validate(data []float32, dim, n, maxDegree int, o *options) error {
	switch {
	case dim <= 0:
		return invalidConfig("dim", dim, "must be positive")
	case n <= 0:
		return invalidConfig("n", n, "must be positive")
	case len(data) == 0:
		return invalidConfig("data", len(data), "vector buffer is empty")
	case len(data) != n*dim:
		return invalidConfig("data", len(data), fmt.Sprintf("buffer length must be n*dim=%d", n*dim))
	case maxDegree < 1:
		return invalidConfig("maxDegree", maxDegree, "must be at least 1")
	case n <= maxDegree:
		return invalidConfig("maxDegree", maxDegree, fmt.Sprintf("must be smaller than n=%d", n))
	case uint64(n-1) > math.MaxUint32:
		return invalidConfig("n", n, "point ids must fit in uint32")
	case o.rounds < 1:
		return invalidConfig("rounds", o.rounds, "must be at least 1")
	case !(o.sampleRate > 0 && o.sampleRate <= 1):
		return invalidConfig("sampleRate", o.sampleRate, "must be in (0, 1]")
	case o.workers < 1:
		return invalidConfig("workers", o.workers, "must be at least 1")
	case o.earlyStop && o.earlyStopDelta < 0:
		return invalidConfig("earlyStopDelta", o.earlyStopDelta, "must not be negative")
	}
	return nil
}

// Len returns the number of points.
func (g *Graph) Len() int { return g.n }

// Dim returns the vector dimensionality.
func (g *Graph) Dim() int { return g.dim }

// MaxDegree returns the maximum number of neighbors per point.
func (g *Graph) MaxDegree() int { return g.maxDegree }

// BuildID identifies this graph in logs.
func (g *Graph) BuildID() string { return g.buildID.String() }

// Seed returns the seed of the random streams.
func (g *Graph) Seed() uint64 { return g.src.Seed() }

// Vector returns a read-only view of point i's row.
func (g *Graph) Vector(i int) ([]float32, error) {
	if i < 0 || i >= g.n {
		return nil, fmt.Errorf("%w: %d", ErrPointOutOfRange, i)
	}
	return g.row(uint32(i)), nil
}

func (g *Graph) row(i uint32) []float32 {
	off := int(i) * g.dim
	return g.data[off : off+g.dim : off+g.dim]
}

func (g *Graph) distance(a, b uint32) float32 {
	return g.dist(g.row(a), g.row(b))
}

// GetGraph returns, for every point, its neighbor ids ordered by ascending
// distance. It does not modify the graph and may be called repeatedly.
// Before BuildGraph the lists are empty.
func (g *Graph) GetGraph() [][]uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([][]uint32, g.n)
	for i, l := range g.lists {
		out[i] = l.IDs()
	}
	return out
}

// Neighbors returns point i's neighbor ids and their squared distances.
func (g *Graph) Neighbors(i int) ([]uint32, []float32, error) {
	if i < 0 || i >= g.n {
		return nil, nil, fmt.Errorf("%w: %d", ErrPointOutOfRange, i)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	l := g.lists[i]
	return l.IDs(), l.Distances(), nil
}

// Worst returns the largest distance currently in point i's list.
func (g *Graph) Worst(i int) (float32, error) {
	if i < 0 || i >= g.n {
		return 0, fmt.Errorf("%w: %d", ErrPointOutOfRange, i)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.worst[i], nil
}

// Stats returns the statistics of the last completed round.
func (g *Graph) Stats() RoundStats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.stats
}
