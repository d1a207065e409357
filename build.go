package nndescent

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/nndescent/internal/neighbor"
	"github.com/hupe1980/nndescent/internal/sampler"
)

// progressEvery is how many points a worker handles between progress reports.
const progressEvery = 1024

// proposal is a candidate edge owner -> edge.ID produced by the local join.
type proposal struct {
	owner uint32
	edge  neighbor.Neighbor
}

// BuildGraph initializes every adjacency list with random neighbors and then
// runs the configured number of refinement rounds.
//
// Calling BuildGraph again rebuilds the graph from scratch with the same seed.
// If ctx is cancelled the build stops at the next phase boundary and returns
// ctx.Err(). The lists are then partially refined but every per-list
// invariant still holds.
func (g *Graph) BuildGraph(ctx context.Context) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	completed := 0
	defer func() {
		elapsed := time.Since(start)
		g.opts.metricsCollector.RecordBuild(completed, elapsed, err)
		g.logger.LogBuild(ctx, completed, elapsed, err)
	}()

	g.logger.LogBuildStart(ctx, g.maxDegree, g.opts.rounds, g.opts.workers, g.src.Seed())

	if err := g.initialize(ctx); err != nil {
		return err
	}

	for round := 1; round <= g.opts.rounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := g.refine(ctx, round); err != nil {
			return err
		}
		completed = round

		if g.opts.earlyStop && float64(g.stats.Updates) <= g.opts.earlyStopDelta*float64(g.n*g.maxDegree) {
			g.logger.LogEarlyStop(ctx, round, g.stats.Updates)
			break
		}
	}

	return nil
}

// initialize gives every point maxDegree distinct random neighbors. The
// lists are left unsorted; the first merge sorts them.
func (g *Graph) initialize(ctx context.Context) error {
	start := time.Now()

	err := g.forEachChunk(ctx, func(ctx context.Context, _, lo, hi int) error {
		picker := sampler.NewPicker()
		ids := make([]uint32, 0, g.maxDegree)

		for i := lo; i < hi; i++ {
			p := uint32(i)
			r := g.src.Stream(0, p)
			ids = picker.Distinct(r, g.n, g.maxDegree, p, ids[:0])

			l := g.lists[i][:0]
			for _, id := range ids {
				l = append(l, neighbor.Neighbor{Distance: g.distance(p, id), ID: id, Fresh: true})
			}
			g.lists[i] = l
			g.worst[i] = l.Max()

			if (i-lo)%progressEvery == 0 {
				g.logger.LogProgress(ctx, "init", 0, i-lo, hi-lo)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s := RoundStats{Round: 0, Duration: time.Since(start)}
	summarize(g.lists, &s)
	g.stats = s

	g.opts.metricsCollector.RecordInit(g.n, s.Duration)
	g.logger.LogRound(ctx, s)
	return nil
}

// refine runs one round of sampling, local join and merge.
//
// The join only reads lists and worst-distance caches; every mutation
// happens afterwards in the merge, so all admission decisions of a round see
// the state from the start of that round.
func (g *Graph) refine(ctx context.Context, round int) error {
	start := time.Now()

	if err := g.sample(ctx, round); err != nil {
		return err
	}
	bound := g.collectPools()

	reserve := bound * int64(unsafe.Sizeof(proposal{}))
	if err := g.opts.rc.AcquireMemory(reserve); err != nil {
		return fmt.Errorf("round %d: reserve staging buffers: %w", round, err)
	}
	defer g.opts.rc.ReleaseMemory(reserve)

	// buckets[c][s] holds what chunk c proposed for owners in shard s.
	buckets := make([][][]proposal, g.chunks)
	for c := range buckets {
		buckets[c] = make([][]proposal, g.chunks)
	}

	var proposals, admitted atomic.Int64
	err := g.forEachChunk(ctx, func(ctx context.Context, c, lo, hi int) error {
		p, a := g.join(ctx, round, lo, hi, buckets[c])
		proposals.Add(p)
		admitted.Add(a)
		return nil
	})
	if err != nil {
		return err
	}

	var updates atomic.Int64
	err = g.forEachChunk(ctx, func(_ context.Context, s, lo, hi int) error {
		updates.Add(g.merge(s, lo, hi, buckets))
		return nil
	})
	if err != nil {
		return err
	}

	st := RoundStats{
		Round:     round,
		Updates:   int(updates.Load()),
		Proposals: int(proposals.Load()),
		Admitted:  int(admitted.Load()),
		Duration:  time.Since(start),
	}
	summarize(g.lists, &st)
	g.stats = st

	g.opts.metricsCollector.RecordRound(st)
	g.logger.LogRound(ctx, st)
	return nil
}

// sample draws the active edges of every point. An active edge that has
// never been joined as new is recorded as new and loses its Fresh flag;
// any other active edge is recorded as old. With rejoinSampled every active
// edge is recorded as new.
func (g *Graph) sample(ctx context.Context, round int) error {
	p := g.opts.sampleRate
	rejoin := g.opts.rejoinSampled

	return g.forEachChunk(ctx, func(_ context.Context, _, lo, hi int) error {
		for i := lo; i < hi; i++ {
			r := g.src.Stream(uint32(round), uint32(i))
			fn := g.fwdNew[i][:0]
			fo := g.fwdOld[i][:0]

			l := g.lists[i]
			for k := range l {
				if !sampler.Accept(r, p) {
					continue
				}
				if l[k].Fresh || rejoin {
					fn = append(fn, l[k].ID)
					l[k].Fresh = false
				} else {
					fo = append(fo, l[k].ID)
				}
			}

			g.fwdNew[i] = fn
			g.fwdOld[i] = fo
		}
		return nil
	})
}

// collectPools builds the new/old candidate pools of every point from the
// sampled edges and their reverses. It returns an upper bound on the number
// of proposals the following join can stage.
func (g *Graph) collectPools() int64 {
	for i := range g.n {
		g.newPool[i] = append(g.newPool[i][:0], g.fwdNew[i]...)
		g.oldPool[i] = append(g.oldPool[i][:0], g.fwdOld[i]...)
	}
	for i := range g.n {
		for _, j := range g.fwdNew[i] {
			g.newPool[j] = append(g.newPool[j], uint32(i))
		}
		for _, j := range g.fwdOld[i] {
			g.oldPool[j] = append(g.oldPool[j], uint32(i))
		}
	}

	var bound int64
	for i := range g.n {
		nw, od := int64(len(g.newPool[i])), int64(len(g.oldPool[i]))
		bound += nw*(nw-1) + 2*nw*od
	}
	return bound
}

// join runs the local join for points [lo, hi) and stages admitted
// proposals into buckets by owner shard.
func (g *Graph) join(ctx context.Context, round, lo, hi int, buckets [][]proposal) (proposed, admitted int64) {
	stage := func(owner, target uint32, d float32) {
		proposed++
		if d >= g.worst[owner] {
			return
		}
		admitted++
		s := int(owner) / g.chunkSize
		buckets[s] = append(buckets[s], proposal{
			owner: owner,
			edge:  neighbor.Neighbor{Distance: d, ID: target, Fresh: true},
		})
	}

	for i := lo; i < hi; i++ {
		nw, od := dedupPools(g.newPool[i], g.oldPool[i])
		g.newPool[i], g.oldPool[i] = nw, od

		for x, a := range nw {
			for _, b := range nw[x+1:] {
				d := g.distance(a, b)
				stage(a, b, d)
				stage(b, a, d)
			}
			for _, b := range od {
				d := g.distance(a, b)
				stage(a, b, d)
				stage(b, a, d)
			}
		}

		if (i-lo)%progressEvery == 0 {
			g.logger.LogProgress(ctx, "join", round, i-lo, hi-lo)
		}
	}

	return proposed, admitted
}

// dedupPools sorts and deduplicates both pools and removes from old every
// id that is also new.
func dedupPools(nw, od []uint32) ([]uint32, []uint32) {
	slices.Sort(nw)
	nw = slices.Compact(nw)
	slices.Sort(od)
	od = slices.Compact(od)

	out := od[:0]
	k := 0
	for _, id := range od {
		for k < len(nw) && nw[k] < id {
			k++
		}
		if k < len(nw) && nw[k] == id {
			continue
		}
		out = append(out, id)
	}
	return nw, out
}

// merge folds the staged proposals of shard s, i.e. owners [lo, hi), into
// their lists and refreshes the worst-distance cache.
func (g *Graph) merge(s, lo, hi int, buckets [][][]proposal) int64 {
	for c := range buckets {
		for _, p := range buckets[c][s] {
			g.staged[p.owner] = append(g.staged[p.owner], p.edge)
		}
		buckets[c][s] = nil
	}

	m := neighbor.NewMerger(g.maxDegree)
	var updates int64
	for i := lo; i < hi; i++ {
		l, u := m.Merge(g.lists[i], g.staged[i])
		g.lists[i] = l
		g.worst[i] = l.Worst()
		g.staged[i] = g.staged[i][:0]
		updates += int64(u)
	}
	return updates
}

// forEachChunk runs fn for every chunk of points on up to g.opts.workers
// goroutines, each holding a worker slot of the resource controller.
func (g *Graph) forEachChunk(ctx context.Context, fn func(ctx context.Context, chunk, lo, hi int) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.workers)

	for c := range g.chunks {
		lo := c * g.chunkSize
		hi := min(lo+g.chunkSize, g.n)

		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := g.opts.rc.AcquireWorker(ctx); err != nil {
				return err
			}
			defer g.opts.rc.ReleaseWorker()

			return fn(ctx, c, lo, hi)
		})
	}

	return eg.Wait()
}
