// Package sampler provides the deterministic random streams used by graph
// construction.
//
// Every (round, point) pair gets its own generator derived from a single
// seed, so the sampled edges do not depend on how points are spread across
// workers.
package sampler

import (
	"math/rand/v2"

	"github.com/RoaringBitmap/roaring/v2"
)

// Source derives independent random streams from a seed.
type Source struct {
	seed uint64
}

// New returns a Source for the given seed.
func New(seed uint64) *Source {
	return &Source{seed: seed}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Stream returns the generator for point in round. Round 0 is initialization.
func (s *Source) Stream(round, point uint32) *rand.Rand {
	key := uint64(round)<<32 | uint64(point)
	return rand.New(rand.NewPCG(splitmix64(s.seed^key), splitmix64(key+s.seed*0x9e3779b97f4a7c15)))
}

// splitmix64 scatters nearby keys across the PCG state space.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Accept reports whether a uniform draw in [0,1) falls below p.
func Accept(r *rand.Rand, p float32) bool {
	return r.Float32() < p
}

// Picker draws distinct ids by rejection sampling.
// It owns its scratch set and is not safe for concurrent use.
type Picker struct {
	chosen *roaring.Bitmap
}

// NewPicker returns an empty Picker.
func NewPicker() *Picker {
	return &Picker{chosen: roaring.New()}
}

// Distinct appends k distinct ids drawn uniformly from [0,n) \ {exclude} to
// dst. The caller guarantees n > k, otherwise the loop cannot terminate.
func (p *Picker) Distinct(r *rand.Rand, n, k int, exclude uint32, dst []uint32) []uint32 {
	p.chosen.Clear()
	p.chosen.Add(exclude)

	for picked := 0; picked < k; {
		id := uint32(r.IntN(n))
		if !p.chosen.CheckedAdd(id) {
			continue
		}
		dst = append(dst, id)
		picked++
	}

	return dst
}
