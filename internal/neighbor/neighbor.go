package neighbor

import (
	"cmp"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Neighbor is a directed edge from an owning point to ID.
//
// Distance is computed once when the edge is proposed and never refreshed.
// Fresh is true until the edge has taken part in a local join as a "new" edge.
type Neighbor struct {
	Distance float32
	ID       uint32
	Fresh    bool
}

// Compare orders neighbors by distance, then by id.
func Compare(a, b Neighbor) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Equal reports whether a and b point at the same target.
func Equal(a, b Neighbor) bool {
	return a.ID == b.ID
}

// List is the adjacency list of a single point.
type List []Neighbor

// Worst returns the distance of the last element, or 0 for an empty list.
// Only meaningful on a sorted list.
func (l List) Worst() float32 {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].Distance
}

// Max returns the largest distance in the list regardless of order.
func (l List) Max() float32 {
	var m float32
	for i, n := range l {
		if i == 0 || n.Distance > m {
			m = n.Distance
		}
	}
	return m
}

// Contains reports whether id is a target of the list.
func (l List) Contains(id uint32) bool {
	return slices.ContainsFunc(l, func(n Neighbor) bool { return n.ID == id })
}

// IDs returns the target ids in list order.
func (l List) IDs() []uint32 {
	ids := make([]uint32, len(l))
	for i, n := range l {
		ids[i] = n.ID
	}
	return ids
}

// Distances returns the cached distances in list order.
func (l List) Distances() []float32 {
	ds := make([]float32, len(l))
	for i, n := range l {
		ds[i] = n.Distance
	}
	return ds
}

// IsSorted reports whether the list is in Compare order.
func (l List) IsSorted() bool {
	return slices.IsSortedFunc(l, Compare)
}

// Merger folds staged candidates into adjacency lists.
// It owns scratch space and is not safe for concurrent use.
type Merger struct {
	maxDegree int
	buf       []Neighbor
	seen      *roaring.Bitmap
}

// NewMerger returns a Merger truncating lists to maxDegree entries.
func NewMerger(maxDegree int) *Merger {
	return &Merger{
		maxDegree: maxDegree,
		buf:       make([]Neighbor, 0, 2*maxDegree),
		seen:      roaring.New(),
	}
}

// Merge appends staged to l, sorts by Compare, drops repeated ids keeping the
// first occurrence and truncates to the configured degree. The result reuses
// l's backing array when it is large enough.
//
// The second return value is the number of entries of the result whose id
// was not present in l.
func (m *Merger) Merge(l List, staged []Neighbor) (List, int) {
	if len(staged) == 0 {
		if !l.IsSorted() {
			slices.SortStableFunc(l, Compare)
		}
		return l, 0
	}

	m.seen.Clear()
	for _, n := range l {
		m.seen.Add(n.ID)
	}

	// Existing entries go first so the stable sort keeps them ahead of an
	// identical staged candidate, along with their Fresh flag.
	m.buf = append(m.buf[:0], l...)
	m.buf = append(m.buf, staged...)
	slices.SortStableFunc(m.buf, Compare)

	out := m.buf[:0]
	for _, n := range m.buf {
		if len(out) > 0 && Equal(out[len(out)-1], n) {
			continue
		}
		out = append(out, n)
		if len(out) == m.maxDegree {
			break
		}
	}

	updates := 0
	for _, n := range out {
		if !m.seen.Contains(n.ID) {
			updates++
		}
	}

	l = append(l[:0], out...)
	return l, updates
}
