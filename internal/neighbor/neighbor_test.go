package neighbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	a := Neighbor{Distance: 1, ID: 7}
	b := Neighbor{Distance: 2, ID: 3}
	c := Neighbor{Distance: 1, ID: 9}

	assert.Negative(t, Compare(a, b))
	assert.Positive(t, Compare(b, a))
	assert.Negative(t, Compare(a, c), "ties break on id")
	assert.Zero(t, Compare(a, Neighbor{Distance: 1, ID: 7, Fresh: true}))
}

func TestEqual_IgnoresDistance(t *testing.T) {
	assert.True(t, Equal(Neighbor{Distance: 1, ID: 4}, Neighbor{Distance: 99, ID: 4}))
	assert.False(t, Equal(Neighbor{Distance: 1, ID: 4}, Neighbor{Distance: 1, ID: 5}))
}

func TestList_Accessors(t *testing.T) {
	l := List{{Distance: 3, ID: 1}, {Distance: 1, ID: 2}, {Distance: 2, ID: 3}}

	assert.Equal(t, float32(2), l.Worst())
	assert.Equal(t, float32(3), l.Max())
	assert.Equal(t, []uint32{1, 2, 3}, l.IDs())
	assert.Equal(t, []float32{3, 1, 2}, l.Distances())
	assert.True(t, l.Contains(3))
	assert.False(t, l.Contains(4))
	assert.False(t, l.IsSorted())

	var empty List
	assert.Zero(t, empty.Worst())
	assert.Zero(t, empty.Max())
}

func TestMerger_Merge(t *testing.T) {
	m := NewMerger(3)
	l := List{
		{Distance: 5, ID: 1},
		{Distance: 2, ID: 2},
		{Distance: 9, ID: 3},
	}
	staged := []Neighbor{
		{Distance: 1, ID: 4, Fresh: true},
		{Distance: 2, ID: 2, Fresh: true}, // duplicate of an existing edge
		{Distance: 7, ID: 5, Fresh: true},
	}

	got, updates := m.Merge(l, staged)

	require.Len(t, got, 3)
	assert.Equal(t, []uint32{4, 2, 1}, got.IDs())
	assert.True(t, got.IsSorted())
	assert.False(t, got[1].Fresh, "existing record wins over identical candidate")
	assert.Equal(t, 1, updates)
	assert.Equal(t, float32(5), got.Worst())
}

func TestMerger_DedupStagedRepeats(t *testing.T) {
	m := NewMerger(4)
	l := List{{Distance: 10, ID: 1}, {Distance: 20, ID: 2}}
	staged := []Neighbor{
		{Distance: 3, ID: 8, Fresh: true},
		{Distance: 3, ID: 8, Fresh: true},
		{Distance: 4, ID: 9, Fresh: true},
	}

	got, updates := m.Merge(l, staged)

	assert.Equal(t, []uint32{8, 9, 1, 2}, got.IDs())
	assert.Equal(t, 2, updates)
}

func TestMerger_NoStaged(t *testing.T) {
	m := NewMerger(2)
	l := List{{Distance: 1, ID: 1}, {Distance: 2, ID: 2}}

	got, updates := m.Merge(l, nil)

	assert.Equal(t, l, got)
	assert.Zero(t, updates)
}

func TestMerger_NoStagedSortsInitialList(t *testing.T) {
	m := NewMerger(3)
	l := List{{Distance: 3, ID: 1}, {Distance: 1, ID: 2}, {Distance: 2, ID: 3}}

	got, updates := m.Merge(l, nil)

	assert.Equal(t, []uint32{2, 3, 1}, got.IDs())
	assert.Equal(t, float32(3), got.Worst())
	assert.Zero(t, updates)
}

func TestMerger_WorstNeverGrows(t *testing.T) {
	m := NewMerger(3)
	l := List{{Distance: 1, ID: 1}, {Distance: 2, ID: 2}, {Distance: 3, ID: 3}}
	before := l.Worst()

	// Candidates worse than every current entry are truncated away.
	got, updates := m.Merge(l, []Neighbor{{Distance: 4, ID: 4}, {Distance: 5, ID: 5}})

	assert.LessOrEqual(t, got.Worst(), before)
	assert.Zero(t, updates)
	assert.Equal(t, []uint32{1, 2, 3}, got.IDs())
}

func TestMerger_ReusesScratch(t *testing.T) {
	m := NewMerger(2)
	a, _ := m.Merge(List{{Distance: 9, ID: 1}, {Distance: 8, ID: 2}}, []Neighbor{{Distance: 1, ID: 3}})
	b, _ := m.Merge(List{{Distance: 4, ID: 5}, {Distance: 6, ID: 6}}, []Neighbor{{Distance: 5, ID: 7}})

	assert.Equal(t, []uint32{3, 2}, a.IDs())
	assert.Equal(t, []uint32{5, 7}, b.IDs())
}
