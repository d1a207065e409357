package nndescent

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/nndescent/internal/neighbor"
)

// RoundStats summarizes the graph after a round. Round 0 describes the state
// right after random initialization.
type RoundStats struct {
	Round int

	// Edges is the total number of stored edges.
	Edges int

	// AvgDistance and StdDevDistance describe the distances of all stored edges.
	AvgDistance    float64
	StdDevDistance float64

	// Updates counts edges that entered a list during the round.
	Updates int

	// Proposals counts candidate edges produced by the local join, before the
	// worst-distance filter. Admitted counts the ones that passed it.
	Proposals int
	Admitted  int

	Duration time.Duration
}

// Converged reports whether the round changed no list.
func (s RoundStats) Converged() bool {
	return s.Round > 0 && s.Updates == 0
}

func summarize(lists []neighbor.List, s *RoundStats) {
	edges := 0
	for _, l := range lists {
		edges += len(l)
	}

	dists := make([]float64, 0, edges)
	for _, l := range lists {
		for _, n := range l {
			dists = append(dists, float64(n.Distance))
		}
	}

	s.Edges = edges
	if edges == 0 {
		return
	}
	if edges == 1 {
		s.AvgDistance = dists[0]
		return
	}
	s.AvgDistance, s.StdDevDistance = stat.MeanStdDev(dists, nil)
}
