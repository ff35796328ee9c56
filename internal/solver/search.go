package solver

import (
	"context"
	"fmt"

	"github.com/eugenenazirov/hungry-puppies/internal/lineup"
)

// checkInterval is the number of expanded nodes between context checks.
const checkInterval = 1 << 12

// Stats counts the work done by one search.
type Stats struct {
	Nodes  int64
	Pruned int64
}

type search struct {
	ctx   context.Context
	stats Stats
	err   error
}

// maxGain is the optimistic happiness still to come when remaining treats
// are left after the one being placed: at most one point every three treats,
// plus one.
func maxGain(remaining int) int {
	return remaining/3 + 1
}

// run returns the best lineup reachable by extending current with every
// treat in remaining. Each frame starts from guess as the lineup to beat and
// only shares its improvements with later siblings; children are always
// seeded with guess again. guess is returned unchanged when no extension
// scores strictly higher. remaining is modified during the search but
// restored before run returns.
func (s *search) run(remaining Counts, current, guess *lineup.Lineup) *lineup.Lineup {
	if s.err != nil {
		return guess
	}

	s.stats.Nodes++
	if s.stats.Nodes%checkInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = fmt.Errorf("%w after %d nodes: %w", ErrSearchAborted, s.stats.Nodes, err)
			return guess
		}
	}

	left := remaining.Total()
	if left == 0 {
		return current
	}
	gain := maxGain(left - 1)

	best := guess
	for size, n := range remaining {
		if n == 0 {
			continue
		}

		next := current.Clone(left)
		next.Add(size)
		if next.Happiness()+gain <= best.Happiness() {
			s.stats.Pruned++
			continue
		}

		remaining[size]--
		candidate := s.run(remaining, next, guess)
		remaining[size]++

		if candidate.Happiness() > best.Happiness() {
			best = candidate
		}
	}

	return best
}
