package solver

import (
	"slices"

	"github.com/eugenenazirov/hungry-puppies/internal/lineup"
)

// Guess builds a reasonably good lineup without searching. The result seeds
// the lower bound of the branch-and-bound search; its quality only affects
// how much of the tree gets pruned.
//
// Treats are grouped into pairs of equal size and leftover singles. Each pair
// is preceded by a bigger single, giving a "big, small, small" pattern that
// scores well, and the singles left over are appended at the end. Empty
// counts give an empty lineup.
func Guess(counts Counts) *lineup.Lineup {
	singles, pairs := splitPairs(counts)

	// Keep strictly more singles than pairs so every pair can find a partner.
	for len(pairs) > 0 && len(pairs) >= len(singles) {
		largest := pairs[len(pairs)-1]
		pairs = pairs[:len(pairs)-1]
		singles = append(singles, largest, largest)
	}

	result := lineup.New()
	for len(pairs) > 0 {
		next := pairs[0]
		i := slices.IndexFunc(singles, func(size int) bool { return size > next })
		if i >= 0 {
			result.Add(singles[i])
			result.Add(next)
			result.Add(next)
			singles = slices.Delete(singles, i, i+1)
			pairs = pairs[1:]
			continue
		}

		// No single is big enough: break up the largest pair and retry.
		largest := pairs[len(pairs)-1]
		pairs = pairs[:len(pairs)-1]
		j := 0
		for j < len(singles) && singles[j] >= largest {
			j++
		}
		singles = slices.Insert(singles, j, largest, largest)
	}

	for _, size := range singles {
		result.Add(size)
	}
	return result
}

// splitPairs decomposes counts into pairs and leftover singles, both in
// increasing size order.
func splitPairs(counts Counts) (singles, pairs []int) {
	for size, n := range counts {
		for ; n > 1; n -= 2 {
			pairs = append(pairs, size)
		}
		if n == 1 {
			singles = append(singles, size)
		}
	}
	return singles, pairs
}
