package solver

import (
	"context"
	"fmt"
	"slices"

	"github.com/eugenenazirov/hungry-puppies/internal/lineup"
)

// DefaultMaxTreats bounds the input size accepted by a Solver unless
// overridden with WithMaxTreats.
const DefaultMaxTreats = 32

// Result describes the best lineup found for a set of treats.
type Result struct {
	Happiness      int
	Treats         []int
	GuessHappiness int
	Stats          Stats
}

// Solver describes the behaviour required from a lineup solver.
type Solver interface {
	// Validate reports whether treats would be accepted by Solve.
	Validate(treats []int) error
	Solve(ctx context.Context, treats []int) (Result, error)
}

// Option configures a Solver.
type Option func(*branchAndBound)

// WithMaxTreats overrides the maximum number of treats accepted per call.
// Values below one disable the limit.
func WithMaxTreats(n int) Option {
	return func(b *branchAndBound) {
		b.maxTreats = n
	}
}

type branchAndBound struct {
	maxTreats int
}

// New creates a Solver based on branch-and-bound search.
func New(opts ...Option) Solver {
	b := &branchAndBound{maxTreats: DefaultMaxTreats}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *branchAndBound) Validate(treats []int) error {
	if len(treats) == 0 {
		return ErrNoTreats
	}
	if b.maxTreats > 0 && len(treats) > b.maxTreats {
		return fmt.Errorf("%w: got %d, limit %d", ErrTooManyTreats, len(treats), b.maxTreats)
	}
	for _, size := range treats {
		if size <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidTreatSize, size)
		}
	}
	return nil
}

func (b *branchAndBound) Solve(ctx context.Context, treats []int) (Result, error) {
	if err := b.Validate(treats); err != nil {
		return Result{}, err
	}

	// Happiness only depends on how sizes compare, so solving on dense ranks
	// gives the same lineup while keeping the count table small.
	ranks, sizes := rank(treats)

	best, guess, stats, err := solve(ctx, ranks)
	if err != nil {
		return Result{}, err
	}

	ordered := best.Treats()
	for i, r := range ordered {
		ordered[i] = sizes[r]
	}

	return Result{
		Happiness:      best.Happiness(),
		Treats:         ordered,
		GuessHappiness: guess,
		Stats:          stats,
	}, nil
}

// Solve returns an optimal lineup for the given treats. treats must be
// non-empty and contain only positive sizes.
func Solve(treats []int) *lineup.Lineup {
	best, _, _, _ := solve(context.Background(), treats)
	return best
}

func solve(ctx context.Context, treats []int) (*lineup.Lineup, int, Stats, error) {
	counts := Encode(treats)

	if counts.Distinct() == 1 {
		only := lineup.FromTreats(treats)
		return only, only.Happiness(), Stats{}, nil
	}

	guess := Guess(counts)
	s := &search{ctx: ctx}
	best := s.run(counts, lineup.New(), guess)
	if s.err != nil {
		return nil, 0, s.stats, s.err
	}
	return best, guess.Happiness(), s.stats, nil
}

// rank replaces every size with its 1-based rank among the distinct sizes.
// sizes maps a rank back to the original size; sizes[0] is unused.
func rank(treats []int) (ranks, sizes []int) {
	sizes = append([]int{0}, treats...)
	slices.Sort(sizes[1:])
	sizes = slices.Compact(sizes)

	ranks = make([]int, len(treats))
	for i, size := range treats {
		ranks[i], _ = slices.BinarySearch(sizes, size)
	}
	return ranks, sizes
}
