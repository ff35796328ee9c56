package solver

import (
	"context"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/hungry-puppies/internal/lineup"
)

var challengeCases = []struct {
	name   string
	treats []int
	want   int
}{
	{name: "SampleInput", treats: []int{1, 1, 1, 1, 1, 2, 2, 3}, want: 3},
	{name: "SampleOne", treats: []int{1, 2, 2, 3, 3, 3, 4}, want: 2},
	{name: "SampleTwo", treats: []int{1, 1, 2, 3, 3, 3, 3, 4, 5, 5}, want: 4},
	{name: "ChallengeTwo", treats: []int{1, 1, 2, 2, 3, 4, 4, 5, 5, 5, 6, 6}, want: 4},
	{name: "AllDistinct", treats: []int{1, 2, 3, 4, 5}, want: 1},
	{name: "AllEqual", treats: []int{1, 1, 1, 1}, want: 0},
	{name: "SinglePairLow", treats: []int{1, 1, 2, 3, 4}, want: 2},
	{name: "TenTreats", treats: []int{1, 1, 1, 2, 2, 2, 2, 3, 3, 4}, want: 3},
	{name: "FourteenTreats", treats: []int{1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 5}, want: 5},
	{name: "TwoPairs", treats: []int{1, 1, 2, 3, 4, 4}, want: 2},
}

func TestSolve(t *testing.T) {
	t.Parallel()

	for _, tc := range challengeCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Solve(tc.treats)
			assert.Equal(t, tc.want, got.Happiness())
			assert.Equal(t, got.Happiness(), lineup.Score(got.Treats()), "score must match a fresh re-score")
			assertPermutation(t, tc.treats, got.Treats())
		})
	}
}

func TestSolveMatchesBruteForce(t *testing.T) {
	t.Parallel()

	// Every multiset of up to seven treats drawn from sizes 1..4.
	var inputs [][]int
	var build func(prefix []int, from, left int)
	build = func(prefix []int, from, left int) {
		if len(prefix) > 0 {
			inputs = append(inputs, slices.Clone(prefix))
		}
		if left == 0 {
			return
		}
		for size := from; size <= 4; size++ {
			build(append(prefix, size), size, left-1)
		}
	}
	build(nil, 1, 7)

	for _, treats := range inputs {
		got := Solve(treats)
		require.Equal(t, bruteForce(treats), got.Happiness(), "treats %v", treats)
		require.Equal(t, got.Happiness(), lineup.Score(got.Treats()))
		assertPermutation(t, treats, got.Treats())
	}
}

func TestSolveSingleSize(t *testing.T) {
	t.Parallel()

	for count := 1; count <= 6; count++ {
		treats := slices.Repeat([]int{4}, count)
		got := Solve(treats)

		want := 0
		if count == 1 {
			want = 1
		}
		assert.Equal(t, want, got.Happiness(), "count %d", count)
		assert.Equal(t, treats, got.Treats())
	}
}

func TestSolveTieBreakFollowsIncreasingSizeOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{1, 3}, Solve([]int{3, 1}).Treats())
	assert.Equal(t, []int{2, 1, 1, 4, 3, 4}, Solve([]int{1, 1, 2, 3, 4, 4}).Treats())
	assert.Equal(t, []int{2, 1, 1, 1, 3, 1, 1, 2, 3}, Solve([]int{1, 1, 1, 1, 1, 2, 2, 3, 3}).Treats())
}

func TestSolveChildFramesStartFromGuess(t *testing.T) {
	t.Parallel()

	// Seeding children with the running best instead would settle on
	// [3 2 2 3 1 3] for this input.
	got := Solve([]int{1, 2, 2, 3, 3, 3})
	assert.Equal(t, 2, got.Happiness())
	assert.Equal(t, []int{3, 1, 3, 2, 2, 3}, got.Treats())
}

func TestSolverSolve(t *testing.T) {
	t.Parallel()

	result, err := New().Solve(context.Background(), []int{40, 10, 30, 10, 20, 40})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Happiness)
	assert.Equal(t, []int{20, 10, 10, 40, 30, 40}, result.Treats)
	assert.Equal(t, 1, result.GuessHappiness)
	assert.Positive(t, result.Stats.Nodes)
}

func TestSolverSolveMatchesCore(t *testing.T) {
	t.Parallel()

	for _, tc := range challengeCases {
		result, err := New().Solve(context.Background(), tc.treats)
		require.NoError(t, err, tc.name)

		core := Solve(tc.treats)
		assert.Equal(t, core.Happiness(), result.Happiness, tc.name)
		assert.Equal(t, core.Treats(), result.Treats, tc.name)
		assert.LessOrEqual(t, result.GuessHappiness, result.Happiness, tc.name)
	}
}

func TestSolverSolveAcceptsHugeSizes(t *testing.T) {
	t.Parallel()

	result, err := New().Solve(context.Background(), []int{math.MaxInt, 1, math.MaxInt})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Happiness)
	assert.Equal(t, []int{math.MaxInt, 1, math.MaxInt}, result.Treats)
}

func TestSolverSolveSingleSizeSkipsSearch(t *testing.T) {
	t.Parallel()

	result, err := New().Solve(context.Background(), []int{9, 9, 9})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Happiness)
	assert.Equal(t, []int{9, 9, 9}, result.Treats)
	assert.Zero(t, result.Stats.Nodes)
}

func TestSolverSolveRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		treats  []int
		opts    []Option
		wantErr error
	}{
		{name: "Nil", treats: nil, wantErr: ErrNoTreats},
		{name: "Empty", treats: []int{}, wantErr: ErrNoTreats},
		{name: "Zero", treats: []int{1, 0, 2}, wantErr: ErrInvalidTreatSize},
		{name: "Negative", treats: []int{-3}, wantErr: ErrInvalidTreatSize},
		{name: "TooMany", treats: []int{1, 2, 3, 4}, opts: []Option{WithMaxTreats(3)}, wantErr: ErrTooManyTreats},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tc.opts...).Solve(context.Background(), tc.treats)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSolverSolveWithoutLimit(t *testing.T) {
	t.Parallel()

	treats := slices.Repeat([]int{2}, DefaultMaxTreats+1)
	_, err := New().Solve(context.Background(), treats)
	require.ErrorIs(t, err, ErrTooManyTreats)

	result, err := New(WithMaxTreats(0)).Solve(context.Background(), treats)
	require.NoError(t, err)
	assert.Len(t, result.Treats, DefaultMaxTreats+1)
}

func TestSolverSolveHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	treats := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	_, err := New().Solve(ctx, treats)
	require.ErrorIs(t, err, ErrSearchAborted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRank(t *testing.T) {
	t.Parallel()

	ranks, sizes := rank([]int{50, 7, 50, 1000})
	assert.Equal(t, []int{2, 1, 2, 3}, ranks)
	assert.Equal(t, []int{0, 7, 50, 1000}, sizes)
}

func TestMaxGain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, maxGain(0))
	assert.Equal(t, 1, maxGain(2))
	assert.Equal(t, 2, maxGain(3))
	assert.Equal(t, 2, maxGain(5))
	assert.Equal(t, 3, maxGain(6))
}

// bruteForce returns the best happiness over all distinct orderings.
func bruteForce(treats []int) int {
	counts := Encode(treats)
	best := -len(treats)
	var walk func(current []int)
	walk = func(current []int) {
		if len(current) == len(treats) {
			best = max(best, lineup.Score(current))
			return
		}
		for size, n := range counts {
			if n == 0 {
				continue
			}
			counts[size]--
			walk(append(current, size))
			counts[size]++
		}
	}
	walk(make([]int, 0, len(treats)))
	return best
}

func assertPermutation(t *testing.T, want, got []int) {
	t.Helper()

	w := slices.Clone(want)
	g := slices.Clone(got)
	slices.Sort(w)
	slices.Sort(g)
	assert.Equal(t, w, g, fmt.Sprintf("%v is not a permutation of %v", got, want))
}

func BenchmarkSolveSample(b *testing.B) {
	treats := []int{1, 1, 1, 1, 1, 2, 2, 3}
	for i := 0; i < b.N; i++ {
		_ = Solve(treats)
	}
}

func BenchmarkSolveChallenge(b *testing.B) {
	treats := []int{1, 1, 2, 2, 3, 4, 4, 5, 5, 5, 6, 6}
	for i := 0; i < b.N; i++ {
		_ = Solve(treats)
	}
}

func BenchmarkSolveSeventeen(b *testing.B) {
	solver := New()
	treats := []int{1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 5, 5, 6, 7}
	for i := 0; i < b.N; i++ {
		if _, err := solver.Solve(context.Background(), treats); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}
