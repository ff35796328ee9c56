package lineup

// transitions holds the happiness delta applied when a third or later treat
// is added. Rows are indexed by compare(last, secondLast), columns by
// compare(last, next).
var transitions = [9]int{
	-1, -1, 0,
	-1, 0, 1,
	0, 1, 1,
}

// Lineup is an ordered assignment of treat sizes to puppies together with the
// happiness it produces.
type Lineup struct {
	happiness int
	treats    []int
}

// New returns an empty lineup.
func New() *Lineup {
	return &Lineup{}
}

// FromTreats builds a lineup by adding treats in the given order.
func FromTreats(treats []int) *Lineup {
	l := &Lineup{treats: make([]int, 0, len(treats))}
	for _, size := range treats {
		l.Add(size)
	}
	return l
}

// Score returns the happiness of handing out treats in exactly the given order.
func Score(treats []int) int {
	return FromTreats(treats).Happiness()
}

// Add hands the next treat to the next puppy in line and updates happiness.
func (l *Lineup) Add(size int) {
	l.treats = append(l.treats, size)

	switch n := len(l.treats); n {
	case 1:
		l.happiness = 1
	case 2:
		l.happiness = 0
	default:
		last := l.treats[n-2]
		secondLast := l.treats[n-3]
		l.happiness += transitions[3*compare(last, secondLast)+compare(last, size)]
	}
}

// compare returns 0 when a > b, 1 when they are equal and 2 when a < b.
func compare(a, b int) int {
	switch {
	case a > b:
		return 0
	case a == b:
		return 1
	default:
		return 2
	}
}

// Happiness returns the current score of the lineup.
func (l *Lineup) Happiness() int {
	return l.happiness
}

// Len returns the number of treats handed out.
func (l *Lineup) Len() int {
	return len(l.treats)
}

// Treats returns a copy of the treat order.
func (l *Lineup) Treats() []int {
	out := make([]int, len(l.treats))
	copy(out, l.treats)
	return out
}

// Clone returns an independent copy with spare capacity for extra treats.
func (l *Lineup) Clone(extra int) *Lineup {
	treats := make([]int, len(l.treats), len(l.treats)+extra)
	copy(treats, l.treats)
	return &Lineup{happiness: l.happiness, treats: treats}
}
