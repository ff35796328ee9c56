package solver

import (
	"slices"
	"strconv"
	"strings"
)

// Counts maps a treat size (the index) to the number of treats of that size.
// Index 0 is always present and always zero.
type Counts []int

// Encode converts treat sizes into per-size counts. It panics on an empty
// slice; callers validate input first.
func Encode(treats []int) Counts {
	counts := make(Counts, slices.Max(treats)+1)
	for _, size := range treats {
		counts[size]++
	}
	return counts
}

// Total returns the number of treats left.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Distinct returns the number of sizes with a positive count.
func (c Counts) Distinct() int {
	distinct := 0
	for _, n := range c {
		if n != 0 {
			distinct++
		}
	}
	return distinct
}

// Clone returns an independent copy.
func (c Counts) Clone() Counts {
	return slices.Clone(c)
}

// String renders the counts in a canonical "size:count" form, skipping
// absent sizes. Two permutations of the same multiset render identically.
func (c Counts) String() string {
	var b strings.Builder
	for size, n := range c {
		if n == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(size))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
