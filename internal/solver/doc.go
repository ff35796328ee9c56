// Package solver finds the lineup of treats that makes the most puppies happy.
// It encodes the treats as per-size counts, seeds a lower bound with a greedy
// pairing heuristic and then runs an exhaustive branch-and-bound search over
// the remaining orderings, pruning branches that cannot beat the best lineup
// found so far.
package solver
