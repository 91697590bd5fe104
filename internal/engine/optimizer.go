package engine

import (
	"math"
	"time"
)

// candidate is one visiting order (matrix indices, home excluded) with its
// closed-tour travel duration.
type candidate struct {
	order []int
	cost  time.Duration
}

// solver produces ranked candidate orders, best first. Both implementations
// are pure functions of the matrix; selection between them is a function of
// the stop count alone so each stays independently testable.
type solver interface {
	solve(m *Matrix, keep int) ([]candidate, error)
}

func solverFor(n int, cfg Config) solver {
	if n <= cfg.exactThreshold() {
		return exactSolver{}
	}
	return heuristicSolver{iterationCap: cfg.twoOptCap(n)}
}

// tourCost is the total driving duration of home -> order... -> home.
func tourCost(m *Matrix, order []int) time.Duration {
	if len(order) == 0 {
		return 0
	}
	total := m.At(0, order[0]).Duration
	for i := 0; i < len(order)-1; i++ {
		total += m.At(order[i], order[i+1]).Duration
	}
	total += m.At(order[len(order)-1], 0).Duration
	return total
}

// checkReachable rejects matrices with an infinite-cost pair: no tour through
// such a pair can be priced.
func checkReachable(m *Matrix) error {
	n := m.size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && math.IsInf(m.At(i, j).Meters, 1) {
				return ErrUnreachablePair
			}
		}
	}
	return nil
}

// exactSolver enumerates every permutation with home fixed as start and end.
// Direction matters because the matrix may be asymmetric. The caller supplies
// stops sorted by ID, and enumeration is in lexicographic index order with a
// strictly-better acceptance rule, so among equal-cost optima the
// lexicographically smallest ID sequence wins deterministically.
type exactSolver struct{}

func (exactSolver) solve(m *Matrix, keep int) ([]candidate, error) {
	if err := checkReachable(m); err != nil {
		return nil, err
	}
	n := m.size() - 1
	order := make([]int, n)
	for i := range order {
		order[i] = i + 1
	}
	best := make([]candidate, 0, keep)
	for {
		c := tourCost(m, order)
		best = insertRanked(best, candidate{order: append([]int(nil), order...), cost: c}, keep)
		if !nextPermutation(order) {
			break
		}
	}
	return best, nil
}

// insertRanked keeps a bounded list sorted ascending by cost. Insertion after
// equal-cost entries preserves enumeration order, which is what makes the
// tie-break lexicographic.
func insertRanked(list []candidate, c candidate, keep int) []candidate {
	pos := len(list)
	for i, ex := range list {
		if c.cost < ex.cost {
			pos = i
			break
		}
	}
	if pos >= keep {
		return list
	}
	list = append(list, candidate{})
	copy(list[pos+1:], list[pos:])
	list[pos] = c
	if len(list) > keep {
		list = list[:keep]
	}
	return list
}

// nextPermutation advances s to its lexicographic successor, returning false
// once s is the final (descending) permutation.
func nextPermutation(s []int) bool {
	i := len(s) - 2
	for i >= 0 && s[i] >= s[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(s) - 1
	for s[j] <= s[i] {
		j--
	}
	s[i], s[j] = s[j], s[i]
	for l, r := i+1, len(s)-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
	return true
}

// heuristicSolver seeds with nearest-neighbor from home and improves with
// 2-opt segment reversals until no reversal helps or the sweep cap is hit.
// Never optimal, always terminates, and never worse than the seed tour.
type heuristicSolver struct {
	iterationCap int
}

func (h heuristicSolver) solve(m *Matrix, keep int) ([]candidate, error) {
	if err := checkReachable(m); err != nil {
		return nil, err
	}
	seed := nearestNeighbor(m)
	seedCost := tourCost(m, seed)

	order := append([]int(nil), seed...)
	bestCost := seedCost
	n := len(order)

	// History of improving tours, most recent last; becomes the fallback
	// candidate list for the scheduler.
	history := []candidate{{order: append([]int(nil), seed...), cost: seedCost}}

	for it := 0; it < h.iterationCap; it++ {
		improved := false
		for i := 0; i < n-1 && !improved; i++ {
			for k := i + 1; k < n; k++ {
				cand := append([]int(nil), order...)
				for a, b := i, k; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				// Full recompute: reversing flips leg directions, which
				// changes cost under an asymmetric matrix.
				c := tourCost(m, cand)
				if c < bestCost {
					order = cand
					bestCost = c
					history = append(history, candidate{order: append([]int(nil), cand...), cost: c})
					improved = true
					break
				}
			}
		}
		if !improved {
			break
		}
	}

	out := make([]candidate, 0, keep)
	for i := len(history) - 1; i >= 0 && len(out) < keep; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

// nearestNeighbor builds a tour by always driving to the closest unvisited
// stop, ties broken by smaller index for determinism.
func nearestNeighbor(m *Matrix) []int {
	n := m.size() - 1
	visited := make([]bool, n+1)
	order := make([]int, 0, n)
	cur := 0
	for len(order) < n {
		next := -1
		var best time.Duration
		for j := 1; j <= n; j++ {
			if visited[j] {
				continue
			}
			d := m.At(cur, j).Duration
			if next == -1 || d < best {
				next = j
				best = d
			}
		}
		visited[next] = true
		order = append(order, next)
		cur = next
	}
	return order
}
