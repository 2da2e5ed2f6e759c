package services

import (
	"context"
	"fmt"

	"eco-route-engine/internal/domain"
)

// Sequencer searches stop orderings for the one minimizing a weighted cost:
//
//	cost = w*duration_min + (1-w)*distance_km*emission_factor
//
// w=1 is pure duration minimization (fastest), w=0 pure emission (eco);
// additional variants are just additional weight values, not new code paths.
//
// Because the path length is small (at most 7 nodes including endpoints)
// the search is exhaustive over the intermediate stops, which guarantees a
// global optimum instead of a heuristic approximation. Above the bound the
// sequencer fails closed rather than silently degrading to a heuristic.
type Sequencer struct {
	evaluator *Evaluator
}

func NewSequencer(evaluator *Evaluator) *Sequencer {
	return &Sequencer{evaluator: evaluator}
}

// Optimize returns the best-scoring variant for the given weight. Origin
// and destination stay pinned as first and last; ties are broken by
// preferring the ordering that appears earliest in input order.
func (s *Sequencer) Optimize(
	ctx context.Context,
	origin, destination domain.Waypoint,
	stops []domain.Waypoint,
	w float64,
) (domain.RouteVariant, error) {
	if len(stops) > domain.MaxStops {
		return domain.RouteVariant{}, domain.NewError(
			domain.KindTooManyStops,
			"%d stops exceed the exhaustive search bound of %d",
			len(stops), domain.MaxStops,
		)
	}
	if w < 0 || w > 1 {
		return domain.RouteVariant{}, domain.NewError(domain.KindInternal, "cost weight %g outside [0,1]", w)
	}

	var (
		best     domain.RouteVariant
		bestCost float64
		found    bool
	)

	// Lexicographic order over input indices makes "earliest input order
	// wins ties" fall out of a strictly-less comparison.
	for _, perm := range permutations(len(stops)) {
		path := make([]domain.Waypoint, 0, len(stops)+2)
		path = append(path, origin)
		for _, idx := range perm {
			path = append(path, stops[idx])
		}
		path = append(path, destination)

		variant, err := s.evaluator.Evaluate(ctx, path)
		if err != nil {
			return domain.RouteVariant{}, fmt.Errorf("score ordering %v: %w", perm, err)
		}

		cost := s.cost(variant, w)
		if !found || cost < bestCost {
			best = variant
			bestCost = cost
			found = true
		}
	}

	if !found {
		return domain.RouteVariant{}, domain.NewError(domain.KindInternal, "no ordering evaluated")
	}

	return best, nil
}

func (s *Sequencer) cost(v domain.RouteVariant, w float64) float64 {
	return w*v.DurationMin + (1-w)*v.DistanceKm*s.evaluator.EmissionFactor()
}

// permutations generates all permutations of 0..n-1 in lexicographic order.
// n is bounded by MaxStops, so the slice stays tiny (<= 120 entries).
func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}

	var out [][]int
	indices := make([]int, n)
	used := make([]bool, n)

	var walk func(depth int)
	walk = func(depth int) {
		if depth == n {
			perm := make([]int, n)
			copy(perm, indices)
			out = append(out, perm)
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			indices[depth] = i
			walk(depth + 1)
			used[i] = false
		}
	}
	walk(0)

	return out
}
