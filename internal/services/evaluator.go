package services

import (
	"context"
	"fmt"

	"eco-route-engine/internal/domain"
	"eco-route-engine/internal/ports"

	"golang.org/x/sync/errgroup"
)

// Evaluator scores a fixed, ordered path of waypoints against the routing
// oracle. It never reorders its input; ordering is the sequencer's job.
// Deterministic given identical legs.
//
// An Evaluator is request-scoped: it owns the leg memoization cache and is
// discarded with the request. Safe for concurrent use within that request
// (the fastest and eco searches share one instance).
type Evaluator struct {
	provider       ports.RouteProvider
	emissionFactor float64
	maxInFlight    int
	cache          *legCache
}

func NewEvaluator(provider ports.RouteProvider, emissionFactor float64, maxInFlight int) *Evaluator {
	if emissionFactor <= 0 {
		emissionFactor = domain.DefaultEmissionFactor
	}
	if maxInFlight <= 0 {
		maxInFlight = 4
	}

	return &Evaluator{
		provider:       provider,
		emissionFactor: emissionFactor,
		maxInFlight:    maxInFlight,
		cache:          newLegCache(),
	}
}

// EmissionFactor reports the kg CO2 per km this evaluator derives carbon with.
func (e *Evaluator) EmissionFactor() float64 { return e.emissionFactor }

// Evaluate folds the path's legs into a RouteVariant. Uncached legs are
// fetched from the oracle concurrently, bounded by the in-flight cap; legs
// of one ordering are independent queries. Any oracle fault fails the whole
// evaluation rather than silently dropping a leg.
func (e *Evaluator) Evaluate(ctx context.Context, path []domain.Waypoint) (domain.RouteVariant, error) {
	if len(path) < 2 {
		return domain.RouteVariant{}, domain.NewError(domain.KindInternal, "evaluate: path needs at least 2 waypoints, got %d", len(path))
	}

	type pair struct{ from, to domain.Waypoint }

	missing := make([]pair, 0, len(path)-1)
	seen := make(map[string]struct{}, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		if _, ok := e.cache.get(from, to); ok {
			continue
		}
		if _, ok := seen[legKey(from, to)]; ok {
			continue
		}
		seen[legKey(from, to)] = struct{}{}
		missing = append(missing, pair{from, to})
	}

	if len(missing) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.maxInFlight)

		for _, p := range missing {
			p := p
			g.Go(func() error {
				legs, err := e.provider.GetLegs(gctx, []domain.Waypoint{p.from, p.to})
				if err != nil {
					return fmt.Errorf("fetch leg %q -> %q: %w", p.from.Address, p.to.Address, err)
				}
				if len(legs) != 1 {
					return fmt.Errorf("fetch leg %q -> %q: expected 1 leg, got %d", p.from.Address, p.to.Address, len(legs))
				}
				e.cache.put(legs[0])
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return domain.RouteVariant{}, err
		}
	}

	variant := domain.RouteVariant{
		Path:     path,
		Ordering: path[1 : len(path)-1],
		Legs:     make([]domain.Leg, 0, len(path)-1),
	}

	for i := 0; i+1 < len(path); i++ {
		leg, ok := e.cache.get(path[i], path[i+1])
		if !ok {
			return domain.RouteVariant{}, domain.NewError(domain.KindInternal, "evaluate: leg %q -> %q missing after fetch", path[i].Address, path[i+1].Address)
		}

		variant.Legs = append(variant.Legs, leg)
		variant.DistanceKm += leg.DistanceKm
		variant.DurationMin += leg.DurationMin
	}

	variant.CarbonKg = variant.DistanceKm * e.emissionFactor

	return variant, nil
}
