package services

import (
	"context"
	"fmt"

	"eco-route-engine/internal/domain"
	"eco-route-engine/internal/platform/obs"
	"eco-route-engine/internal/ports"

	"golang.org/x/sync/errgroup"
)

// EngineConfig holds the static knobs of the optimization engine. The
// variant weights are configurable because the fastest/eco split is just
// two instantiations of one weighted search.
type EngineConfig struct {
	EmissionFactor float64 // kg CO2 per km; defaults to DefaultEmissionFactor
	LegConcurrency int     // bounded in-flight oracle calls per request
	FastestWeight  float64 // defaults to 1.0
	EcoWeight      float64 // defaults to 0.0
}

// Engine produces a full OptimizationResult for one request: the caller's
// naive baseline, the fastest and eco search results, per-variant arrival
// schedules, and savings of fastest versus the baseline.
//
// The engine holds no per-request state; every Optimize call builds its own
// request-scoped evaluator and discards it with the response.
type Engine struct {
	provider ports.RouteProvider
	cfg      EngineConfig
}

func NewEngine(provider ports.RouteProvider, cfg EngineConfig) *Engine {
	if cfg.EmissionFactor <= 0 {
		cfg.EmissionFactor = domain.DefaultEmissionFactor
	}
	if cfg.LegConcurrency <= 0 {
		cfg.LegConcurrency = 4
	}
	if cfg.FastestWeight == 0 {
		cfg.FastestWeight = 1.0
	}

	return &Engine{provider: provider, cfg: cfg}
}

// Optimize runs the full pipeline. The baseline scores the stops exactly in
// request order; it is the user's naive route, not a search result.
func (e *Engine) Optimize(ctx context.Context, req domain.RouteRequest) (_ *domain.OptimizationResult, err error) {
	defer obs.Time(ctx, "engine.Optimize")(&err)

	if len(req.Stops) > domain.MaxStops {
		return nil, domain.NewError(
			domain.KindTooManyStops,
			"%d stops exceed the exhaustive search bound of %d",
			len(req.Stops), domain.MaxStops,
		)
	}

	evaluator := NewEvaluator(e.provider, e.cfg.EmissionFactor, e.cfg.LegConcurrency)
	sequencer := NewSequencer(evaluator)

	givenPath := make([]domain.Waypoint, 0, len(req.Stops)+2)
	givenPath = append(givenPath, req.Origin)
	givenPath = append(givenPath, req.Stops...)
	givenPath = append(givenPath, req.Destination)

	original, err := evaluator.Evaluate(ctx, givenPath)
	if err != nil {
		return nil, fmt.Errorf("score baseline route: %w", err)
	}

	// The two searches are independent and share only the request-scoped
	// leg cache, so they run concurrently.
	var fastest, eco domain.RouteVariant

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fastest, err = sequencer.Optimize(gctx, req.Origin, req.Destination, req.Stops, e.cfg.FastestWeight)
		if err != nil {
			return fmt.Errorf("fastest search: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		eco, err = sequencer.Optimize(gctx, req.Origin, req.Destination, req.Stops, e.cfg.EcoWeight)
		if err != nil {
			return fmt.Errorf("eco search: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	original.ETAs = BuildSchedule(original, req.StartTime)
	fastest.ETAs = BuildSchedule(fastest, req.StartTime)

	result := &domain.OptimizationResult{
		Original: original,
		Fastest:  fastest,
		Savings: domain.Savings{
			DistancePercent: percentSavings(original.DistanceKm, fastest.DistanceKm),
			CarbonPercent:   percentSavings(original.CarbonKg, fastest.CarbonKg),
		},
	}

	// A spurious duplicate choice helps nobody: eco is only reported when
	// its ordering actually differs from fastest.
	if !sameOrdering(fastest.Ordering, eco.Ordering) {
		eco.ETAs = BuildSchedule(eco, req.StartTime)
		result.Eco = &eco
	}

	return result, nil
}

// percentSavings computes 100*(original-optimized)/original, with a zero
// baseline reported as zero savings. Negative values are meaningful signal
// (a variant may trade distance for lower emission) and are not clamped.
func percentSavings(original, optimized float64) float64 {
	if original == 0 {
		return 0
	}
	return 100 * (original - optimized) / original
}

func sameOrdering(a, b []domain.Waypoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Coords != b[i].Coords {
			return false
		}
	}
	return true
}
