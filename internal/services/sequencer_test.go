package services

import (
	"context"
	"testing"

	"eco-route-engine/internal/adapters/route"
	"eco-route-engine/internal/domain"

	"github.com/stretchr/testify/require"
)

func wp(addr string, lat, lon float64) domain.Waypoint {
	return domain.Waypoint{Address: addr, Coords: domain.Coordinates{Lat: lat, Lon: lon}}
}

// fullPairTable builds a mock pair for every directed combination of the
// given waypoints, with metrics derived deterministically from the indices.
func fullPairTable(points []domain.Waypoint, km func(i, j int) float64, minutes func(i, j int) float64) []route.MockPair {
	var pairs []route.MockPair
	for i, from := range points {
		for j, to := range points {
			if i == j {
				continue
			}
			pairs = append(pairs, route.MockPair{
				From:    from.Address,
				To:      to.Address,
				Km:      km(i, j),
				Minutes: minutes(i, j),
			})
		}
	}
	return pairs
}

func TestSequencerFindsGlobalOptimum(t *testing.T) {
	origin := wp("O", 0, 0)
	dest := wp("D", 1, 1)
	stops := []domain.Waypoint{
		wp("S1", 0.1, 0.1),
		wp("S2", 0.2, 0.2),
		wp("S3", 0.3, 0.3),
		wp("S4", 0.4, 0.4),
	}

	all := append([]domain.Waypoint{origin, dest}, stops...)
	km := func(i, j int) float64 { return float64((i*7+j*3)%11 + 1) }
	minutes := func(i, j int) float64 { return float64((i*5+j*7)%13 + 1) }

	provider := route.NewMockRouteProvider(fullPairTable(all, km, minutes))
	evaluator := NewEvaluator(provider, domain.DefaultEmissionFactor, 4)
	sequencer := NewSequencer(evaluator)

	best, err := sequencer.Optimize(context.Background(), origin, dest, stops, 1.0)
	require.NoError(t, err)

	// Brute-force cross-check: no permutation beats the sequencer's duration.
	lookup := func(a, b domain.Waypoint) (float64, float64) {
		ai, bi := indexOf(all, a), indexOf(all, b)
		return km(ai, bi), minutes(ai, bi)
	}

	for _, perm := range permutations(len(stops)) {
		path := []domain.Waypoint{origin}
		for _, idx := range perm {
			path = append(path, stops[idx])
		}
		path = append(path, dest)

		var total float64
		for i := 0; i+1 < len(path); i++ {
			_, m := lookup(path[i], path[i+1])
			total += m
		}

		require.LessOrEqual(t, best.DurationMin, total,
			"permutation %v has lower duration than the reported optimum", perm)
	}

	// Every result keeps the multiset of input stops with pinned endpoints.
	require.Len(t, best.Ordering, len(stops))
	require.Equal(t, origin, best.Path[0])
	require.Equal(t, dest, best.Path[len(best.Path)-1])
	seen := map[string]int{}
	for _, s := range best.Ordering {
		seen[s.Address]++
	}
	for _, s := range stops {
		require.Equal(t, 1, seen[s.Address], "stop %s lost or duplicated", s.Address)
	}
}

func indexOf(all []domain.Waypoint, w domain.Waypoint) int {
	for i, c := range all {
		if c.Address == w.Address {
			return i
		}
	}
	return -1
}

func TestSequencerTieBreaksByInputOrder(t *testing.T) {
	origin := wp("O", 0, 0)
	dest := wp("D", 1, 1)
	stops := []domain.Waypoint{wp("S1", 0.1, 0.1), wp("S2", 0.2, 0.2)}

	all := append([]domain.Waypoint{origin, dest}, stops...)
	flat := func(i, j int) float64 { return 10 }

	provider := route.NewMockRouteProvider(fullPairTable(all, flat, flat))
	sequencer := NewSequencer(NewEvaluator(provider, domain.DefaultEmissionFactor, 4))

	best, err := sequencer.Optimize(context.Background(), origin, dest, stops, 1.0)
	require.NoError(t, err)

	// All orderings cost the same; the input order must win.
	require.Equal(t, "S1", best.Ordering[0].Address)
	require.Equal(t, "S2", best.Ordering[1].Address)
}

func TestSequencerZeroStops(t *testing.T) {
	origin := wp("O", 0, 0)
	dest := wp("D", 1, 1)

	provider := route.NewMockRouteProvider([]route.MockPair{
		{From: "O", To: "D", Km: 5, Minutes: 7},
	})
	sequencer := NewSequencer(NewEvaluator(provider, domain.DefaultEmissionFactor, 4))

	best, err := sequencer.Optimize(context.Background(), origin, dest, nil, 1.0)
	require.NoError(t, err)
	require.Empty(t, best.Ordering)
	require.Equal(t, 5.0, best.DistanceKm)
	require.Equal(t, 7.0, best.DurationMin)
}

func TestSequencerRejectsTooManyStops(t *testing.T) {
	origin := wp("O", 0, 0)
	dest := wp("D", 1, 1)

	stops := make([]domain.Waypoint, domain.MaxStops+1)
	for i := range stops {
		stops[i] = wp(string(rune('a'+i)), float64(i), float64(i))
	}

	provider := route.NewMockRouteProvider(nil)
	sequencer := NewSequencer(NewEvaluator(provider, domain.DefaultEmissionFactor, 4))

	_, err := sequencer.Optimize(context.Background(), origin, dest, stops, 1.0)
	require.Error(t, err)
	require.Equal(t, domain.KindTooManyStops, domain.KindOf(err))
	// Failing closed means no oracle traffic at all.
	require.Zero(t, provider.Calls())
}

func TestPermutationsLexicographic(t *testing.T) {
	perms := permutations(3)
	require.Len(t, perms, 6)
	require.Equal(t, []int{0, 1, 2}, perms[0])
	require.Equal(t, []int{0, 2, 1}, perms[1])
	require.Equal(t, []int{2, 1, 0}, perms[5])

	require.Equal(t, [][]int{{}}, permutations(0))
}
