package route

import (
	"context"
	"sync/atomic"

	"eco-route-engine/internal/domain"

	"github.com/paulmach/orb"
)

// MockPair defines the oracle's answer for one directed waypoint pair,
// keyed by address.
type MockPair struct {
	From, To string
	Km       float64
	Minutes  float64
}

// MockRouteProvider serves deterministic legs from a fixed pair table.
// Pairs listed in Rejected simulate unroutable queries; unknown pairs
// simulate an unreachable provider.
type MockRouteProvider struct {
	m        map[string]MockPair
	rejected map[string]struct{}
	calls    atomic.Int64
}

func NewMockRouteProvider(pairs []MockPair) *MockRouteProvider {
	m := make(map[string]MockPair, len(pairs))
	for _, p := range pairs {
		m[p.From+"|"+p.To] = p
	}
	return &MockRouteProvider{m: m, rejected: make(map[string]struct{})}
}

// Reject marks a directed pair as unroutable.
func (p *MockRouteProvider) Reject(from, to string) {
	p.rejected[from+"|"+to] = struct{}{}
}

// Calls reports how many oracle queries were issued.
func (p *MockRouteProvider) Calls() int64 { return p.calls.Load() }

func (p *MockRouteProvider) GetLegs(ctx context.Context, path []domain.Waypoint) ([]domain.Leg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.calls.Add(1)

	legs := make([]domain.Leg, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		key := from.Address + "|" + to.Address

		if _, ok := p.rejected[key]; ok {
			return nil, domain.NewError(domain.KindOracleRejected, "no route between %q and %q", from.Address, to.Address)
		}

		pair, ok := p.m[key]
		if !ok {
			return nil, domain.NewError(domain.KindOracleUnavailable, "missing mock pair %q -> %q", from.Address, to.Address)
		}

		legs = append(legs, domain.Leg{
			From:        from,
			To:          to,
			DistanceKm:  pair.Km,
			DurationMin: pair.Minutes,
			Geometry:    orb.LineString{from.Coords.Point(), to.Coords.Point()},
		})
	}

	return legs, nil
}
