package ports

import (
	"context"

	"eco-route-engine/internal/domain"
)

// RouteProvider is the road-network oracle boundary: it resolves an ordered
// path of at least two waypoints into one Leg per consecutive pair, with
// real road distance, duration, and geometry.
//
// Implementations must surface oracle faults as typed domain errors
// (KindOracleUnavailable, KindOracleRejected) and must never fall back to
// straight-line approximation: fabricated legs would silently corrupt the
// distance and carbon figures the caller presents as authoritative.
type RouteProvider interface {
	GetLegs(ctx context.Context, path []domain.Waypoint) ([]domain.Leg, error)
}
