package ports

import (
	"context"

	"eco-route-engine/internal/domain"
)

// GeocodeCache is a persistent address -> coordinates cache. Geocoding
// results are stable, so unlike route legs they may outlive a request.
type GeocodeCache interface {
	// Fetch cached coordinates for the given addresses. Misses are simply
	// absent from the returned map.
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	// Store resolved coordinates.
	PutMany(ctx context.Context, coords map[string]domain.Coordinates) error
}
