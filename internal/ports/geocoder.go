package ports

import (
	"context"

	"eco-route-engine/internal/domain"
)

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
