package domain

// Waypoint is a resolved request location: the caller-facing address text
// plus its road-network coordinates. Immutable once resolved.
type Waypoint struct {
	Address string
	Coords  Coordinates
}
