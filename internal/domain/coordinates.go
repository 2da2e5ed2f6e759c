package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external routing API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Return coordinates as [lat, lon], the order used on the response boundary.
func (c Coordinates) LatLonList() []float64 { return []float64{c.Lat, c.Lon} }

// Point converts to an orb geometry point (lon, lat order).
func (c Coordinates) Point() orb.Point { return orb.Point{c.Lon, c.Lat} }

// Key returns a stable cache key with ~1m precision.
func (c Coordinates) Key() string { return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon) }

// Valid reports whether the coordinates lie inside the WGS84 range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}
