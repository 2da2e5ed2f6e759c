package route

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"eco-route-engine/internal/domain"
	"eco-route-engine/internal/platform/obs"

	"github.com/paulmach/orb"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// GeoJSON flavour of the ORS directions response. Segments carry per-leg
// metrics; way_points index into the geometry at each input waypoint.
type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Segments []struct {
				Distance float64 `json:"distance"` // meters
				Duration float64 `json:"duration"` // seconds
			} `json:"segments"`
			WayPoints []int `json:"way_points"`
		} `json:"properties"`
	} `json:"features"`
}

// GetLegs resolves an ordered path into one Leg per consecutive pair using
// a single batched directions query (POST /v2/directions/{profile}/geojson).
// Calls are idempotent and cancellable; oracle faults are surfaced as typed
// errors, never approximated away.
func (o *ORSRouteProvider) GetLegs(
	ctx context.Context,
	path []domain.Waypoint,
) (_ []domain.Leg, err error) {
	defer obs.Time(ctx, "ors.GetLegs")(&err)

	if len(path) < 2 {
		return nil, domain.NewError(domain.KindInternal, "directions path needs at least 2 waypoints, got %d", len(path))
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	coords := make([][]float64, 0, len(path))
	for _, wp := range path {
		coords = append(coords, wp.Coords.CoordsToList())
	}

	payload, err := json.Marshal(directionsRequest{Coordinates: coords})
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Features) == 0 {
		return nil, domain.NewError(domain.KindOracleRejected, "routing provider returned no route for the given path")
	}

	feature := dr.Features[0]
	segments := feature.Properties.Segments
	wayPoints := feature.Properties.WayPoints

	if len(segments) != len(path)-1 {
		return nil, fmt.Errorf(
			"expected %d segments for %d waypoints; got %d",
			len(path)-1, len(path), len(segments),
		)
	}
	if len(wayPoints) != len(path) {
		return nil, fmt.Errorf(
			"expected %d way_points for %d waypoints; got %d",
			len(path), len(path), len(wayPoints),
		)
	}

	line := make(orb.LineString, 0, len(feature.Geometry.Coordinates))
	for _, c := range feature.Geometry.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("invalid geometry coordinate of length %d", len(c))
		}
		line = append(line, orb.Point{c[0], c[1]})
	}

	legs := make([]domain.Leg, 0, len(segments))
	for i, seg := range segments {
		start, end := wayPoints[i], wayPoints[i+1]
		if start < 0 || end >= len(line) || start > end {
			return nil, fmt.Errorf("way_points [%d,%d] out of geometry bounds (%d points)", start, end, len(line))
		}

		geometry := make(orb.LineString, end-start+1)
		copy(geometry, line[start:end+1])

		legs = append(legs, domain.Leg{
			From:        path[i],
			To:          path[i+1],
			DistanceKm:  seg.Distance / 1000.0,
			DurationMin: seg.Duration / 60.0,
			Geometry:    geometry,
		})
	}

	return legs, nil
}
