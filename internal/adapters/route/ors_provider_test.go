package route

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"eco-route-engine/internal/domain"

	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T, serverURL string, geocodeCache *mapGeocodeCache) *ORSRouteProvider {
	t.Helper()

	opts := Options{
		APIKey:      "test-key",
		BaseURL:     serverURL,
		MaxAttempts: 2,
	}
	if geocodeCache != nil {
		opts.GeocodeCache = geocodeCache
	}

	p, err := NewORSRouteProvider(opts)
	require.NoError(t, err)
	return p
}

// mapGeocodeCache is an in-memory ports.GeocodeCache for tests.
type mapGeocodeCache struct {
	mu sync.Mutex
	m  map[string]domain.Coordinates
}

func newMapGeocodeCache() *mapGeocodeCache {
	return &mapGeocodeCache{m: make(map[string]domain.Coordinates)}
}

func (c *mapGeocodeCache) GetMany(_ context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]domain.Coordinates)
	for _, a := range addresses {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *mapGeocodeCache) PutMany(_ context.Context, coords map[string]domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range coords {
		c.m[k] = v
	}
	return nil
}

func directionsBody(t *testing.T, coords [][]float64, wayPoints []int, segments []map[string]float64) []byte {
	t.Helper()

	segs := make([]any, 0, len(segments))
	for _, s := range segments {
		segs = append(segs, map[string]any{"distance": s["distance"], "duration": s["duration"]})
	}

	body, err := json.Marshal(map[string]any{
		"features": []any{
			map[string]any{
				"geometry": map[string]any{
					"type":        "LineString",
					"coordinates": coords,
				},
				"properties": map[string]any{
					"segments":   segs,
					"way_points": wayPoints,
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestGetLegsSplitsSegmentsAndGeometry(t *testing.T) {
	// Three waypoints, five geometry points; way_points mark the split.
	body := directionsBody(t,
		[][]float64{{10, 50}, {10.1, 50.1}, {10.2, 50.2}, {10.3, 50.3}, {10.4, 50.4}},
		[]int{0, 2, 4},
		[]map[string]float64{
			{"distance": 1500, "duration": 180},
			{"distance": 2500, "duration": 300},
		},
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.URL.Path, "/v2/directions/driving-car/geojson")
		require.Equal(t, "test-key", r.Header.Get("Authorization"))

		var req directionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Coordinates, 3)
		// ORS expects lon, lat order.
		require.Equal(t, []float64{10, 50}, req.Coordinates[0])

		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer server.Close()

	provider := testProvider(t, server.URL, nil)

	path := []domain.Waypoint{
		{Address: "A", Coords: domain.Coordinates{Lat: 50, Lon: 10}},
		{Address: "B", Coords: domain.Coordinates{Lat: 50.2, Lon: 10.2}},
		{Address: "C", Coords: domain.Coordinates{Lat: 50.4, Lon: 10.4}},
	}

	legs, err := provider.GetLegs(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, legs, 2)

	require.InDelta(t, 1.5, legs[0].DistanceKm, 1e-9)
	require.InDelta(t, 3.0, legs[0].DurationMin, 1e-9)
	require.InDelta(t, 2.5, legs[1].DistanceKm, 1e-9)
	require.InDelta(t, 5.0, legs[1].DurationMin, 1e-9)

	require.Equal(t, "A", legs[0].From.Address)
	require.Equal(t, "B", legs[0].To.Address)

	// Geometry split: [0..2] and [2..4], shared boundary point included.
	require.Len(t, legs[0].Geometry, 3)
	require.Len(t, legs[1].Geometry, 3)
	require.Equal(t, legs[0].Geometry[2], legs[1].Geometry[0])
}

func TestGetLegsUnroutablePairIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    2010,
				"message": "Could not find routable point within a radius of 350.0 meters",
			},
		})
	}))
	defer server.Close()

	provider := testProvider(t, server.URL, nil)

	path := []domain.Waypoint{
		{Address: "A", Coords: domain.Coordinates{Lat: 0, Lon: 0}},
		{Address: "B", Coords: domain.Coordinates{Lat: 1, Lon: 1}},
	}

	_, err := provider.GetLegs(context.Background(), path)
	require.Error(t, err)
	require.Equal(t, domain.KindOracleRejected, domain.KindOf(err))
	require.Contains(t, err.Error(), "routable point")
}

func TestGetLegsServerErrorsRetryThenUnavailable(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := testProvider(t, server.URL, nil)

	path := []domain.Waypoint{
		{Address: "A", Coords: domain.Coordinates{Lat: 0, Lon: 0}},
		{Address: "B", Coords: domain.Coordinates{Lat: 1, Lon: 1}},
	}

	_, err := provider.GetLegs(context.Background(), path)
	require.Error(t, err)
	require.Equal(t, domain.KindOracleUnavailable, domain.KindOf(err))
	require.Equal(t, 2, calls, "expected bounded retries")
}

func TestGetLegsRequiresTwoWaypoints(t *testing.T) {
	provider := testProvider(t, "http://unused.invalid", nil)

	_, err := provider.GetLegs(context.Background(), []domain.Waypoint{
		{Address: "A", Coords: domain.Coordinates{Lat: 0, Lon: 0}},
	})
	require.Error(t, err)
}

func TestGeocodeResolvesAndCaches(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Contains(t, r.URL.Path, "/geocode/search")
		require.Equal(t, "Tokyo Station", r.URL.Query().Get("text"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"features": []any{
				map[string]any{
					"geometry": map[string]any{"coordinates": []float64{139.767, 35.681}},
				},
			},
		})
	}))
	defer server.Close()

	cache := newMapGeocodeCache()
	provider := testProvider(t, server.URL, cache)

	coords, err := provider.Geocode(context.Background(), "  Tokyo   Station ")
	require.NoError(t, err)
	require.InDelta(t, 35.681, coords.Lat, 1e-9)
	require.InDelta(t, 139.767, coords.Lon, 1e-9)
	require.Equal(t, 1, calls)

	// Second lookup must be a cache hit.
	again, err := provider.Geocode(context.Background(), "Tokyo Station")
	require.NoError(t, err)
	require.Equal(t, coords, again)
	require.Equal(t, 1, calls)
}

func TestGeocodeNoResultsIsValidation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"features": []any{}})
	}))
	defer server.Close()

	provider := testProvider(t, server.URL, nil)

	_, err := provider.Geocode(context.Background(), "nowhere at all")
	require.Error(t, err)
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
}
