package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eco-route-engine/internal/adapters/route"
	"eco-route-engine/internal/api/dto"
	"eco-route-engine/internal/domain"
	"eco-route-engine/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

// stubGeocoder resolves addresses from a fixed table.
type stubGeocoder struct {
	coords map[string]domain.Coordinates
	calls  int
}

func (g *stubGeocoder) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	g.calls++
	c, ok := g.coords[address]
	if !ok {
		return domain.Coordinates{}, domain.NewError(domain.KindValidation, "no geocode results for %q", address)
	}
	return c, nil
}

func scenarioGeocoder() *stubGeocoder {
	return &stubGeocoder{coords: map[string]domain.Coordinates{
		"A": {Lat: 52.50, Lon: 13.40},
		"B": {Lat: 52.54, Lon: 13.44},
		"C": {Lat: 52.51, Lon: 13.41},
		"D": {Lat: 52.52, Lon: 13.42},
	}}
}

// Baseline route A,C,D,B costs 30 km / 30 min; reordering the stops to
// D,C brings it down to 24.
func scenarioProvider() *route.MockRouteProvider {
	return route.NewMockRouteProvider([]route.MockPair{
		{From: "A", To: "C", Km: 10, Minutes: 10},
		{From: "C", To: "D", Km: 10, Minutes: 10},
		{From: "D", To: "B", Km: 10, Minutes: 10},
		{From: "A", To: "D", Km: 8, Minutes: 8},
		{From: "D", To: "C", Km: 8, Minutes: 8},
		{From: "C", To: "B", Km: 8, Minutes: 8},
	})
}

func newTestHandler(provider *route.MockRouteProvider, geocoder *stubGeocoder) *OptimizeHandler {
	return &OptimizeHandler{
		Engine:   services.NewEngine(provider, services.EngineConfig{}),
		Geocoder: geocoder,
		Validate: validator.New(),
		Timeout:  5 * time.Second,
	}
}

func postOptimize(t *testing.T, h *OptimizeHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorBody {
	t.Helper()

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestOptimizeHappyPath(t *testing.T) {
	h := newTestHandler(scenarioProvider(), scenarioGeocoder())

	rec := postOptimize(t, h, `{
		"origin": "A",
		"destination": "B",
		"stops": ["C", "D"],
		"start_time": "09:00"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.InDelta(t, 30.0, resp.Original.DistanceKm, 1e-9)
	require.InDelta(t, 30.0, resp.Original.DurationMin, 1e-9)
	require.InDelta(t, 24.0, resp.Options.Fastest.DurationMin, 1e-9)
	require.InDelta(t, 20.0, resp.Savings.DistancePercent, 1e-9)
	require.InDelta(t, 20.0, resp.Savings.CarbonPercent, 1e-9)

	require.Len(t, resp.Original.ETAs, 4)
	require.Equal(t, "A", resp.Original.ETAs[0].Address)
	require.Equal(t, "09:00", resp.Original.ETAs[0].Time)
	require.Empty(t, resp.Original.ETAs[0].TotalTime)
	require.Equal(t, "09:30", resp.Original.ETAs[3].Time)
	require.Equal(t, "30m", resp.Original.ETAs[3].TotalTime)

	// Both weighted searches land on D,C here, so no eco variant.
	require.Nil(t, resp.Options.Eco)
	require.NotContains(t, rec.Body.String(), `"eco"`)

	// Optimized mirrors the fastest option.
	require.Equal(t, resp.Options.Fastest, resp.Optimized)
}

func TestOptimizeAcceptsCoordinatePairs(t *testing.T) {
	provider := route.NewMockRouteProvider([]route.MockPair{
		{From: "52.50000, 13.40000", To: "52.54000, 13.44000", Km: 5, Minutes: 6},
	})
	geocoder := &stubGeocoder{}
	h := newTestHandler(provider, geocoder)

	rec := postOptimize(t, h, `{
		"origin": [52.5, 13.4],
		"destination": [52.54, 13.44]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, geocoder.calls, "coordinate pairs must not be geocoded")
}

func TestOptimizeMissingOrigin(t *testing.T) {
	h := newTestHandler(scenarioProvider(), scenarioGeocoder())

	rec := postOptimize(t, h, `{"destination": "B", "stops": ["C"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	require.Equal(t, string(domain.KindValidation), body.Kind)
	require.Equal(t, "origin", body.Field)
}

func TestOptimizeTooManyStops(t *testing.T) {
	h := newTestHandler(scenarioProvider(), scenarioGeocoder())

	stops := make([]string, 0, domain.MaxStops+1)
	for i := 0; i <= domain.MaxStops; i++ {
		stops = append(stops, fmt.Sprintf(`"stop %d"`, i))
	}
	rec := postOptimize(t, h, fmt.Sprintf(
		`{"origin": "A", "destination": "B", "stops": [%s]}`,
		strings.Join(stops, ","),
	))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, string(domain.KindTooManyStops), decodeError(t, rec).Kind)
}

func TestOptimizeBadStartTime(t *testing.T) {
	h := newTestHandler(scenarioProvider(), scenarioGeocoder())

	rec := postOptimize(t, h, `{"origin": "A", "destination": "B", "start_time": "25:99"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "start_time", decodeError(t, rec).Field)
}

func TestOptimizeUnknownFieldRejected(t *testing.T) {
	h := newTestHandler(scenarioProvider(), scenarioGeocoder())

	rec := postOptimize(t, h, `{"origin": "A", "destination": "B", "vehicle": "van"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimizeUnroutablePair(t *testing.T) {
	provider := scenarioProvider()
	provider.Reject("A", "C")
	provider.Reject("A", "D")
	h := newTestHandler(provider, scenarioGeocoder())

	rec := postOptimize(t, h, `{"origin": "A", "destination": "B", "stops": ["C", "D"]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, string(domain.KindOracleRejected), decodeError(t, rec).Kind)
}

func TestOptimizeOracleDown(t *testing.T) {
	h := newTestHandler(route.NewMockRouteProvider(nil), scenarioGeocoder())

	rec := postOptimize(t, h, `{"origin": "A", "destination": "B"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, string(domain.KindOracleUnavailable), decodeError(t, rec).Kind)
}

func TestOptimizeUnknownAddress(t *testing.T) {
	h := newTestHandler(scenarioProvider(), scenarioGeocoder())

	rec := postOptimize(t, h, `{"origin": "unmappable place", "destination": "B"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	require.Equal(t, string(domain.KindValidation), body.Kind)
	require.Equal(t, "origin", body.Field)
}

func TestOptimizeMethodNotAllowed(t *testing.T) {
	h := newTestHandler(scenarioProvider(), scenarioGeocoder())

	req := httptest.NewRequest(http.MethodGet, "/optimize", nil)
	rec := httptest.NewRecorder()
	h.Optimize(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}
