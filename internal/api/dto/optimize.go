package dto

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"eco-route-engine/internal/domain"
)

// Location is a request location: either a free-text address or a
// [lat, lon] pair. Exactly one form is populated after unmarshalling.
type Location struct {
	Address string
	Coords  *domain.Coordinates
}

func (l *Location) UnmarshalJSON(b []byte) error {
	var addr string
	if err := json.Unmarshal(b, &addr); err == nil {
		l.Address = addr
		l.Coords = nil
		return nil
	}

	var pair []float64
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("coordinate pair must have exactly 2 elements, got %d", len(pair))
		}
		l.Coords = &domain.Coordinates{Lat: pair[0], Lon: pair[1]}
		return nil
	}

	return fmt.Errorf("location must be an address string or a [lat, lon] pair")
}

func (l *Location) MarshalJSON() ([]byte, error) {
	if l.Coords != nil {
		return json.Marshal([]float64{l.Coords.Lat, l.Coords.Lon})
	}
	return json.Marshal(l.Address)
}

// OptimizeRequest is the engine's request boundary.
type OptimizeRequest struct {
	Origin      *Location   `json:"origin" validate:"required"`
	Destination *Location   `json:"destination" validate:"required"`
	Stops       []*Location `json:"stops" validate:"dive,required"`
	StartTime   string      `json:"start_time" validate:"omitempty,datetime=15:04"`
}

type ETAResponse struct {
	Address   string `json:"address"`
	Time      string `json:"time"`
	TotalTime string `json:"total_time,omitempty"`
}

type VariantResponse struct {
	DistanceKm  float64       `json:"distance_km"`
	CarbonKg    float64       `json:"carbon_kg"`
	DurationMin float64       `json:"duration_min"`
	Coordinates [][]float64   `json:"coordinates"`
	Waypoints   [][]float64   `json:"waypoints"`
	ETAs        []ETAResponse `json:"etas,omitempty"`
}

type OptionsResponse struct {
	Fastest VariantResponse  `json:"fastest"`
	Eco     *VariantResponse `json:"eco,omitempty"`
}

type SavingsResponse struct {
	DistancePercent float64 `json:"distance_percent"`
	CarbonPercent   float64 `json:"carbon_percent"`
}

type OptimizeResponse struct {
	Original  VariantResponse `json:"original"`
	Optimized VariantResponse `json:"optimized"`
	Options   OptionsResponse `json:"options"`
	Savings   SavingsResponse `json:"savings"`
}

type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// FromResult maps a domain result onto the wire shape, applying the
// response rounding discipline: metrics to 2 decimals, percentages to 1.
func FromResult(res *domain.OptimizationResult) OptimizeResponse {
	fastest := fromVariant(res.Fastest)

	out := OptimizeResponse{
		Original:  fromVariant(res.Original),
		Optimized: fastest, // single-"optimized" consumers stay compatible
		Options:   OptionsResponse{Fastest: fastest},
		Savings: SavingsResponse{
			DistancePercent: round1(res.Savings.DistancePercent),
			CarbonPercent:   round1(res.Savings.CarbonPercent),
		},
	}

	if res.Eco != nil {
		eco := fromVariant(*res.Eco)
		out.Options.Eco = &eco
	}

	return out
}

func fromVariant(v domain.RouteVariant) VariantResponse {
	geometry := v.Geometry()
	coords := make([][]float64, 0, len(geometry))
	for _, p := range geometry {
		coords = append(coords, []float64{p.Lat(), p.Lon()})
	}

	waypoints := make([][]float64, 0, len(v.Path))
	for _, wp := range v.Path {
		waypoints = append(waypoints, wp.Coords.LatLonList())
	}

	etas := make([]ETAResponse, 0, len(v.ETAs))
	for i, eta := range v.ETAs {
		entry := ETAResponse{
			Address: eta.Address,
			Time:    eta.Arrival.Format("15:04"),
		}
		if i > 0 {
			entry.TotalTime = FormatElapsed(eta.Elapsed)
		}
		etas = append(etas, entry)
	}

	return VariantResponse{
		DistanceKm:  round2(v.DistanceKm),
		CarbonKg:    round2(v.CarbonKg),
		DurationMin: round2(v.DurationMin),
		Coordinates: coords,
		Waypoints:   waypoints,
		ETAs:        etas,
	}
}

// FormatElapsed renders elapsed-since-start annotations: "45m", "2h 15m",
// and "1d 2h 15m" once a route crosses the day boundary. Keeping the day
// component explicit is what disambiguates a wrapped clock value.
func FormatElapsed(d time.Duration) string {
	minutes := int(math.Round(d.Minutes()))

	days := minutes / (24 * 60)
	hours := (minutes % (24 * 60)) / 60
	mins := minutes % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
