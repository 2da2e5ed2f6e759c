package services

import (
	"time"

	"eco-route-engine/internal/domain"
)

// BuildSchedule converts a variant's ordered legs plus a start time into
// per-stop arrival entries. The first entry always equals the start time
// with zero elapsed; each following entry adds the leg's duration. Arrival
// instants keep accumulating past midnight, so the day boundary survives
// for long routes; the clock rendering happens at the response boundary.
func BuildSchedule(variant domain.RouteVariant, start time.Time) []domain.ETA {
	if len(variant.Path) == 0 {
		return nil
	}

	etas := make([]domain.ETA, 0, len(variant.Path))
	etas = append(etas, domain.ETA{
		Address: variant.Path[0].Address,
		Arrival: start,
		Elapsed: 0,
	})

	elapsed := time.Duration(0)
	for _, leg := range variant.Legs {
		elapsed += time.Duration(leg.DurationMin * float64(time.Minute))
		etas = append(etas, domain.ETA{
			Address: leg.To.Address,
			Arrival: start.Add(elapsed),
			Elapsed: elapsed,
		})
	}

	return etas
}
