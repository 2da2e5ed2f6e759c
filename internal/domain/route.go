package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// MaxStops bounds the intermediate stop count. Exhaustive permutation
// search is only tractable while the permutation space stays small
// (5! = 120 orderings); requests above the bound are rejected outright.
const MaxStops = 5

// DefaultEmissionFactor is the average heavy goods vehicle emission,
// in kilograms of CO2 per kilometer driven.
const DefaultEmissionFactor = 0.265

// Leg is the road-network segment between two consecutive waypoints,
// with cost metrics and geometry as reported by the routing oracle.
// Legs are never synthesized from straight-line approximations.
type Leg struct {
	From        Waypoint
	To          Waypoint
	DistanceKm  float64
	DurationMin float64
	Geometry    orb.LineString
}

// ETA is the computed arrival at one waypoint on a route.
type ETA struct {
	Address string
	Arrival time.Time
	Elapsed time.Duration
}

// RouteVariant is one complete scored route: a specific stop ordering plus
// the metrics derived from its legs. DistanceKm and DurationMin are sums
// over Legs; CarbonKg = DistanceKm * emission factor.
type RouteVariant struct {
	Ordering    []Waypoint // intermediate stops in visit order
	Path        []Waypoint // origin, Ordering..., destination
	Legs        []Leg
	DistanceKm  float64
	DurationMin float64
	CarbonKg    float64
	ETAs        []ETA
}

// Geometry concatenates the leg geometries into one continuous line.
func (v RouteVariant) Geometry() orb.LineString {
	var line orb.LineString
	for _, leg := range v.Legs {
		line = append(line, leg.Geometry...)
	}
	return line
}

// Savings is the percentage improvement of an optimized variant over the
// baseline. Values may be negative: a variant can trade one metric for
// another, and that signal is preserved.
type Savings struct {
	DistancePercent float64
	CarbonPercent   float64
}

// OptimizationResult holds the baseline and the optimized variants for one
// request. Eco is nil when its ordering is identical to Fastest's; callers
// must treat absence as "no distinct eco route", not as zero savings.
type OptimizationResult struct {
	Original RouteVariant
	Fastest  RouteVariant
	Eco      *RouteVariant
	Savings  Savings
}

// RouteRequest is one delivery run to optimize. Origin and destination are
// fixed endpoints and never participate in reordering.
type RouteRequest struct {
	Origin      Waypoint
	Destination Waypoint
	Stops       []Waypoint
	StartTime   time.Time
}
