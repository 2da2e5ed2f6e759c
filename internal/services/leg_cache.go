package services

import (
	"sync"

	"eco-route-engine/internal/domain"
)

// legCache memoizes oracle leg lookups per unique (from, to) pair for the
// lifetime of a single request. Exhaustive search reevaluates many
// permutations sharing overlapping sub-legs; without memoization the same
// pair would hit the oracle up to 5!*6 times. The cache is discarded with
// the request and never shared across requests: a long-lived leg cache
// would risk serving stale road geometry.
type legCache struct {
	mu   sync.Mutex
	legs map[string]domain.Leg
}

func newLegCache() *legCache {
	return &legCache{legs: make(map[string]domain.Leg)}
}

func legKey(from, to domain.Waypoint) string {
	return from.Coords.Key() + "|" + to.Coords.Key()
}

func (c *legCache) get(from, to domain.Waypoint) (domain.Leg, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	leg, ok := c.legs[legKey(from, to)]
	return leg, ok
}

func (c *legCache) put(leg domain.Leg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.legs[legKey(leg.From, leg.To)] = leg
}
