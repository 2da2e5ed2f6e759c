package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"eco-route-engine/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	redisGeocodePrefix = "geocode:"
	redisGeocodeTTL    = 30 * 24 * time.Hour
)

// RedisGeocodeCache stores resolved addresses in Redis. Values are
// "lon,lat" strings under "geocode:<address>" keys with a long TTL;
// geocoding results drift rarely enough that expiry is a formality.
type RedisGeocodeCache struct {
	Client *redis.Client
}

func NewRedisGeocodeCache(client *redis.Client) *RedisGeocodeCache {
	return &RedisGeocodeCache{Client: client}
}

// Fetch cached coordinates for the given addresses.
func (r *RedisGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (map[string]domain.Coordinates, error) {
	if r.Client == nil {
		return nil, errors.New("geocode cache: redis client is nil")
	}

	if len(addresses) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(addresses))
	keys := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}

		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		uniq = append(uniq, a)
		keys = append(keys, redisGeocodePrefix+a)
	}

	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	values, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: redis mget: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // miss
		}

		c, err := parseLonLat(s)
		if err != nil {
			return nil, fmt.Errorf("get geocode cache: key %q: %w", keys[i], err)
		}
		out[uniq[i]] = c
	}

	return out, nil
}

// Store resolved coordinates.
func (r *RedisGeocodeCache) PutMany(ctx context.Context, coords map[string]domain.Coordinates) error {
	if r.Client == nil {
		return errors.New("geocode cache: redis client is nil")
	}

	if len(coords) == 0 {
		return nil
	}

	pipe := r.Client.Pipeline()
	for addr, c := range coords {
		if strings.TrimSpace(addr) == "" {
			return errors.New("insert geocode cache: empty address key")
		}

		value := fmt.Sprintf("%g,%g", c.Lon, c.Lat)
		pipe.Set(ctx, redisGeocodePrefix+addr, value, redisGeocodeTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: redis pipeline: %w", err)
	}

	return nil
}

func parseLonLat(s string) (domain.Coordinates, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return domain.Coordinates{}, fmt.Errorf("malformed cached value %q", s)
	}

	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("malformed cached lon %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("malformed cached lat %q: %w", parts[1], err)
	}

	return domain.Coordinates{Lon: lon, Lat: lat}, nil
}
